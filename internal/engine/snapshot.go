package engine

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Snapshot — один полученный JSON-ответ ресурса.
type Snapshot struct {
	Body json.RawMessage
	ETag string

	value any // декодированная структура для сравнения
}

// NewSnapshot декодирует тело, чтобы сравнивать структуру, а не байты
// (порядок ключей и пробелы в ответе бэкенда не должны считаться изменением).
func NewSnapshot(body []byte, etag string) (*Snapshot, error) {
	var v any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
	}
	return &Snapshot{Body: body, ETag: etag, value: v}, nil
}

// Empty — ответ, который нельзя считать данными: null, пустой объект, массив или строка,
// а также голые числа и булевы значения.
func (s *Snapshot) Empty() bool {
	if s == nil {
		return true
	}
	switch v := s.value.(type) {
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case string:
		return v == ""
	default:
		return true
	}
}

// Differs сообщает, изменились ли данные относительно prev.
// Если оба снимка несут ETag, решает он. Иначе — полное структурное сравнение.
// У структурного сравнения есть ложноотрицательный риск: новый пакет, случайно
// совпавший со старым ответом байт в байт, будет принят за "без изменений".
func (s *Snapshot) Differs(prev *Snapshot) bool {
	if prev == nil {
		return true
	}
	if s.ETag != "" && prev.ETag != "" {
		return s.ETag != prev.ETag
	}
	return !reflect.DeepEqual(s.value, prev.value)
}

// Decode разбирает тело снимка в типизированную структуру.
func (s *Snapshot) Decode(dst any) error {
	if err := json.Unmarshal(s.Body, dst); err != nil {
		return fmt.Errorf("decode %T: %w", dst, err)
	}
	return nil
}
