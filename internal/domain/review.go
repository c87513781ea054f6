package domain

import "fmt"

// Verdict — решение оператора по транзакции из очереди ручной проверки.
type Verdict int

const (
	VerdictLegitimate Verdict = 0
	VerdictFraudulent Verdict = 1
)

// ParseVerdict принимает только 0 или 1, всё остальное отклоняется до отправки запроса.
func ParseVerdict(v int) (Verdict, error) {
	switch Verdict(v) {
	case VerdictLegitimate, VerdictFraudulent:
		return Verdict(v), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidVerdict, v)
	}
}

func (v Verdict) String() string {
	if v == VerdictFraudulent {
		return LabelFraudulent
	}
	return LabelLegitimate
}
