package connectors

import (
	"fmt"

	"github.com/xela07ax/fraudwatch-console/internal/domain"
)

// StatusError — бэкенд ответил, но не 2xx. Код сохраняем только для логов:
// ядро различает лишь "ok" и "не ok".
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
}

func (e *StatusError) Unwrap() error {
	return domain.ErrBadStatus
}
