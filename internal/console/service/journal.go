package service

import (
	"context"

	"github.com/xela07ax/fraudwatch-console/internal/audit"
)

// JournalReader — чтение журнала операторов (Postgres).
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]audit.JournalEvent, error)
}

type JournalService struct {
	reader JournalReader
}

// NewJournalService принимает nil, если журнал пишется только в лог.
func NewJournalService(reader JournalReader) *JournalService {
	return &JournalService{reader: reader}
}

func (s *JournalService) Enabled() bool {
	return s.reader != nil
}

func (s *JournalService) Recent(ctx context.Context, limit int) ([]audit.JournalEvent, error) {
	if s.reader == nil {
		return []audit.JournalEvent{}, nil
	}
	return s.reader.Recent(ctx, limit)
}
