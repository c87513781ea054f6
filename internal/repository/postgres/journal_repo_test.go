package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/fraudwatch-console/internal/audit"
)

func TestBuildJournalInsert(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	id := int64(42)
	events := []audit.JournalEvent{
		{ID: "a", TraceID: "t1", OperatorID: "op", Action: audit.ActionReview, TransactionID: &id,
			Details: map[string]any{"verdict": 1}, Status: audit.StatusSuccess, DurationMs: 12, Timestamp: ts},
		{ID: "b", TraceID: "t2", OperatorID: "op", Action: audit.ActionUpload, Status: audit.StatusFailed, Error: "timeout", Timestamp: ts},
	}

	query, vals, err := buildJournalInsert(events)

	require.NoError(t, err)
	assert.Contains(t, query, "($1, $2, $3, $4, $5, $6, $7, $8, $9, $10), ($11, $12")
	assert.True(t, len(query) > 0 && query[len(query)-4:] == "$20)")
	require.Len(t, vals, 2*journalFields)

	first, second := vals[:journalFields], vals[journalFields:]
	assert.Equal(t, "a", first[0])
	assert.Equal(t, sql.NullInt64{Int64: 42, Valid: true}, first[4])
	assert.JSONEq(t, `{"verdict":1}`, string(first[5].([]byte)))
	assert.Equal(t, sql.NullString{}, first[7])

	assert.Equal(t, sql.NullInt64{}, second[4])
	assert.Equal(t, sql.NullString{String: "timeout", Valid: true}, second[7])
	assert.Equal(t, ts, second[9])
}
