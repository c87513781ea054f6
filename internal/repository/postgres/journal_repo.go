package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xela07ax/fraudwatch-console/internal/audit"
)

// Количество колонок в таблице operator_journal
const journalFields = 10

type JournalRepo struct {
	db *sql.DB
}

func NewJournalRepo(db *sql.DB) *JournalRepo {
	return &JournalRepo{db: db}
}

func (r *JournalRepo) WriteBatch(ctx context.Context, events []audit.JournalEvent) error {
	if len(events) == 0 {
		return nil
	}
	query, vals, err := buildJournalInsert(events)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, vals...); err != nil {
		return fmt.Errorf("postgres: journal batch insert: %w", err)
	}
	return nil
}

// buildJournalInsert динамически строит запрос для пакетной вставки.
func buildJournalInsert(events []audit.JournalEvent) (string, []any, error) {
	var sb strings.Builder
	vals := make([]any, 0, len(events)*journalFields)

	for i, e := range events {
		if i > 0 {
			sb.WriteString(", ")
		}
		p := i * journalFields
		sb.WriteString("(")
		for f := 1; f <= journalFields; f++ {
			if f > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", p+f)
		}
		sb.WriteString(")")

		details, err := json.Marshal(e.Details)
		if err != nil {
			return "", nil, fmt.Errorf("postgres: marshal journal details: %w", err)
		}
		var txID sql.NullInt64
		if e.TransactionID != nil {
			txID = sql.NullInt64{Int64: *e.TransactionID, Valid: true}
		}

		vals = append(vals,
			e.ID, e.TraceID, e.OperatorID, e.Action, txID,
			details, e.Status, sql.NullString{String: e.Error, Valid: e.Error != ""}, e.DurationMs, e.Timestamp,
		)
	}

	query := "INSERT INTO operator_journal (id, trace_id, operator_id, action, transaction_id, details, status, error, duration_ms, timestamp) VALUES " + sb.String()
	return query, vals, nil
}

// Recent возвращает последние события журнала, новые первыми.
func (r *JournalRepo) Recent(ctx context.Context, limit int) ([]audit.JournalEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, trace_id, operator_id, action, transaction_id, details, status, error, duration_ms, timestamp
		FROM operator_journal
		ORDER BY timestamp DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query journal: %w", err)
	}
	defer rows.Close()

	// Инициализируем пустой слайс, чтобы в JSON был [] вместо null
	events := make([]audit.JournalEvent, 0)
	for rows.Next() {
		var (
			e       audit.JournalEvent
			txID    sql.NullInt64
			details []byte
			errText sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.TraceID, &e.OperatorID, &e.Action, &txID, &details, &e.Status, &errText, &e.DurationMs, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan journal event: %w", err)
		}
		if txID.Valid {
			v := txID.Int64
			e.TransactionID = &v
		}
		if errText.Valid {
			e.Error = errText.String
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("postgres: decode journal details: %w", err)
			}
		}
		events = append(events, e)
	}

	// Проверка на ошибки итерации (стандарт качества pgx)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return events, nil
}
