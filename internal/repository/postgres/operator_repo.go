package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
)

type OperatorRepo struct {
	db *sql.DB
}

func NewOperatorRepo(db *sql.DB) *OperatorRepo {
	return &OperatorRepo{db: db}
}

// GetOperatorByUsername возвращает (nil, nil), если оператора нет.
func (r *OperatorRepo) GetOperatorByUsername(ctx context.Context, username string) (*domain.Operator, error) {
	query := `SELECT id, username, password_hash, scopes FROM operators WHERE username = $1`

	op := &domain.Operator{}
	// TEXT[] через database/sql сканируется адаптером pgtype. Map не потокобезопасен, поэтому свой на запрос
	types := pgtype.NewMap()
	err := r.db.QueryRowContext(ctx, query, username).Scan(&op.ID, &op.Username, &op.PasswordHash, types.SQLScanner(&op.Scopes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: failed to get operator: %w", err)
	}
	return op, nil
}
