package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/repository"
)

var _ repository.LanguageRepository = (*PostgresLanguageRepo)(nil)

type PostgresLanguageRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresLanguageRepo(pool *pgxpool.Pool) *PostgresLanguageRepo {
	return &PostgresLanguageRepo{pool: pool}
}

func (r *PostgresLanguageRepo) FindByID(ctx context.Context, qx any, id int) (*model.Language, error) {
	var l model.Language
	err := pickRow(ctx, r.pool, qx, `SELECT id, code, name, is_active FROM languages WHERE id=$1;`, id).
		Scan(&l.ID, &l.Code, &l.Name, &l.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find language: %w", err)
	}
	return &l, nil
}

// List returns every language, active or not, ordered by name.
func (r *PostgresLanguageRepo) List(ctx context.Context, qx any) ([]model.Language, error) {
	rows, err := queryRows(ctx, r.pool, qx, `SELECT id, code, name, is_active FROM languages ORDER BY name, id;`)
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	defer rows.Close()
	out := make([]model.Language, 0, 32)
	for rows.Next() {
		var l model.Language
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.IsActive); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Save upserts on code and fills lang.ID.
func (r *PostgresLanguageRepo) Save(ctx context.Context, qx any, lang *model.Language) error {
	const q = `
INSERT INTO languages (code, name, is_active)
VALUES ($1, $2, $3)
ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, is_active = EXCLUDED.is_active
RETURNING id;
`
	if err := pickRow(ctx, r.pool, qx, q, lang.Code, lang.Name, lang.IsActive).Scan(&lang.ID); err != nil {
		return fmt.Errorf("save language: %w", err)
	}
	return nil
}

const sqlStateForeignKeyViolation = "23503"

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateForeignKeyViolation
}
