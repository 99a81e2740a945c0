package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/trouble-tickets/internal/domain"
)

// CaseRepository handles the optional case master data tickets may
// reference.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	GetByID(ctx context.Context, id int64) (*domain.Case, error)
	List(ctx context.Context) ([]domain.Case, error)
}

type caseRepository struct {
	pool *pgxpool.Pool
}

// NewCaseRepository instantiates the repository.
func NewCaseRepository(pool *pgxpool.Pool) CaseRepository {
	return &caseRepository{pool: pool}
}

func (r *caseRepository) Create(ctx context.Context, c *domain.Case) error {
	const query = `
        INSERT INTO cases (name, description, is_active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, c.Name, c.Description, c.IsActive).
		Scan(&c.ID, &c.CreatedAt)
}

func (r *caseRepository) GetByID(ctx context.Context, id int64) (*domain.Case, error) {
	const query = `SELECT id, name, description, is_active, created_at FROM cases WHERE id=$1`
	var c domain.Case
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.IsActive,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepository) List(ctx context.Context) ([]domain.Case, error) {
	const query = `SELECT id, name, description, is_active, created_at FROM cases ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Case
	for rows.Next() {
		var c domain.Case
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
