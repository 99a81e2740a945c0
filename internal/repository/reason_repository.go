package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/trouble-tickets/internal/domain"
)

// ReasonRepository handles the pending_reasons and closing_reasons master
// data (create and list only; reasons carry no lifecycle of their own).
type ReasonRepository interface {
	Create(ctx context.Context, reason *domain.Reason) error
	GetByID(ctx context.Context, kind domain.ReasonKind, id int64) (*domain.Reason, error)
	List(ctx context.Context, kind domain.ReasonKind) ([]domain.Reason, error)
}

type reasonRepository struct {
	pool *pgxpool.Pool
}

// NewReasonRepository instantiates the repository.
func NewReasonRepository(pool *pgxpool.Pool) ReasonRepository {
	return &reasonRepository{pool: pool}
}

func reasonTable(kind domain.ReasonKind) string {
	if kind == domain.ReasonKindClosing {
		return "closing_reasons"
	}
	return "pending_reasons"
}

func (r *reasonRepository) Create(ctx context.Context, reason *domain.Reason) error {
	query := fmt.Sprintf(`
        INSERT INTO %s (label, is_active)
        VALUES ($1,$2)
        RETURNING id, created_at`, reasonTable(reason.Kind))
	return r.pool.QueryRow(ctx, query, reason.Label, reason.IsActive).
		Scan(&reason.ID, &reason.CreatedAt)
}

func (r *reasonRepository) GetByID(ctx context.Context, kind domain.ReasonKind, id int64) (*domain.Reason, error) {
	query := fmt.Sprintf(`SELECT id, label, is_active, created_at FROM %s WHERE id=$1`, reasonTable(kind))
	reason := domain.Reason{Kind: kind}
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&reason.ID,
		&reason.Label,
		&reason.IsActive,
		&reason.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &reason, nil
}

func (r *reasonRepository) List(ctx context.Context, kind domain.ReasonKind) ([]domain.Reason, error) {
	query := fmt.Sprintf(`SELECT id, label, is_active, created_at FROM %s ORDER BY label ASC`, reasonTable(kind))
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Reason
	for rows.Next() {
		reason := domain.Reason{Kind: kind}
		if err := rows.Scan(&reason.ID, &reason.Label, &reason.IsActive, &reason.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, reason)
	}
	return result, rows.Err()
}
