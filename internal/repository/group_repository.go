package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/trouble-tickets/internal/domain"
)

// GroupRepository handles persistence for user groups.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetByID(ctx context.Context, id int64) (*domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
}

type groupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository instantiates the repository.
func NewGroupRepository(pool *pgxpool.Pool) GroupRepository {
	return &groupRepository{pool: pool}
}

func (r *groupRepository) Create(ctx context.Context, group *domain.Group) error {
	const query = `
        INSERT INTO groups (name, view_all)
        VALUES ($1,$2)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, group.Name, group.ViewAll).
		Scan(&group.ID, &group.CreatedAt)
}

func (r *groupRepository) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	const query = `SELECT id, name, view_all, created_at FROM groups WHERE id=$1`
	var group domain.Group
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.ViewAll,
		&group.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) List(ctx context.Context) ([]domain.Group, error) {
	const query = `SELECT id, name, view_all, created_at FROM groups ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Group
	for rows.Next() {
		var group domain.Group
		if err := rows.Scan(&group.ID, &group.Name, &group.ViewAll, &group.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, group)
	}
	return result, rows.Err()
}
