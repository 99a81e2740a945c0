package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/trouble-tickets/internal/domain"
)

// TicketHistoryRepository reads the append-only audit trail. Writes happen
// exclusively inside TicketRepository.Apply so they share the ticket's
// transaction; no standalone insert is exposed.
type TicketHistoryRepository interface {
	ListByTicket(ctx context.Context, ticketID int64, limit, offset int) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID int64, limit, offset int) ([]domain.TicketHistory, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	// id breaks ties within a mutation batch, preserving insertion order.
	const query = `
        SELECT id, ticket_id, changed_by, field_name, old_value, new_value, change_reason, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC
        LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, ticketID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var entry domain.TicketHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.ChangedBy,
			&entry.Field,
			&entry.OldValue,
			&entry.NewValue,
			&entry.ChangeReason,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
