package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/trouble-tickets/internal/domain"
)

// TicketFilter captures listing parameters. All set fields are intersected.
type TicketFilter struct {
	CustomerID  *int64
	AssignedTo  *int64
	CreatedBy   *int64
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketMutator inspects the current row, mutates it in place, and returns
// the audit rows to persist alongside it. Returning an error aborts the
// surrounding transaction without touching storage.
type TicketMutator func(t *domain.Ticket) ([]domain.TicketHistory, error)

// TicketStats aggregates dashboard counters over the ticket table.
type TicketStats struct {
	Total             int64                         `json:"total"`
	ByStatus          map[domain.TicketStatus]int64 `json:"by_status"`
	Overdue           int64                         `json:"overdue"`
	ResolvedWithinSLA int64                         `json:"resolved_within_sla"`
	ResolvedBreached  int64                         `json:"resolved_breached"`
}

// TicketRepository encapsulates ticket persistence. Apply is the only write
// path for existing tickets: it runs read, mutation, and audit insert as one
// transaction.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	Apply(ctx context.Context, id int64, fn TicketMutator) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CollectStats(ctx context.Context, now time.Time) (*TicketStats, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, customer_id, assigned_to, created_by, case_id,
               pending_reason_id, closing_reason_id, title, description, status, priority,
               scheduled_date, sla_due_date, resolved_at, closed_at, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, customer_id, assigned_to, created_by, case_id,
            title, description, status, priority, scheduled_date, sla_due_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.CustomerID,
		ticket.AssignedTo,
		ticket.CreatedBy,
		ticket.CaseID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.ScheduledDate,
		ticket.SLADueDate,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return scanTicketRow(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE ticket_number=$1`, ticketColumns)
	return scanTicketRow(r.pool.QueryRow(ctx, query, number))
}

// Apply locks the ticket row, runs the mutator, writes the updated row and
// its audit entries, and commits. Either everything lands or nothing does;
// the row lock keeps old/new values in history correct under concurrent
// writers.
func (r *ticketRepository) Apply(ctx context.Context, id int64, fn TicketMutator) (*domain.Ticket, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1 FOR UPDATE`, ticketColumns)
	ticket, err := scanTicketRow(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	history, err := fn(ticket)
	if err != nil {
		return nil, err
	}

	const update = `
        UPDATE tickets SET assigned_to=$1, case_id=$2, pending_reason_id=$3, closing_reason_id=$4,
            status=$5, priority=$6, scheduled_date=$7, sla_due_date=$8, resolved_at=$9, closed_at=$10,
            updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, update,
		ticket.AssignedTo,
		ticket.CaseID,
		ticket.PendingReasonID,
		ticket.ClosingReasonID,
		ticket.Status,
		ticket.Priority,
		ticket.ScheduledDate,
		ticket.SLADueDate,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
	).Scan(&ticket.UpdatedAt); err != nil {
		return nil, err
	}

	const insertHistory = `
        INSERT INTO ticket_history (ticket_id, changed_by, field_name, old_value, new_value, change_reason, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	for _, entry := range history {
		if _, err := tx.Exec(ctx, insertHistory,
			entry.TicketID,
			entry.ChangedBy,
			entry.Field,
			entry.OldValue,
			entry.NewValue,
			entry.ChangeReason,
			entry.CreatedAt,
		); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CollectStats(ctx context.Context, now time.Time) (*TicketStats, error) {
	stats := &TicketStats{ByStatus: make(map[domain.TicketStatus]int64)}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status domain.TicketStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const aggregates = `
        SELECT
            COUNT(*) FILTER (WHERE sla_due_date < $1 AND status NOT IN ('resolved','closed')),
            COUNT(*) FILTER (WHERE resolved_at IS NOT NULL AND resolved_at <= sla_due_date),
            COUNT(*) FILTER (WHERE resolved_at IS NOT NULL AND resolved_at > sla_due_date)
        FROM tickets`
	if err := r.pool.QueryRow(ctx, aggregates, now).Scan(
		&stats.Overdue,
		&stats.ResolvedWithinSLA,
		&stats.ResolvedBreached,
	); err != nil {
		return nil, err
	}
	return stats, nil
}

func scanTicketRow(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.CustomerID,
		&ticket.AssignedTo,
		&ticket.CreatedBy,
		&ticket.CaseID,
		&ticket.PendingReasonID,
		&ticket.ClosingReasonID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.ScheduledDate,
		&ticket.SLADueDate,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
