package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/trouble-tickets/internal/audit"
	"github.com/spec-kit/trouble-tickets/internal/domain"
	"github.com/spec-kit/trouble-tickets/internal/events"
	"github.com/spec-kit/trouble-tickets/internal/repository"
	"github.com/spec-kit/trouble-tickets/internal/sla"
	apperrors "github.com/spec-kit/trouble-tickets/pkg/util"
)

// maxTicketNumberAttempts bounds regeneration on unique-constraint
// collisions before the failure surfaces to the caller.
const maxTicketNumberAttempts = 5

// TicketService is the lifecycle engine: it validates transitions, computes
// SLA deadlines, and hands the repository a mutation plus its audit rows to
// commit as one unit. Every operation takes an explicit actorID; the engine
// never substitutes a system identity.
type TicketService struct {
	tickets   repository.TicketRepository
	history   repository.TicketHistoryRepository
	customers repository.CustomerRepository
	users     repository.UserRepository
	groups    repository.GroupRepository
	recorder  *audit.Recorder
	dispatch  events.Dispatcher
	clock     func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	HistoryRepo  repository.TicketHistoryRepository
	CustomerRepo repository.CustomerRepository
	UserRepo     repository.UserRepository
	GroupRepo    repository.GroupRepository
	Dispatcher   events.Dispatcher
	Clock        func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	CustomerID    int64
	Title         string
	Description   string
	Priority      domain.TicketPriority
	AssignedTo    *int64
	CaseID        *int64
	ScheduledDate *time.Time
}

// TicketListFilter describes listing filters applied on top of visibility.
type TicketListFilter struct {
	CustomerID  *int64
	AssignedTo  *int64
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		tickets:   deps.TicketRepo,
		history:   deps.HistoryRepo,
		customers: deps.CustomerRepo,
		users:     deps.UserRepo,
		groups:    deps.GroupRepo,
		recorder:  audit.NewRecorder(clock),
		dispatch:  deps.Dispatcher,
		clock:     clock,
	}
}

// Create opens a new ticket for a customer. The SLA deadline is the creation
// time plus the customer's response window. Creation writes no history rows;
// there is no prior state to audit.
func (s *TicketService) Create(ctx context.Context, actorID int64, input TicketCreateInput) (*domain.Ticket, error) {
	customer, err := s.customers.GetByID(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": input.CustomerID})
		}
		return nil, apperrors.MapError(err)
	}
	if !customer.IsActive {
		return nil, apperrors.NewInvalidReference("customer inactive", map[string]any{"customer_id": customer.ID})
	}
	if input.AssignedTo != nil {
		if err := s.validateAssignee(ctx, *input.AssignedTo); err != nil {
			return nil, err
		}
	}

	now := s.clock()
	ticket := &domain.Ticket{
		TicketNumber:  generateTicketNumber(now),
		CustomerID:    customer.ID,
		AssignedTo:    input.AssignedTo,
		CreatedBy:     actorID,
		CaseID:        input.CaseID,
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Status:        domain.TicketStatusOpen,
		Priority:      input.Priority,
		ScheduledDate: input.ScheduledDate,
		SLADueDate:    sla.DueDate(now, customer.SLAHours),
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	for attempt := 0; ; attempt++ {
		err = s.tickets.Create(ctx, ticket)
		if err == nil {
			break
		}
		if apperrors.IsUniqueViolation(err) && attempt < maxTicketNumberAttempts-1 {
			ticket.TicketNumber = generateTicketNumber(s.clock())
			continue
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			CustomerID:   ticket.CustomerID,
			Priority:     ticket.Priority,
			SLADueDate:   ticket.SLADueDate,
			Title:        ticket.Title,
		},
	})
	return ticket, nil
}

// SetPending pauses a ticket. A reason is mandatory. Re-entering pending is
// legal and may change only the reason; unchanged fields produce no history.
func (s *TicketService) SetPending(ctx context.Context, actorID, ticketID int64, reasonID *int64, changeReason *string) (*domain.Ticket, error) {
	if reasonID == nil {
		return nil, apperrors.NewMissingRequiredField("pending_reason_id")
	}

	var oldStatus domain.TicketStatus
	ticket, err := s.apply(ctx, ticketID, func(t *domain.Ticket) ([]domain.TicketHistory, error) {
		switch t.Status {
		case domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusPending:
		default:
			return nil, apperrors.NewInvalidTransition("cannot pause ticket in current status",
				map[string]any{"status": t.Status})
		}
		oldStatus = t.Status
		changes := []audit.Change{
			{Field: domain.FieldStatus, Old: audit.StatusValue(t.Status), New: audit.StatusValue(domain.TicketStatusPending)},
			{Field: domain.FieldPendingReason, Old: audit.IDValue(t.PendingReasonID), New: audit.IDValue(reasonID)},
		}
		t.Status = domain.TicketStatusPending
		t.PendingReasonID = reasonID
		return s.recorder.Record(t.ID, actorID, changeReason, changes), nil
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, actorID, ticket, oldStatus, changeReason)
	return ticket, nil
}

// Resume moves a pending ticket back to in_progress, clears the pending
// reason, and restarts the SLA clock from the current time.
func (s *TicketService) Resume(ctx context.Context, actorID, ticketID int64, changeReason *string) (*domain.Ticket, error) {
	var oldStatus domain.TicketStatus
	ticket, err := s.apply(ctx, ticketID, func(t *domain.Ticket) ([]domain.TicketHistory, error) {
		if t.Status != domain.TicketStatusPending {
			return nil, apperrors.NewInvalidTransition("resume requires a pending ticket",
				map[string]any{"status": t.Status})
		}
		customer, err := s.customers.GetByID(ctx, t.CustomerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": t.CustomerID})
			}
			return nil, apperrors.MapError(err)
		}

		oldStatus = t.Status
		newDue := sla.DueDate(s.clock(), customer.SLAHours)
		changes := []audit.Change{
			{Field: domain.FieldStatus, Old: audit.StatusValue(t.Status), New: audit.StatusValue(domain.TicketStatusInProgress)},
			{Field: domain.FieldSLADueDate, Old: audit.TimestampValue(t.SLADueDate), New: audit.TimestampValue(newDue)},
			{Field: domain.FieldPendingReason, Old: audit.IDValue(t.PendingReasonID), New: audit.IDValue(nil)},
		}
		t.Status = domain.TicketStatusInProgress
		t.PendingReasonID = nil
		t.SLADueDate = newDue
		return s.recorder.Record(t.ID, actorID, changeReason, changes), nil
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, actorID, ticket, oldStatus, changeReason)
	return ticket, nil
}

// Resolve marks active work finished. The resolution timestamp is set once
// and kept on later re-resolutions.
func (s *TicketService) Resolve(ctx context.Context, actorID, ticketID int64, changeReason *string) (*domain.Ticket, error) {
	var oldStatus domain.TicketStatus
	ticket, err := s.apply(ctx, ticketID, func(t *domain.Ticket) ([]domain.TicketHistory, error) {
		switch t.Status {
		case domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusPending:
		default:
			return nil, apperrors.NewInvalidTransition("cannot resolve ticket in current status",
				map[string]any{"status": t.Status})
		}
		oldStatus = t.Status
		changes := []audit.Change{
			{Field: domain.FieldStatus, Old: audit.StatusValue(t.Status), New: audit.StatusValue(domain.TicketStatusResolved)},
			{Field: domain.FieldPendingReason, Old: audit.IDValue(t.PendingReasonID), New: audit.IDValue(nil)},
		}
		if t.ResolvedAt == nil {
			now := s.clock()
			changes = append(changes, audit.Change{
				Field: domain.FieldResolvedAt, Old: audit.TimeValue(t.ResolvedAt), New: audit.TimestampValue(now),
			})
			t.ResolvedAt = &now
		}
		t.Status = domain.TicketStatusResolved
		t.PendingReasonID = nil
		return s.recorder.Record(t.ID, actorID, changeReason, changes), nil
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, actorID, ticket, oldStatus, changeReason)
	return ticket, nil
}

// Close terminates a ticket. Closing is permitted from any state, including
// closed: the state converges but every call appends a fresh status row,
// which multi-step closure workflows rely on. The closure timestamp is set
// once and kept on re-closure.
func (s *TicketService) Close(ctx context.Context, actorID, ticketID int64, reasonID *int64, changeReason *string) (*domain.Ticket, error) {
	var oldStatus domain.TicketStatus
	ticket, err := s.apply(ctx, ticketID, func(t *domain.Ticket) ([]domain.TicketHistory, error) {
		oldStatus = t.Status
		changes := []audit.Change{
			{Field: domain.FieldStatus, Old: audit.StatusValue(t.Status), New: audit.StatusValue(domain.TicketStatusClosed), Always: true},
			{Field: domain.FieldPendingReason, Old: audit.IDValue(t.PendingReasonID), New: audit.IDValue(nil)},
		}
		if reasonID != nil {
			changes = append(changes, audit.Change{
				Field: domain.FieldClosingReason, Old: audit.IDValue(t.ClosingReasonID), New: audit.IDValue(reasonID),
			})
			t.ClosingReasonID = reasonID
		}
		if t.ClosedAt == nil {
			now := s.clock()
			changes = append(changes, audit.Change{
				Field: domain.FieldClosedAt, Old: audit.TimeValue(t.ClosedAt), New: audit.TimestampValue(now),
			})
			t.ClosedAt = &now
		}
		t.Status = domain.TicketStatusClosed
		t.PendingReasonID = nil
		return s.recorder.Record(t.ID, actorID, changeReason, changes), nil
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, actorID, ticket, oldStatus, changeReason)
	return ticket, nil
}

// Schedule sets or replaces the informational scheduled date.
func (s *TicketService) Schedule(ctx context.Context, actorID, ticketID int64, scheduledDate time.Time, changeReason *string) (*domain.Ticket, error) {
	ticket, err := s.apply(ctx, ticketID, func(t *domain.Ticket) ([]domain.TicketHistory, error) {
		changes := []audit.Change{
			{Field: domain.FieldScheduledDate, Old: audit.TimeValue(t.ScheduledDate), New: audit.TimestampValue(scheduledDate)},
		}
		t.ScheduledDate = &scheduledDate
		return s.recorder.Record(t.ID, actorID, changeReason, changes), nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketScheduled,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload:  events.TicketScheduledPayload{ScheduledDate: scheduledDate},
	})
	return ticket, nil
}

// Assign sets or clears the assignee. The audit row belongs to the acting
// user in both directions.
func (s *TicketService) Assign(ctx context.Context, actorID, ticketID int64, assignee *int64, changeReason *string) (*domain.Ticket, error) {
	if assignee != nil {
		if err := s.validateAssignee(ctx, *assignee); err != nil {
			return nil, err
		}
	}

	ticket, err := s.apply(ctx, ticketID, func(t *domain.Ticket) ([]domain.TicketHistory, error) {
		changes := []audit.Change{
			{Field: domain.FieldAssignedTo, Old: audit.IDValue(t.AssignedTo), New: audit.IDValue(assignee)},
		}
		t.AssignedTo = assignee
		return s.recorder.Record(t.ID, actorID, changeReason, changes), nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload:  events.TicketAssignedPayload{AssignedTo: assignee},
	})
	return ticket, nil
}

// ListVisible returns tickets the actor may see, newest first. Admins,
// managers, and members of a view-all group see everything matching the
// filter; everyone else only tickets assigned to them.
func (s *TicketService) ListVisible(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		CustomerID:  filter.CustomerID,
		AssignedTo:  filter.AssignedTo,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	if !s.canViewAll(ctx, actor) {
		if filter.AssignedTo != nil && *filter.AssignedTo != actor.ID {
			return []domain.Ticket{}, nil
		}
		repoFilter.AssignedTo = &actor.ID
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// GetVisible fetches one ticket, enforcing the same visibility rule as
// ListVisible.
func (s *TicketService) GetVisible(ctx context.Context, actor *domain.User, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !s.canViewAll(ctx, actor) {
		if ticket.AssignedTo == nil || *ticket.AssignedTo != actor.ID {
			return nil, apperrors.NewForbidden("ticket not visible to actor")
		}
	}
	return ticket, nil
}

// ListHistory returns the audit trail for a visible ticket, oldest first.
func (s *TicketService) ListHistory(ctx context.Context, actor *domain.User, ticketID int64, limit, offset int) ([]domain.TicketHistory, error) {
	if _, err := s.GetVisible(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	return s.history.ListByTicket(ctx, ticketID, limit, offset)
}

func (s *TicketService) canViewAll(ctx context.Context, actor *domain.User) bool {
	if actor == nil {
		return false
	}
	if actor.HasElevatedRole() {
		return true
	}
	if actor.GroupID != nil {
		group, err := s.groups.GetByID(ctx, *actor.GroupID)
		if err == nil && group.ViewAll {
			return true
		}
	}
	return false
}

func (s *TicketService) apply(ctx context.Context, ticketID int64, fn repository.TicketMutator) (*domain.Ticket, error) {
	ticket, err := s.tickets.Apply(ctx, ticketID, fn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) validateAssignee(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewInvalidReference("assignee does not exist", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	if !user.IsActive {
		return apperrors.NewInvalidReference("assignee inactive", map[string]any{"user_id": userID})
	}
	return nil
}

func (s *TicketService) publishStatusChange(ctx context.Context, actorID int64, ticket *domain.Ticket, oldStatus domain.TicketStatus, changeReason *string) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus:    oldStatus,
			NewStatus:    ticket.Status,
			ChangeReason: changeReason,
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatch == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock()
	}
	_ = s.dispatch.Publish(ctx, event)
}

// generateTicketNumber combines a date component with a random suffix. The
// unique index on tickets.ticket_number is the authoritative guard; Create
// retries on collision.
func generateTicketNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "TKT-" + now.UTC().Format("20060102") + "-" + suffix
}
