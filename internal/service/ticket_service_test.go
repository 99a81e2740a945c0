package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/trouble-tickets/internal/domain"
	"github.com/spec-kit/trouble-tickets/internal/repository"
	apperrors "github.com/spec-kit/trouble-tickets/pkg/util"
)

// fakeTicketRepo keeps tickets and history in memory. Apply mirrors the
// transactional contract: the mutator runs on a copy, and a mutator error
// leaves both the ticket and the history untouched.
type fakeTicketRepo struct {
	tickets    map[int64]*domain.Ticket
	history    []domain.TicketHistory
	nextID     int64
	createErrs []error
	creates    int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[int64]*domain.Ticket{}, nextID: 1}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.creates++
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	ticket.ID = f.nextID
	f.nextID++
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	f.tickets[ticket.ID] = &copied
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (f *fakeTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	for _, ticket := range f.tickets {
		if ticket.TicketNumber == number {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) Apply(_ context.Context, id int64, fn repository.TicketMutator) (*domain.Ticket, error) {
	stored, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	working := *stored
	rows, err := fn(&working)
	if err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now()
	f.tickets[id] = &working
	f.history = append(f.history, rows...)
	result := working
	return &result, nil
}

func (f *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range f.tickets {
		if filter.AssignedTo != nil {
			if ticket.AssignedTo == nil || *ticket.AssignedTo != *filter.AssignedTo {
				continue
			}
		}
		if filter.CustomerID != nil && ticket.CustomerID != *filter.CustomerID {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (f *fakeTicketRepo) CollectStats(_ context.Context, now time.Time) (*repository.TicketStats, error) {
	stats := &repository.TicketStats{ByStatus: map[domain.TicketStatus]int64{}}
	for _, ticket := range f.tickets {
		stats.Total++
		stats.ByStatus[ticket.Status]++
		if ticket.Overdue(now) {
			stats.Overdue++
		}
		if ticket.ResolvedAt != nil {
			if ticket.ResolvedWithinSLA() {
				stats.ResolvedWithinSLA++
			} else {
				stats.ResolvedBreached++
			}
		}
	}
	return stats, nil
}

func (f *fakeTicketRepo) historyFor(ticketID int64) []domain.TicketHistory {
	var rows []domain.TicketHistory
	for _, entry := range f.history {
		if entry.TicketID == ticketID {
			rows = append(rows, entry)
		}
	}
	return rows
}

type fakeHistoryRepo struct {
	tickets *fakeTicketRepo
}

func (f *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID int64, limit, offset int) ([]domain.TicketHistory, error) {
	rows := f.tickets.historyFor(ticketID)
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

type fakeCustomerRepo struct {
	customers map[int64]*domain.Customer
}

func (f *fakeCustomerRepo) Create(_ context.Context, customer *domain.Customer) error {
	customer.ID = int64(len(f.customers) + 1)
	f.customers[customer.ID] = customer
	return nil
}

func (f *fakeCustomerRepo) Update(_ context.Context, customer *domain.Customer) error {
	f.customers[customer.ID] = customer
	return nil
}

func (f *fakeCustomerRepo) GetByID(_ context.Context, id int64) (*domain.Customer, error) {
	customer, ok := f.customers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return customer, nil
}

func (f *fakeCustomerRepo) List(_ context.Context, _ repository.CustomerFilter) ([]domain.Customer, error) {
	var result []domain.Customer
	for _, customer := range f.customers {
		result = append(result, *customer)
	}
	return result, nil
}

type fakeUserRepo struct {
	users map[int64]*domain.User
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = int64(len(f.users) + 1)
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeGroupRepo struct {
	groups map[int64]*domain.Group
}

func (f *fakeGroupRepo) Create(_ context.Context, group *domain.Group) error {
	group.ID = int64(len(f.groups) + 1)
	f.groups[group.ID] = group
	return nil
}

func (f *fakeGroupRepo) GetByID(_ context.Context, id int64) (*domain.Group, error) {
	group, ok := f.groups[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return group, nil
}

func (f *fakeGroupRepo) List(_ context.Context) ([]domain.Group, error) {
	var result []domain.Group
	for _, group := range f.groups {
		result = append(result, *group)
	}
	return result, nil
}

type fixture struct {
	service   *TicketService
	tickets   *fakeTicketRepo
	customers *fakeCustomerRepo
	users     *fakeUserRepo
	groups    *fakeGroupRepo
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tickets:   newFakeTicketRepo(),
		customers: &fakeCustomerRepo{customers: map[int64]*domain.Customer{}},
		users:     &fakeUserRepo{users: map[int64]*domain.User{}},
		groups:    &fakeGroupRepo{groups: map[int64]*domain.Group{}},
		now:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.service = NewTicketService(TicketDependencies{
		TicketRepo:   f.tickets,
		HistoryRepo:  &fakeHistoryRepo{tickets: f.tickets},
		CustomerRepo: f.customers,
		UserRepo:     f.users,
		GroupRepo:    f.groups,
		Clock:        func() time.Time { return f.now },
	})

	f.customers.customers[1] = &domain.Customer{ID: 1, Name: "Acme", Email: "ops@acme.test", SLAHours: 24, IsActive: true}
	f.users.users[1] = &domain.User{ID: 1, Name: "Agent", Email: "agent@test", Role: domain.UserRoleAgent, IsActive: true}
	f.users.users[2] = &domain.User{ID: 2, Name: "Admin", Email: "admin@test", Role: domain.UserRoleAdmin, IsActive: true}
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) mustCreate(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket, err := f.service.Create(context.Background(), 1, TicketCreateInput{
		CustomerID: 1,
		Title:      "printer on fire",
		Priority:   domain.TicketPriorityHigh,
	})
	require.NoError(t, err)
	return ticket
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestCreateComputesSLADeadline(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)

	require.Equal(t, domain.TicketStatusOpen, ticket.Status)
	require.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), ticket.SLADueDate)
	require.True(t, strings.HasPrefix(ticket.TicketNumber, "TKT-20240101-"), "got %q", ticket.TicketNumber)
	require.Nil(t, ticket.PendingReasonID)
	require.Empty(t, f.tickets.historyFor(ticket.ID), "creation must not write history")
}

func TestCreateRejectsInactiveCustomer(t *testing.T) {
	f := newFixture(t)
	f.customers.customers[1].IsActive = false

	_, err := f.service.Create(context.Background(), 1, TicketCreateInput{CustomerID: 1, Title: "x"})
	require.Equal(t, "INVALID_REFERENCE", domainCode(t, err))
}

func TestCreateRetriesTicketNumberCollision(t *testing.T) {
	f := newFixture(t)
	f.tickets.createErrs = []error{&pgconn.PgError{Code: "23505", ConstraintName: "tickets_ticket_number_key"}}

	ticket := f.mustCreate(t)
	require.NotZero(t, ticket.ID)
	require.Equal(t, 2, f.tickets.creates)
}

func TestSetPendingRequiresReason(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)

	_, err := f.service.SetPending(context.Background(), 1, ticket.ID, nil, nil)
	require.Equal(t, "MISSING_REQUIRED_FIELD", domainCode(t, err))
	require.Empty(t, f.tickets.historyFor(ticket.ID))
}

func TestSetPendingRecordsStatusAndReason(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)
	reasonID := int64(7)
	note := "waiting on vendor"

	updated, err := f.service.SetPending(context.Background(), 1, ticket.ID, &reasonID, &note)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusPending, updated.Status)
	require.Equal(t, &reasonID, updated.PendingReasonID)

	rows := f.tickets.historyFor(ticket.ID)
	require.Len(t, rows, 2)
	require.Equal(t, domain.FieldStatus, rows[0].Field)
	require.Equal(t, "open", *rows[0].OldValue)
	require.Equal(t, "pending", *rows[0].NewValue)
	require.Equal(t, domain.FieldPendingReason, rows[1].Field)
	require.Nil(t, rows[1].OldValue)
	require.Equal(t, "7", *rows[1].NewValue)
	// one mutation, one timestamp
	require.Equal(t, rows[0].CreatedAt, rows[1].CreatedAt)
	require.Equal(t, int64(1), rows[0].ChangedBy)
	require.Equal(t, &note, rows[0].ChangeReason)
}

func TestSetPendingSuppressesNoOpReentry(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)
	reasonID := int64(7)

	_, err := f.service.SetPending(context.Background(), 1, ticket.ID, &reasonID, nil)
	require.NoError(t, err)
	before := len(f.tickets.historyFor(ticket.ID))

	_, err = f.service.SetPending(context.Background(), 1, ticket.ID, &reasonID, nil)
	require.NoError(t, err)
	require.Len(t, f.tickets.historyFor(ticket.ID), before, "unchanged fields must not append rows")
}

func TestSetPendingReentryWithNewReasonRecordsReasonOnly(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)
	first, second := int64(7), int64(9)

	_, err := f.service.SetPending(context.Background(), 1, ticket.ID, &first, nil)
	require.NoError(t, err)
	before := len(f.tickets.historyFor(ticket.ID))

	_, err = f.service.SetPending(context.Background(), 1, ticket.ID, &second, nil)
	require.NoError(t, err)

	rows := f.tickets.historyFor(ticket.ID)
	require.Len(t, rows, before+1)
	last := rows[len(rows)-1]
	require.Equal(t, domain.FieldPendingReason, last.Field)
	require.Equal(t, "7", *last.OldValue)
	require.Equal(t, "9", *last.NewValue)
}

func TestResumeRestartsSLAClock(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)
	reasonID := int64(7)
	_, err := f.service.SetPending(context.Background(), 1, ticket.ID, &reasonID, nil)
	require.NoError(t, err)
	before := len(f.tickets.historyFor(ticket.ID))

	f.advance(48 * time.Hour)
	updated, err := f.service.Resume(context.Background(), 1, ticket.ID, nil)
	require.NoError(t, err)

	require.Equal(t, domain.TicketStatusInProgress, updated.Status)
	require.Nil(t, updated.PendingReasonID)
	require.Equal(t, f.now.Add(24*time.Hour), updated.SLADueDate, "deadline restarts from resume time")

	rows := f.tickets.historyFor(ticket.ID)
	require.Len(t, rows, before+3, "status, sla_due_date, and pending_reason each get a row")
}

func TestResumeRejectsNonPendingTicket(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)

	_, err := f.service.Resume(context.Background(), 1, ticket.ID, nil)
	require.Equal(t, "INVALID_TRANSITION", domainCode(t, err))

	// failed mutation must leave no trace
	stored, err := f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusOpen, stored.Status)
	require.Empty(t, f.tickets.historyFor(ticket.ID))
}

func TestResolveSetsTimestampOnce(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)

	f.advance(2 * time.Hour)
	updated, err := f.service.Resolve(context.Background(), 1, ticket.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.ResolvedAt)
	require.Equal(t, f.now, *updated.ResolvedAt)
	require.True(t, updated.ResolvedWithinSLA())
}

func TestResolveRejectsClosedTicket(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)
	_, err := f.service.Close(context.Background(), 1, ticket.ID, nil, nil)
	require.NoError(t, err)

	_, err = f.service.Resolve(context.Background(), 1, ticket.ID, nil)
	require.Equal(t, "INVALID_TRANSITION", domainCode(t, err))
}

func TestCloseIsIdempotentButAlwaysAudited(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)

	first, err := f.service.Close(context.Background(), 1, ticket.ID, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, first.ClosedAt)
	firstClosedAt := *first.ClosedAt

	f.advance(time.Hour)
	second, err := f.service.Close(context.Background(), 1, ticket.ID, nil, nil)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusClosed, second.Status)
	require.Equal(t, firstClosedAt, *second.ClosedAt, "closure timestamp is set once")

	var statusRows []domain.TicketHistory
	for _, row := range f.tickets.historyFor(ticket.ID) {
		if row.Field == domain.FieldStatus {
			statusRows = append(statusRows, row)
		}
	}
	require.Len(t, statusRows, 2, "every close appends a status row")
	require.Equal(t, "closed", *statusRows[1].OldValue)
	require.Equal(t, "closed", *statusRows[1].NewValue)
}

func TestCloseClearsPendingReason(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)
	reasonID := int64(7)
	_, err := f.service.SetPending(context.Background(), 1, ticket.ID, &reasonID, nil)
	require.NoError(t, err)

	closed, err := f.service.Close(context.Background(), 1, ticket.ID, nil, nil)
	require.NoError(t, err)
	require.Nil(t, closed.PendingReasonID, "pending reason only exists on pending tickets")
}

func TestCloseRecordsClosingReason(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)
	reasonID := int64(3)

	closed, err := f.service.Close(context.Background(), 1, ticket.ID, &reasonID, nil)
	require.NoError(t, err)
	require.Equal(t, &reasonID, closed.ClosingReasonID)
}

func TestAssignValidatesAssignee(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)

	missing := int64(99)
	_, err := f.service.Assign(context.Background(), 1, ticket.ID, &missing, nil)
	require.Equal(t, "INVALID_REFERENCE", domainCode(t, err))

	f.users.users[3] = &domain.User{ID: 3, Role: domain.UserRoleAgent, IsActive: false}
	inactive := int64(3)
	_, err = f.service.Assign(context.Background(), 1, ticket.ID, &inactive, nil)
	require.Equal(t, "INVALID_REFERENCE", domainCode(t, err))
}

func TestAssignAndUnassignAuditActingUser(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)
	assignee := int64(2)

	_, err := f.service.Assign(context.Background(), 1, ticket.ID, &assignee, nil)
	require.NoError(t, err)
	_, err = f.service.Assign(context.Background(), 1, ticket.ID, nil, nil)
	require.NoError(t, err)

	rows := f.tickets.historyFor(ticket.ID)
	require.Len(t, rows, 2)
	require.Equal(t, "2", *rows[0].NewValue)
	require.Nil(t, rows[1].NewValue)
	for _, row := range rows {
		require.Equal(t, int64(1), row.ChangedBy, "unassignment is attributed to the actor, not the removed assignee")
	}
}

func TestScheduleRecordsDate(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)
	when := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)

	updated, err := f.service.Schedule(context.Background(), 1, ticket.ID, when, nil)
	require.NoError(t, err)
	require.Equal(t, &when, updated.ScheduledDate)

	rows := f.tickets.historyFor(ticket.ID)
	require.Len(t, rows, 1)
	require.Equal(t, domain.FieldScheduledDate, rows[0].Field)
}

func TestOperationsOnMissingTicketReturnNotFound(t *testing.T) {
	f := newFixture(t)
	reasonID := int64(1)

	_, err := f.service.SetPending(context.Background(), 1, 999, &reasonID, nil)
	require.Equal(t, "NOT_FOUND", domainCode(t, err))
	_, err = f.service.Close(context.Background(), 1, 999, nil, nil)
	require.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestVisibilityScopesAgentToAssignedTickets(t *testing.T) {
	f := newFixture(t)
	agentID := int64(1)
	mine := f.mustCreate(t)
	other := f.mustCreate(t)
	_, err := f.service.Assign(context.Background(), 2, mine.ID, &agentID, nil)
	require.NoError(t, err)

	agent := f.users.users[1]
	admin := f.users.users[2]

	visible, err := f.service.ListVisible(context.Background(), agent, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Equal(t, mine.ID, visible[0].ID)

	all, err := f.service.ListVisible(context.Background(), admin, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	// an agent asking for someone else's queue gets nothing rather than a leak
	adminID := int64(2)
	leaked, err := f.service.ListVisible(context.Background(), agent, TicketListFilter{AssignedTo: &adminID})
	require.NoError(t, err)
	require.Empty(t, leaked)

	_, err = f.service.GetVisible(context.Background(), agent, other.ID)
	require.Equal(t, "FORBIDDEN", domainCode(t, err))
}

func TestViewAllGroupGrantsFullVisibility(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t)
	f.groups.groups[1] = &domain.Group{ID: 1, Name: "support-leads", ViewAll: true}
	groupID := int64(1)
	scoped := &domain.User{ID: 5, Role: domain.UserRoleAgent, GroupID: &groupID, IsActive: true}
	f.users.users[5] = scoped

	visible, err := f.service.ListVisible(context.Background(), scoped, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
}

func TestListHistoryEnforcesVisibility(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)
	reasonID := int64(7)
	_, err := f.service.SetPending(context.Background(), 2, ticket.ID, &reasonID, nil)
	require.NoError(t, err)

	agent := f.users.users[1]
	_, err = f.service.ListHistory(context.Background(), agent, ticket.ID, 100, 0)
	require.Equal(t, "FORBIDDEN", domainCode(t, err))

	admin := f.users.users[2]
	rows, err := f.service.ListHistory(context.Background(), admin, ticket.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestApplyErrorIsNotSwallowed(t *testing.T) {
	f := newFixture(t)
	ticket := f.mustCreate(t)

	boom := errors.New("disk on fire")
	_, err := f.tickets.Apply(context.Background(), ticket.ID, func(t *domain.Ticket) ([]domain.TicketHistory, error) {
		t.Status = domain.TicketStatusClosed
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusOpen, stored.Status, "aborted mutation must not persist")
}
