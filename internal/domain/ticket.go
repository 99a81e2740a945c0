package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketPriority enumerates urgency. Priority carries no transition rules;
// it is an independent axis from status.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Ticket is the aggregate for trouble tickets. SLADueDate is always set: it
// is computed at creation and recomputed when the ticket resumes from
// pending. PendingReasonID is non-nil exactly when Status is pending.
// ResolvedAt and ClosedAt are set once and never cleared.
type Ticket struct {
	ID              int64
	TicketNumber    string
	CustomerID      int64
	AssignedTo      *int64
	CreatedBy       int64
	CaseID          *int64
	PendingReasonID *int64
	ClosingReasonID *int64
	Title           string
	Description     string
	Status          TicketStatus
	Priority        TicketPriority
	ScheduledDate   *time.Time
	SLADueDate      time.Time
	ResolvedAt      *time.Time
	ClosedAt        *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Overdue reports whether the ticket has blown past its SLA deadline while
// still in active work.
func (t *Ticket) Overdue(now time.Time) bool {
	if t.Status == TicketStatusResolved || t.Status == TicketStatusClosed {
		return false
	}
	return t.SLADueDate.Before(now)
}

// ResolvedWithinSLA reports whether the ticket was resolved before its
// deadline. Unresolved tickets report false.
func (t *Ticket) ResolvedWithinSLA() bool {
	return t.ResolvedAt != nil && !t.ResolvedAt.After(t.SLADueDate)
}
