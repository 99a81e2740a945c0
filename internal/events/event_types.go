package events

import (
	"time"

	"github.com/spec-kit/trouble-tickets/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketScheduled     EventType = "ticket_scheduled"
)

// Event represents a domain event emitted by the lifecycle engine. ActorID
// is the user on whose behalf the transition ran.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	ActorID   int64       `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	CustomerID   int64                 `json:"customer_id"`
	Priority     domain.TicketPriority `json:"priority"`
	SLADueDate   time.Time             `json:"sla_due_date"`
	Title        string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus    domain.TicketStatus `json:"old_status"`
	NewStatus    domain.TicketStatus `json:"new_status"`
	ChangeReason *string             `json:"change_reason,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedTo *int64 `json:"assigned_to,omitempty"`
}

// TicketScheduledPayload payload.
type TicketScheduledPayload struct {
	ScheduledDate time.Time `json:"scheduled_date"`
}
