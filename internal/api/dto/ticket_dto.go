package dto

import (
	"time"

	"github.com/spec-kit/trouble-tickets/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CustomerID    int64                 `json:"customer_id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Priority      domain.TicketPriority `json:"priority"`
	AssignedTo    *int64                `json:"assigned_to"`
	CaseID        *int64                `json:"case_id"`
	ScheduledDate *time.Time            `json:"scheduled_date"`
}

// SetPendingRequest payload.
type SetPendingRequest struct {
	ReasonID     *int64  `json:"reason_id"`
	ChangeReason *string `json:"change_reason"`
}

// ResumeRequest payload.
type ResumeRequest struct {
	ChangeReason *string `json:"change_reason"`
}

// ResolveRequest payload.
type ResolveRequest struct {
	ChangeReason *string `json:"change_reason"`
}

// CloseRequest payload.
type CloseRequest struct {
	ReasonID     *int64  `json:"reason_id"`
	ChangeReason *string `json:"change_reason"`
}

// ScheduleRequest payload.
type ScheduleRequest struct {
	ScheduledDate time.Time `json:"scheduled_date"`
	ChangeReason  *string   `json:"change_reason"`
}

// AssignRequest payload. A nil AssignedTo unassigns the ticket.
type AssignRequest struct {
	AssignedTo   *int64  `json:"assigned_to"`
	ChangeReason *string `json:"change_reason"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID              int64                 `json:"id"`
	TicketNumber    string                `json:"ticket_number"`
	CustomerID      int64                 `json:"customer_id"`
	AssignedTo      *int64                `json:"assigned_to"`
	CreatedBy       int64                 `json:"created_by"`
	CaseID          *int64                `json:"case_id"`
	PendingReasonID *int64                `json:"pending_reason_id"`
	ClosingReasonID *int64                `json:"closing_reason_id"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	ScheduledDate   *time.Time            `json:"scheduled_date"`
	SLADueDate      time.Time             `json:"sla_due_date"`
	ResolvedAt      *time.Time            `json:"resolved_at"`
	ClosedAt        *time.Time            `json:"closed_at"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// TicketHistoryResponse is one audit trail entry.
type TicketHistoryResponse struct {
	ID           int64              `json:"id"`
	ChangedBy    int64              `json:"changed_by"`
	Field        domain.TicketField `json:"field_name"`
	OldValue     *string            `json:"old_value"`
	NewValue     *string            `json:"new_value"`
	ChangeReason *string            `json:"change_reason"`
	CreatedAt    time.Time          `json:"created_at"`
}
