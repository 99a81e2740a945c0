package domain

import "time"

// TicketField identifies an audited ticket attribute. History rows reference
// fields through this closed set rather than free-form strings.
type TicketField string

const (
	FieldStatus        TicketField = "status"
	FieldPendingReason TicketField = "pending_reason_id"
	FieldClosingReason TicketField = "closing_reason_id"
	FieldAssignedTo    TicketField = "assigned_to"
	FieldScheduledDate TicketField = "scheduled_date"
	FieldSLADueDate    TicketField = "sla_due_date"
	FieldResolvedAt    TicketField = "resolved_at"
	FieldClosedAt      TicketField = "closed_at"
)

// TicketHistory is an immutable audit trail entry recording one field change
// on one ticket. Rows are append-only; ordering by CreatedAt (then insertion
// order) reconstructs the full timeline. Old and new values are canonical
// string serializations and may be nil.
type TicketHistory struct {
	ID           int64
	TicketID     int64
	ChangedBy    int64
	Field        TicketField
	OldValue     *string
	NewValue     *string
	ChangeReason *string
	CreatedAt    time.Time
}
