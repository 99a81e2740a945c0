package domain

import "time"

// ReasonKind separates the two reason master-data tables.
type ReasonKind string

const (
	ReasonKindPending ReasonKind = "pending"
	ReasonKindClosing ReasonKind = "closing"
)

// Reason is a master-data record referenced by tickets when they are paused
// or closed.
type Reason struct {
	ID        int64
	Kind      ReasonKind
	Label     string
	IsActive  bool
	CreatedAt time.Time
}

// Case is an optional master-data classification a ticket may reference.
type Case struct {
	ID          int64
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}
