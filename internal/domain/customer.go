package domain

import "time"

// Customer is the party tickets are opened for. SLAHours is the contractual
// response window used to compute each ticket's deadline.
type Customer struct {
	ID        int64
	Name      string
	Email     string
	SLAHours  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
