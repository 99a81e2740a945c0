package dto

import "time"

// CreateCustomerRequest payload.
type CreateCustomerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	SLAHours int    `json:"sla_hours"`
}

// CustomerResponse representation.
type CustomerResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	SLAHours int    `json:"sla_hours"`
	IsActive bool   `json:"is_active"`
}

// CreateCaseRequest payload.
type CreateCaseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CaseResponse representation.
type CaseResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// CreateReasonRequest payload.
type CreateReasonRequest struct {
	Label string `json:"label"`
}

// ReasonResponse representation.
type ReasonResponse struct {
	ID       int64  `json:"id"`
	Label    string `json:"label"`
	IsActive bool   `json:"is_active"`
}

// CreateGroupRequest payload.
type CreateGroupRequest struct {
	Name    string `json:"name"`
	ViewAll bool   `json:"view_all"`
}

// GroupResponse representation.
type GroupResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ViewAll   bool      `json:"view_all"`
	CreatedAt time.Time `json:"created_at"`
}
