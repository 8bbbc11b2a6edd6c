// Package tickets implements the repair ticket lifecycle.
package tickets

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("ticket not found")
	ErrInvalidTransition = errors.New("illegal status transition")
	ErrTicketFinal       = errors.New("ticket is closed or cancelled")
)

type Status string

const (
	StatusNew           Status = "new"
	StatusDiagnosing    Status = "diagnosing"
	StatusAwaitingParts Status = "awaiting_parts"
	StatusRepaired      Status = "repaired"
	StatusClosed        Status = "closed"
	StatusCancelled     Status = "cancelled"
)

// legalTransitions defines the forward lifecycle. Cancellation is allowed
// from any non-final state.
var legalTransitions = map[Status][]Status{
	StatusNew:           {StatusDiagnosing, StatusCancelled},
	StatusDiagnosing:    {StatusAwaitingParts, StatusRepaired, StatusCancelled},
	StatusAwaitingParts: {StatusDiagnosing, StatusRepaired, StatusCancelled},
	StatusRepaired:      {StatusClosed, StatusDiagnosing, StatusCancelled},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) IsFinal() bool {
	return s == StatusClosed || s == StatusCancelled
}

type Ticket struct {
	ID            int64      `json:"id"`
	Number        string     `json:"number"`
	CompanyID     int64      `json:"company_id"`
	LocationID    int64      `json:"location_id"`
	CustomerID    int64      `json:"customer_id"`
	AssigneeID    *int64     `json:"assignee_id,omitempty"`
	Status        Status     `json:"status"`
	DeviceType    string     `json:"device_type"`
	DeviceBrand   *string    `json:"device_brand,omitempty"`
	DeviceModel   *string    `json:"device_model,omitempty"`
	DeviceSerial  *string    `json:"device_serial,omitempty"`
	ReportedIssue string     `json:"reported_issue"`
	Diagnosis     *string    `json:"diagnosis,omitempty"`
	CreatedBy     int64      `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
}

type Comment struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateTicketRequest struct {
	CustomerID    int64   `json:"customer_id" validate:"required"`
	LocationID    int64   `json:"location_id" validate:"required"`
	DeviceType    string  `json:"device_type" validate:"required,max=100"`
	DeviceBrand   *string `json:"device_brand" validate:"omitempty,max=100"`
	DeviceModel   *string `json:"device_model" validate:"omitempty,max=100"`
	DeviceSerial  *string `json:"device_serial" validate:"omitempty,max=100"`
	ReportedIssue string  `json:"reported_issue" validate:"required,max=2000"`
}

type TransitionRequest struct {
	Status    string  `json:"status" validate:"required"`
	Diagnosis *string `json:"diagnosis" validate:"omitempty,max=2000"`
}

type CommentRequest struct {
	Body     string `json:"body" validate:"required,max=2000"`
	Internal bool   `json:"internal"`
}

type ListFilter struct {
	Status     Status
	AssigneeID *int64
	CustomerID *int64
	LocationID *int64
	Limit      int
	Offset     int
}
