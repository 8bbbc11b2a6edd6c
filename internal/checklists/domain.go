// Package checklists manages diagnostic checklist templates and the
// per-ticket responses recorded against them.
package checklists

import (
	"errors"
	"time"
)

var (
	ErrTemplateNotFound = errors.New("checklist template not found")
	ErrResponseNotFound = errors.New("checklist response not found")
	ErrUnknownItem      = errors.New("item does not belong to template")
	ErrInvalidResult    = errors.New("invalid item result")
)

type Result string

const (
	ResultPass Result = "pass"
	ResultFail Result = "fail"
	ResultNA   Result = "na"
)

func (r Result) Valid() bool {
	return r == ResultPass || r == ResultFail || r == ResultNA
}

type Template struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	Items     []Item    `json:"items,omitempty"`
}

type Item struct {
	ID         int64  `json:"id"`
	TemplateID int64  `json:"template_id"`
	Position   int32  `json:"position"`
	Label      string `json:"label"`
}

// Response is one filled-in checklist for a ticket.
type Response struct {
	ID         int64        `json:"id"`
	TemplateID int64        `json:"template_id"`
	TicketID   int64        `json:"ticket_id"`
	CompanyID  int64        `json:"company_id"`
	FilledBy   int64        `json:"filled_by"`
	CreatedAt  time.Time    `json:"created_at"`
	Answers    []ItemAnswer `json:"answers,omitempty"`
}

type ItemAnswer struct {
	ItemID int64  `json:"item_id"`
	Result Result `json:"result"`
	Note   string `json:"note,omitempty"`
}

type CreateTemplateRequest struct {
	Name  string   `json:"name" validate:"required,max=255"`
	Items []string `json:"items" validate:"required,min=1,dive,required,max=255"`
}

type FillRequest struct {
	TemplateID int64           `json:"template_id" validate:"required"`
	Answers    []AnswerRequest `json:"answers" validate:"required,min=1,dive"`
}

type AnswerRequest struct {
	ItemID int64  `json:"item_id" validate:"required"`
	Result string `json:"result" validate:"required,oneof=pass fail na"`
	Note   string `json:"note" validate:"omitempty,max=500"`
}
