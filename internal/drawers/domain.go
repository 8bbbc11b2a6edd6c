// Package drawers manages cash drawer sessions per shop location.
// Amounts are integer cents.
package drawers

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("drawer not found")
	ErrAlreadyOpen   = errors.New("location already has an open drawer")
	ErrNotOpen       = errors.New("drawer is not open")
	ErrNoOpenDrawer  = errors.New("no open drawer at location")
	ErrInvalidAmount = errors.New("invalid amount")
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

type EntryType string

const (
	EntrySale    EntryType = "sale"
	EntryCashIn  EntryType = "cash_in"
	EntryCashOut EntryType = "cash_out"
)

type Drawer struct {
	ID             int64      `json:"id"`
	CompanyID      int64      `json:"company_id"`
	LocationID     int64      `json:"location_id"`
	Status         Status     `json:"status"`
	FloatCents     int64      `json:"float_cents"`
	ExpectedCents  int64      `json:"expected_cents"`
	CountedCents   *int64     `json:"counted_cents,omitempty"`
	OverShortCents *int64     `json:"over_short_cents,omitempty"`
	OpenedBy       int64      `json:"opened_by"`
	ClosedBy       *int64     `json:"closed_by,omitempty"`
	OpenedAt       time.Time  `json:"opened_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	FlaggedStale   bool       `json:"flagged_stale"`
}

type Entry struct {
	ID          int64     `json:"id"`
	DrawerID    int64     `json:"drawer_id"`
	Type        EntryType `json:"type"`
	AmountCents int64     `json:"amount_cents"`
	Reference   string    `json:"reference,omitempty"`
	Note        string    `json:"note,omitempty"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type OpenRequest struct {
	LocationID int64 `json:"location_id" validate:"required"`
	FloatCents int64 `json:"float_cents" validate:"gte=0"`
}

type EntryRequest struct {
	Type        string `json:"type" validate:"required,oneof=cash_in cash_out"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Note        string `json:"note" validate:"omitempty,max=500"`
}

type CloseRequest struct {
	CountedCents int64 `json:"counted_cents" validate:"gte=0"`
}
