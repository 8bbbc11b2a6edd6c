// Package invoices handles billing for repair tickets and counter sales.
// All monetary amounts are integer cents.
package invoices

import (
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("invoice not found")
	ErrNotDraft       = errors.New("invoice is not a draft")
	ErrNotIssued      = errors.New("invoice is not issued")
	ErrAlreadyVoid    = errors.New("invoice is void")
	ErrOverpayment    = errors.New("payment exceeds outstanding balance")
	ErrNoLines        = errors.New("invoice has no lines")
	ErrPaidInvoice    = errors.New("paid invoices cannot be voided")
	ErrInvalidPayment = errors.New("invalid payment amount")
)

type Status string

const (
	StatusDraft  Status = "draft"
	StatusIssued Status = "issued"
	StatusPaid   Status = "paid"
	StatusVoid   Status = "void"
)

type PaymentMethod string

const (
	MethodCash PaymentMethod = "cash"
	MethodCard PaymentMethod = "card"
)

type Invoice struct {
	ID            int64      `json:"id"`
	Number        string     `json:"number"`
	CompanyID     int64      `json:"company_id"`
	LocationID    int64      `json:"location_id"`
	CustomerID    int64      `json:"customer_id"`
	TicketID      *int64     `json:"ticket_id,omitempty"`
	Status        Status     `json:"status"`
	Currency      string     `json:"currency"`
	SubtotalCents int64      `json:"subtotal_cents"`
	TaxCents      int64      `json:"tax_cents"`
	TotalCents    int64      `json:"total_cents"`
	PaidCents     int64      `json:"paid_cents"`
	TaxRateBps    int32      `json:"tax_rate_bps"`
	CreatedBy     int64      `json:"created_by"`
	IssuedAt      *time.Time `json:"issued_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Lines    []Line    `json:"lines,omitempty"`
	Payments []Payment `json:"payments,omitempty"`
}

func (inv *Invoice) OutstandingCents() int64 {
	return inv.TotalCents - inv.PaidCents
}

type Line struct {
	ID             int64  `json:"id"`
	InvoiceID      int64  `json:"invoice_id"`
	Description    string `json:"description"`
	Quantity       int32  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	AmountCents    int64  `json:"amount_cents"`
	PartID         *int64 `json:"part_id,omitempty"`
}

type Payment struct {
	ID          int64         `json:"id"`
	InvoiceID   int64         `json:"invoice_id"`
	Method      PaymentMethod `json:"method"`
	AmountCents int64         `json:"amount_cents"`
	ReceivedBy  int64         `json:"received_by"`
	ReceivedAt  time.Time     `json:"received_at"`
}

type CreateInvoiceRequest struct {
	CustomerID int64  `json:"customer_id" validate:"required"`
	LocationID int64  `json:"location_id" validate:"required"`
	TicketID   *int64 `json:"ticket_id"`
	TaxRateBps int32  `json:"tax_rate_bps" validate:"gte=0,lte=5000"`
}

type LineRequest struct {
	Description    string `json:"description" validate:"required,max=500"`
	Quantity       int32  `json:"quantity" validate:"required,gt=0"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"gte=0"`
	PartID         *int64 `json:"part_id"`
}

type PaymentRequest struct {
	Method      string `json:"method" validate:"required,oneof=cash card"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
}

type ListFilter struct {
	Status     Status
	CustomerID *int64
	Limit      int
	Offset     int
}
