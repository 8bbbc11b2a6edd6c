package invoices

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// CashSink receives cash payments so the active drawer can record them.
// Card payments never reach the drawer.
type CashSink interface {
	RecordSale(ctx context.Context, companyID, locationID, userID int64, invoiceNumber string, amountCents int64) error
}

type Service struct {
	repo   Repository
	cash   CashSink
	logger *slog.Logger
}

func NewService(repo Repository, cash CashSink, logger *slog.Logger) *Service {
	return &Service{repo: repo, cash: cash, logger: logger}
}

func (s *Service) Create(ctx context.Context, companyID, actorID int64, currency string, req CreateInvoiceRequest) (*Invoice, error) {
	inv := &Invoice{
		CompanyID:  companyID,
		LocationID: req.LocationID,
		CustomerID: req.CustomerID,
		TicketID:   req.TicketID,
		Status:     StatusDraft,
		Currency:   currency,
		TaxRateBps: req.TaxRateBps,
		CreatedBy:  actorID,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID int64, filter ListFilter) ([]Invoice, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, companyID, filter)
}

func (s *Service) AddLine(ctx context.Context, companyID, invoiceID int64, req LineRequest) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusDraft {
		return nil, ErrNotDraft
	}
	line := Line{
		InvoiceID:      inv.ID,
		Description:    req.Description,
		Quantity:       req.Quantity,
		UnitPriceCents: req.UnitPriceCents,
		AmountCents:    int64(req.Quantity) * req.UnitPriceCents,
		PartID:         req.PartID,
	}
	inv.Lines = append(inv.Lines, line)
	recalc(inv)
	if err := s.repo.AddLine(ctx, inv, &inv.Lines[len(inv.Lines)-1]); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) RemoveLine(ctx context.Context, companyID, invoiceID, lineID int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusDraft {
		return nil, ErrNotDraft
	}
	kept := inv.Lines[:0]
	found := false
	for _, l := range inv.Lines {
		if l.ID == lineID {
			found = true
			continue
		}
		kept = append(kept, l)
	}
	if !found {
		return nil, ErrNotFound
	}
	inv.Lines = kept
	recalc(inv)
	if err := s.repo.RemoveLine(ctx, inv, lineID); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) Issue(ctx context.Context, companyID, invoiceID int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusDraft {
		return nil, ErrNotDraft
	}
	if len(inv.Lines) == 0 {
		return nil, ErrNoLines
	}
	now := time.Now().UTC()
	inv.Status = StatusIssued
	inv.IssuedAt = &now
	if err := s.repo.UpdateStatus(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) Void(ctx context.Context, companyID, invoiceID int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	switch inv.Status {
	case StatusVoid:
		return nil, ErrAlreadyVoid
	case StatusPaid:
		return nil, ErrPaidInvoice
	}
	inv.Status = StatusVoid
	if err := s.repo.UpdateStatus(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) Pay(ctx context.Context, companyID, invoiceID, actorID int64, req PaymentRequest) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusIssued {
		return nil, ErrNotIssued
	}
	if req.AmountCents <= 0 {
		return nil, ErrInvalidPayment
	}
	if req.AmountCents > inv.OutstandingCents() {
		return nil, ErrOverpayment
	}

	p := Payment{
		InvoiceID:   inv.ID,
		Method:      PaymentMethod(req.Method),
		AmountCents: req.AmountCents,
		ReceivedBy:  actorID,
	}
	inv.PaidCents += p.AmountCents
	if inv.OutstandingCents() == 0 {
		inv.Status = StatusPaid
	}
	if err := s.repo.AddPayment(ctx, inv, &p); err != nil {
		return nil, err
	}
	inv.Payments = append(inv.Payments, p)

	if p.Method == MethodCash && s.cash != nil {
		if err := s.cash.RecordSale(ctx, inv.CompanyID, inv.LocationID, actorID, inv.Number, p.AmountCents); err != nil {
			s.logger.Warn("record cash sale", slog.Any("error", err), slog.String("invoice", inv.Number))
		}
	}
	return inv, nil
}

// recalc recomputes totals from lines. Tax rounds half-up on the subtotal,
// not per line.
func recalc(inv *Invoice) {
	var subtotal int64
	for _, l := range inv.Lines {
		subtotal += l.AmountCents
	}
	inv.SubtotalCents = subtotal
	inv.TaxCents = (subtotal*int64(inv.TaxRateBps) + 5000) / 10000
	inv.TotalCents = inv.SubtotalCents + inv.TaxCents
}
