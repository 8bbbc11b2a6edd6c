package drawers

import (
	"context"
	"log/slog"
	"time"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Open(ctx context.Context, companyID, userID int64, req OpenRequest) (*Drawer, error) {
	if req.FloatCents < 0 {
		return nil, ErrInvalidAmount
	}
	d := &Drawer{
		CompanyID:  companyID,
		LocationID: req.LocationID,
		FloatCents: req.FloatCents,
		OpenedBy:   userID,
	}
	if err := s.repo.Open(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*Drawer, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Entries(ctx context.Context, companyID, drawerID int64) ([]Entry, error) {
	if _, err := s.repo.Get(ctx, companyID, drawerID); err != nil {
		return nil, err
	}
	return s.repo.Entries(ctx, companyID, drawerID)
}

// RecordSale books a cash invoice payment into the open drawer at the
// invoice's location. Satisfies the invoices cash sink.
func (s *Service) RecordSale(ctx context.Context, companyID, locationID, userID int64, invoiceNumber string, amountCents int64) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}
	d, err := s.repo.OpenAtLocation(ctx, companyID, locationID)
	if err != nil {
		return err
	}
	d.ExpectedCents += amountCents
	e := &Entry{
		DrawerID:    d.ID,
		Type:        EntrySale,
		AmountCents: amountCents,
		Reference:   invoiceNumber,
		CreatedBy:   userID,
	}
	return s.repo.AddEntry(ctx, d, e)
}

// RecordEntry books a manual cash in or out.
func (s *Service) RecordEntry(ctx context.Context, companyID, drawerID, userID int64, req EntryRequest) (*Entry, error) {
	if req.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	d, err := s.repo.Get(ctx, companyID, drawerID)
	if err != nil {
		return nil, err
	}
	if d.Status != StatusOpen {
		return nil, ErrNotOpen
	}

	entryType := EntryType(req.Type)
	switch entryType {
	case EntryCashIn:
		d.ExpectedCents += req.AmountCents
	case EntryCashOut:
		d.ExpectedCents -= req.AmountCents
	default:
		return nil, ErrInvalidAmount
	}

	e := &Entry{
		DrawerID:    d.ID,
		Type:        entryType,
		AmountCents: req.AmountCents,
		Note:        req.Note,
		CreatedBy:   userID,
	}
	if err := s.repo.AddEntry(ctx, d, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Close settles the drawer against the counted amount. Over/short is
// counted minus expected: positive means surplus cash.
func (s *Service) Close(ctx context.Context, companyID, drawerID, userID int64, req CloseRequest) (*Drawer, error) {
	if req.CountedCents < 0 {
		return nil, ErrInvalidAmount
	}
	d, err := s.repo.Get(ctx, companyID, drawerID)
	if err != nil {
		return nil, err
	}
	if d.Status != StatusOpen {
		return nil, ErrNotOpen
	}

	counted := req.CountedCents
	overShort := counted - d.ExpectedCents
	now := time.Now().UTC()
	d.Status = StatusClosed
	d.CountedCents = &counted
	d.OverShortCents = &overShort
	d.ClosedBy = &userID
	d.ClosedAt = &now
	if err := s.repo.Close(ctx, d); err != nil {
		return nil, err
	}
	if overShort != 0 {
		s.logger.Warn("drawer closed over/short",
			slog.Int64("drawer_id", d.ID),
			slog.Int64("over_short_cents", overShort))
	}
	return d, nil
}

// SweepStale flags drawers left open past the cutoff. Called by the
// nightly reconciliation job.
func (s *Service) SweepStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	stale, err := s.repo.OpenedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	flagged := 0
	for _, d := range stale {
		if err := s.repo.MarkStale(ctx, d.ID); err != nil {
			s.logger.Error("flag stale drawer", slog.Any("error", err), slog.Int64("drawer_id", d.ID))
			continue
		}
		s.logger.Warn("drawer left open",
			slog.Int64("drawer_id", d.ID),
			slog.Int64("location_id", d.LocationID),
			slog.Time("opened_at", d.OpenedAt))
		flagged++
	}
	return flagged, nil
}
