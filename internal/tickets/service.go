package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Notifier is the enqueue side of the status notification job.
type Notifier interface {
	TicketStatusChanged(ctx context.Context, email, ticketNumber string, from, to Status) error
}

// NopNotifier satisfies Notifier without a queue, for test and offline use.
type NopNotifier struct{}

func (NopNotifier) TicketStatusChanged(context.Context, string, string, Status, Status) error {
	return nil
}

type Service struct {
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
}

func NewService(repo Repository, notifier Notifier, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

func (s *Service) Create(ctx context.Context, companyID, actorID int64, req CreateTicketRequest) (*Ticket, error) {
	t := &Ticket{
		CompanyID:     companyID,
		LocationID:    req.LocationID,
		CustomerID:    req.CustomerID,
		Status:        StatusNew,
		DeviceType:    req.DeviceType,
		DeviceBrand:   req.DeviceBrand,
		DeviceModel:   req.DeviceModel,
		DeviceSerial:  req.DeviceSerial,
		ReportedIssue: req.ReportedIssue,
		CreatedBy:     actorID,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*Ticket, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID int64, filter ListFilter) ([]Ticket, int64, error) {
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

func (s *Service) Assign(ctx context.Context, companyID, ticketID int64, assigneeID *int64) (*Ticket, error) {
	t, err := s.repo.Get(ctx, companyID, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status.IsFinal() {
		return nil, ErrTicketFinal
	}
	t.AssigneeID = assigneeID
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Transition(ctx context.Context, companyID, ticketID int64, req TransitionRequest) (*Ticket, error) {
	t, err := s.repo.Get(ctx, companyID, ticketID)
	if err != nil {
		return nil, err
	}
	next := Status(req.Status)
	if !t.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
	}

	from := t.Status
	t.Status = next
	if req.Diagnosis != nil {
		t.Diagnosis = req.Diagnosis
	}
	if next.IsFinal() {
		now := time.Now().UTC()
		t.ClosedAt = &now
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.notify(ctx, t, from, next)
	return t, nil
}

// notify is best-effort: a queue outage must not fail the transition.
func (s *Service) notify(ctx context.Context, t *Ticket, from, to Status) {
	email, err := s.repo.CustomerEmail(ctx, t.CompanyID, t.CustomerID)
	if err != nil {
		s.logger.Warn("ticket notify lookup", slog.Any("error", err), slog.String("ticket", t.Number))
		return
	}
	if email == "" {
		return
	}
	if err := s.notifier.TicketStatusChanged(ctx, email, t.Number, from, to); err != nil {
		s.logger.Warn("ticket notify enqueue", slog.Any("error", err), slog.String("ticket", t.Number))
	}
}

// TicketExists reports whether the ticket is visible to the company.
func (s *Service) TicketExists(ctx context.Context, companyID, ticketID int64) (bool, error) {
	_, err := s.repo.Get(ctx, companyID, ticketID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) AddComment(ctx context.Context, companyID, ticketID, authorID int64, req CommentRequest) (*Comment, error) {
	if _, err := s.repo.Get(ctx, companyID, ticketID); err != nil {
		return nil, err
	}
	c := &Comment{TicketID: ticketID, AuthorID: authorID, Body: req.Body, Internal: req.Internal}
	if err := s.repo.AddComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Comments(ctx context.Context, companyID, ticketID int64) ([]Comment, error) {
	if _, err := s.repo.Get(ctx, companyID, ticketID); err != nil {
		return nil, err
	}
	return s.repo.Comments(ctx, companyID, ticketID)
}
