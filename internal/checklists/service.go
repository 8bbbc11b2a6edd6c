package checklists

import (
	"context"
	"strings"
)

// TicketChecker verifies the ticket being filled against exists in the
// company. Satisfied by the tickets service.
type TicketChecker interface {
	TicketExists(ctx context.Context, companyID, ticketID int64) (bool, error)
}

type Service struct {
	repo    Repository
	tickets TicketChecker
}

func NewService(repo Repository, tickets TicketChecker) *Service {
	return &Service{repo: repo, tickets: tickets}
}

func (s *Service) CreateTemplate(ctx context.Context, companyID int64, req CreateTemplateRequest) (*Template, error) {
	t := &Template{CompanyID: companyID, Name: strings.TrimSpace(req.Name)}
	for _, label := range req.Items {
		t.Items = append(t.Items, Item{Label: strings.TrimSpace(label)})
	}
	if err := s.repo.CreateTemplate(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) GetTemplate(ctx context.Context, companyID, id int64) (*Template, error) {
	return s.repo.GetTemplate(ctx, companyID, id)
}

func (s *Service) ListTemplates(ctx context.Context, companyID int64) ([]Template, error) {
	return s.repo.ListTemplates(ctx, companyID)
}

func (s *Service) SetTemplateActive(ctx context.Context, companyID, id int64, active bool) error {
	return s.repo.SetTemplateActive(ctx, companyID, id, active)
}

// Fill records a checklist response for a ticket. Every answer must refer
// to an item of the chosen template.
func (s *Service) Fill(ctx context.Context, companyID, ticketID, userID int64, req FillRequest) (*Response, error) {
	if s.tickets != nil {
		ok, err := s.tickets.TicketExists(ctx, companyID, ticketID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrResponseNotFound
		}
	}

	tmpl, err := s.repo.GetTemplate(ctx, companyID, req.TemplateID)
	if err != nil {
		return nil, err
	}
	valid := make(map[int64]struct{}, len(tmpl.Items))
	for _, item := range tmpl.Items {
		valid[item.ID] = struct{}{}
	}

	resp := &Response{
		TemplateID: tmpl.ID,
		TicketID:   ticketID,
		CompanyID:  companyID,
		FilledBy:   userID,
	}
	for _, a := range req.Answers {
		if _, ok := valid[a.ItemID]; !ok {
			return nil, ErrUnknownItem
		}
		result := Result(a.Result)
		if !result.Valid() {
			return nil, ErrInvalidResult
		}
		resp.Answers = append(resp.Answers, ItemAnswer{ItemID: a.ItemID, Result: result, Note: a.Note})
	}
	if err := s.repo.CreateResponse(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) ResponsesForTicket(ctx context.Context, companyID, ticketID int64) ([]Response, error) {
	return s.repo.ResponsesForTicket(ctx, companyID, ticketID)
}
