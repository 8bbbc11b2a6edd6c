package checklists

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	nextID    int64
	templates map[int64]*Template
	responses []Response
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, templates: map[int64]*Template{}}
}

func (m *memoryRepo) CreateTemplate(_ context.Context, t *Template) error {
	t.ID = m.nextID
	m.nextID++
	for i := range t.Items {
		t.Items[i].ID = m.nextID
		t.Items[i].TemplateID = t.ID
		t.Items[i].Position = int32(i + 1)
		m.nextID++
	}
	t.IsActive = true
	cp := *t
	cp.Items = append([]Item(nil), t.Items...)
	m.templates[t.ID] = &cp
	return nil
}

func (m *memoryRepo) GetTemplate(_ context.Context, companyID, id int64) (*Template, error) {
	t, ok := m.templates[id]
	if !ok || t.CompanyID != companyID {
		return nil, ErrTemplateNotFound
	}
	cp := *t
	cp.Items = append([]Item(nil), t.Items...)
	return &cp, nil
}

func (m *memoryRepo) ListTemplates(_ context.Context, companyID int64) ([]Template, error) {
	var out []Template
	for _, t := range m.templates {
		if t.CompanyID == companyID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memoryRepo) SetTemplateActive(_ context.Context, companyID, id int64, active bool) error {
	t, ok := m.templates[id]
	if !ok || t.CompanyID != companyID {
		return ErrTemplateNotFound
	}
	t.IsActive = active
	return nil
}

func (m *memoryRepo) CreateResponse(_ context.Context, resp *Response) error {
	resp.ID = m.nextID
	m.nextID++
	m.responses = append(m.responses, *resp)
	return nil
}

func (m *memoryRepo) ResponsesForTicket(_ context.Context, companyID, ticketID int64) ([]Response, error) {
	var out []Response
	for _, r := range m.responses {
		if r.CompanyID == companyID && r.TicketID == ticketID {
			out = append(out, r)
		}
	}
	return out, nil
}

type stubTickets struct {
	exists bool
}

func (s stubTickets) TicketExists(_ context.Context, _, _ int64) (bool, error) {
	return s.exists, nil
}

func TestCreateTemplateOrdersItems(t *testing.T) {
	svc := NewService(newMemoryRepo(), stubTickets{exists: true})

	tmpl, err := svc.CreateTemplate(context.Background(), 1, CreateTemplateRequest{
		Name:  "Water damage intake",
		Items: []string{"Corrosion visible", "Battery swollen", "Powers on"},
	})
	require.NoError(t, err)
	require.Len(t, tmpl.Items, 3)
	require.Equal(t, int32(1), tmpl.Items[0].Position)
	require.Equal(t, int32(3), tmpl.Items[2].Position)
	require.True(t, tmpl.IsActive)
}

func TestFillValidatesItemsBelongToTemplate(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, stubTickets{exists: true})

	tmpl, err := svc.CreateTemplate(context.Background(), 1, CreateTemplateRequest{
		Name: "Intake", Items: []string{"Powers on"},
	})
	require.NoError(t, err)

	_, err = svc.Fill(context.Background(), 1, 42, 10, FillRequest{
		TemplateID: tmpl.ID,
		Answers:    []AnswerRequest{{ItemID: 9999, Result: "pass"}},
	})
	require.ErrorIs(t, err, ErrUnknownItem)

	resp, err := svc.Fill(context.Background(), 1, 42, 10, FillRequest{
		TemplateID: tmpl.ID,
		Answers:    []AnswerRequest{{ItemID: tmpl.Items[0].ID, Result: "fail", Note: "dead board"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Answers, 1)
	require.Equal(t, ResultFail, resp.Answers[0].Result)
}

func TestFillRequiresExistingTicket(t *testing.T) {
	svc := NewService(newMemoryRepo(), stubTickets{exists: false})

	tmpl, err := svc.CreateTemplate(context.Background(), 1, CreateTemplateRequest{
		Name: "Intake", Items: []string{"Powers on"},
	})
	require.NoError(t, err)

	_, err = svc.Fill(context.Background(), 1, 42, 10, FillRequest{
		TemplateID: tmpl.ID,
		Answers:    []AnswerRequest{{ItemID: tmpl.Items[0].ID, Result: "pass"}},
	})
	require.ErrorIs(t, err, ErrResponseNotFound)
}

func TestTemplatesScopedToCompany(t *testing.T) {
	svc := NewService(newMemoryRepo(), stubTickets{exists: true})

	tmpl, err := svc.CreateTemplate(context.Background(), 1, CreateTemplateRequest{
		Name: "Intake", Items: []string{"Powers on"},
	})
	require.NoError(t, err)

	_, err = svc.GetTemplate(context.Background(), 2, tmpl.ID)
	require.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = svc.Fill(context.Background(), 2, 42, 10, FillRequest{
		TemplateID: tmpl.ID,
		Answers:    []AnswerRequest{{ItemID: tmpl.Items[0].ID, Result: "pass"}},
	})
	require.ErrorIs(t, err, ErrTemplateNotFound)
}
