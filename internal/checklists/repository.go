package checklists

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixpoint-app/fixpoint/internal/platform/db"
)

type Repository interface {
	CreateTemplate(ctx context.Context, t *Template) error
	GetTemplate(ctx context.Context, companyID, id int64) (*Template, error)
	ListTemplates(ctx context.Context, companyID int64) ([]Template, error)
	SetTemplateActive(ctx context.Context, companyID, id int64, active bool) error
	CreateResponse(ctx context.Context, resp *Response) error
	ResponsesForTicket(ctx context.Context, companyID, ticketID int64) ([]Response, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

func (r *PGRepository) CreateTemplate(ctx context.Context, t *Template) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			"INSERT INTO checklist_templates (company_id, name, is_active) VALUES ($1, $2, true) RETURNING id, created_at",
			t.CompanyID, t.Name,
		).Scan(&t.ID, &t.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert template: %w", err)
		}
		for i := range t.Items {
			item := &t.Items[i]
			item.TemplateID = t.ID
			item.Position = int32(i + 1)
			err := tx.QueryRow(ctx,
				"INSERT INTO checklist_items (template_id, position, label) VALUES ($1, $2, $3) RETURNING id",
				item.TemplateID, item.Position, item.Label,
			).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("insert template item: %w", err)
			}
		}
		t.IsActive = true
		return nil
	})
}

func (r *PGRepository) GetTemplate(ctx context.Context, companyID, id int64) (*Template, error) {
	var t Template
	err := r.pool.QueryRow(ctx,
		"SELECT id, company_id, name, is_active, created_at FROM checklist_templates WHERE company_id = $1 AND id = $2",
		companyID, id,
	).Scan(&t.ID, &t.CompanyID, &t.Name, &t.IsActive, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		"SELECT id, template_id, position, label FROM checklist_items WHERE template_id = $1 ORDER BY position",
		t.ID)
	if err != nil {
		return nil, fmt.Errorf("load template items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.TemplateID, &item.Position, &item.Label); err != nil {
			return nil, fmt.Errorf("scan template item: %w", err)
		}
		t.Items = append(t.Items, item)
	}
	return &t, rows.Err()
}

func (r *PGRepository) ListTemplates(ctx context.Context, companyID int64) ([]Template, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, company_id, name, is_active, created_at FROM checklist_templates WHERE company_id = $1 ORDER BY name",
		companyID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Name, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PGRepository) SetTemplateActive(ctx context.Context, companyID, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE checklist_templates SET is_active = $1 WHERE company_id = $2 AND id = $3",
		active, companyID, id)
	if err != nil {
		return fmt.Errorf("set template active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *PGRepository) CreateResponse(ctx context.Context, resp *Response) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			"INSERT INTO checklist_responses (template_id, ticket_id, company_id, filled_by) VALUES ($1, $2, $3, $4) RETURNING id, created_at",
			resp.TemplateID, resp.TicketID, resp.CompanyID, resp.FilledBy,
		).Scan(&resp.ID, &resp.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert response: %w", err)
		}
		for _, a := range resp.Answers {
			_, err := tx.Exec(ctx,
				"INSERT INTO checklist_answers (response_id, item_id, result, note) VALUES ($1, $2, $3, $4)",
				resp.ID, a.ItemID, a.Result, a.Note)
			if err != nil {
				return fmt.Errorf("insert answer: %w", err)
			}
		}
		return nil
	})
}

func (r *PGRepository) ResponsesForTicket(ctx context.Context, companyID, ticketID int64) ([]Response, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, template_id, ticket_id, company_id, filled_by, created_at FROM checklist_responses WHERE company_id = $1 AND ticket_id = $2 ORDER BY created_at",
		companyID, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var out []Response
	for rows.Next() {
		var resp Response
		if err := rows.Scan(&resp.ID, &resp.TemplateID, &resp.TicketID, &resp.CompanyID, &resp.FilledBy, &resp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		answers, err := r.pool.Query(ctx,
			"SELECT item_id, result, note FROM checklist_answers WHERE response_id = $1 ORDER BY item_id",
			out[i].ID)
		if err != nil {
			return nil, fmt.Errorf("load answers: %w", err)
		}
		for answers.Next() {
			var a ItemAnswer
			if err := answers.Scan(&a.ItemID, &a.Result, &a.Note); err != nil {
				answers.Close()
				return nil, fmt.Errorf("scan answer: %w", err)
			}
			out[i].Answers = append(out[i].Answers, a)
		}
		if err := answers.Err(); err != nil {
			answers.Close()
			return nil, err
		}
		answers.Close()
	}
	return out, nil
}
