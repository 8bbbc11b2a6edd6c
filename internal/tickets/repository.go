package tickets

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	Get(ctx context.Context, companyID, id int64) (*Ticket, error)
	List(ctx context.Context, companyID int64, filter ListFilter) ([]Ticket, int64, error)
	Update(ctx context.Context, t *Ticket) error
	AddComment(ctx context.Context, c *Comment) error
	Comments(ctx context.Context, companyID, ticketID int64) ([]Comment, error)
	CustomerEmail(ctx context.Context, companyID, customerID int64) (string, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const ticketColumns = "id, number, company_id, location_id, customer_id, assignee_id, status, device_type, device_brand, device_model, device_serial, reported_issue, diagnosis, created_by, created_at, updated_at, closed_at"

func scanTicket(row pgx.Row) (*Ticket, error) {
	var t Ticket
	err := row.Scan(&t.ID, &t.Number, &t.CompanyID, &t.LocationID, &t.CustomerID,
		&t.AssigneeID, &t.Status, &t.DeviceType, &t.DeviceBrand, &t.DeviceModel,
		&t.DeviceSerial, &t.ReportedIssue, &t.Diagnosis, &t.CreatedBy,
		&t.CreatedAt, &t.UpdatedAt, &t.ClosedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGRepository) Create(ctx context.Context, t *Ticket) error {
	// Ticket numbers are per-company sequential, formatted in SQL to avoid a
	// read-modify-write race.
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tickets (number, company_id, location_id, customer_id, status, device_type, device_brand, device_model, device_serial, reported_issue, created_by)
		VALUES (
			'T-' || lpad((SELECT COALESCE(MAX(split_part(number, '-', 2)::bigint), 0) + 1 FROM tickets WHERE company_id = $1 FOR UPDATE)::text, 6, '0'),
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, number, created_at, updated_at`,
		t.CompanyID, t.LocationID, t.CustomerID, t.Status, t.DeviceType,
		t.DeviceBrand, t.DeviceModel, t.DeviceSerial, t.ReportedIssue, t.CreatedBy,
	).Scan(&t.ID, &t.Number, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (r *PGRepository) Get(ctx context.Context, companyID, id int64) (*Ticket, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE company_id = $1 AND id = $2",
		companyID, id)
	t, err := scanTicket(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return t, nil
}

func (r *PGRepository) List(ctx context.Context, companyID int64, filter ListFilter) ([]Ticket, int64, error) {
	base := psql.Select(ticketColumns).From("tickets").Where(sq.Eq{"company_id": companyID})
	countQ := psql.Select("COUNT(*)").From("tickets").Where(sq.Eq{"company_id": companyID})
	if filter.Status != "" {
		base = base.Where(sq.Eq{"status": filter.Status})
		countQ = countQ.Where(sq.Eq{"status": filter.Status})
	}
	if filter.AssigneeID != nil {
		base = base.Where(sq.Eq{"assignee_id": *filter.AssigneeID})
		countQ = countQ.Where(sq.Eq{"assignee_id": *filter.AssigneeID})
	}
	if filter.CustomerID != nil {
		base = base.Where(sq.Eq{"customer_id": *filter.CustomerID})
		countQ = countQ.Where(sq.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.LocationID != nil {
		base = base.Where(sq.Eq{"location_id": *filter.LocationID})
		countQ = countQ.Where(sq.Eq{"location_id": *filter.LocationID})
	}

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int64
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}

	query, args, err := base.OrderBy("created_at DESC").
		Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset)).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	out := make([]Ticket, 0, filter.Limit)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan ticket: %w", err)
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) Update(ctx context.Context, t *Ticket) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tickets
		SET assignee_id = $1, status = $2, diagnosis = $3, closed_at = $4, updated_at = now()
		WHERE company_id = $5 AND id = $6`,
		t.AssigneeID, t.Status, t.Diagnosis, t.ClosedAt, t.CompanyID, t.ID)
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) AddComment(ctx context.Context, c *Comment) error {
	err := r.pool.QueryRow(ctx,
		"INSERT INTO ticket_comments (ticket_id, author_id, body, internal) VALUES ($1, $2, $3, $4) RETURNING id, created_at",
		c.TicketID, c.AuthorID, c.Body, c.Internal,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ticket comment: %w", err)
	}
	return nil
}

func (r *PGRepository) Comments(ctx context.Context, companyID, ticketID int64) ([]Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.ticket_id, c.author_id, c.body, c.internal, c.created_at
		FROM ticket_comments c
		JOIN tickets t ON t.id = c.ticket_id
		WHERE t.company_id = $1 AND c.ticket_id = $2
		ORDER BY c.created_at`,
		companyID, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list ticket comments: %w", err)
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.AuthorID, &c.Body, &c.Internal, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PGRepository) CustomerEmail(ctx context.Context, companyID, customerID int64) (string, error) {
	var email *string
	err := r.pool.QueryRow(ctx,
		"SELECT email FROM customers WHERE company_id = $1 AND id = $2",
		companyID, customerID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("customer email: %w", err)
	}
	if email == nil {
		return "", nil
	}
	return *email, nil
}
