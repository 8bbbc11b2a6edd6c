package invoices

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixpoint-app/fixpoint/internal/platform/db"
)

type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, companyID, id int64) (*Invoice, error)
	List(ctx context.Context, companyID int64, filter ListFilter) ([]Invoice, int64, error)
	AddLine(ctx context.Context, inv *Invoice, line *Line) error
	RemoveLine(ctx context.Context, inv *Invoice, lineID int64) error
	UpdateStatus(ctx context.Context, inv *Invoice) error
	AddPayment(ctx context.Context, inv *Invoice, p *Payment) error
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const invoiceColumns = "id, number, company_id, location_id, customer_id, ticket_id, status, currency, subtotal_cents, tax_cents, total_cents, paid_cents, tax_rate_bps, created_by, issued_at, created_at, updated_at"

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.CompanyID, &inv.LocationID, &inv.CustomerID,
		&inv.TicketID, &inv.Status, &inv.Currency, &inv.SubtotalCents, &inv.TaxCents,
		&inv.TotalCents, &inv.PaidCents, &inv.TaxRateBps, &inv.CreatedBy,
		&inv.IssuedAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *PGRepository) Create(ctx context.Context, inv *Invoice) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO invoices (number, company_id, location_id, customer_id, ticket_id, status, currency, tax_rate_bps, created_by)
		VALUES (
			'INV-' || lpad((SELECT COALESCE(MAX(split_part(number, '-', 2)::bigint), 0) + 1 FROM invoices WHERE company_id = $1 FOR UPDATE)::text, 6, '0'),
			$1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, number, created_at, updated_at`,
		inv.CompanyID, inv.LocationID, inv.CustomerID, inv.TicketID,
		inv.Status, inv.Currency, inv.TaxRateBps, inv.CreatedBy,
	).Scan(&inv.ID, &inv.Number, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *PGRepository) Get(ctx context.Context, companyID, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE company_id = $1 AND id = $2",
		companyID, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	lines, err := r.pool.Query(ctx,
		"SELECT id, invoice_id, description, quantity, unit_price_cents, amount_cents, part_id FROM invoice_lines WHERE invoice_id = $1 ORDER BY id",
		inv.ID)
	if err != nil {
		return nil, fmt.Errorf("load invoice lines: %w", err)
	}
	defer lines.Close()
	for lines.Next() {
		var l Line
		if err := lines.Scan(&l.ID, &l.InvoiceID, &l.Description, &l.Quantity, &l.UnitPriceCents, &l.AmountCents, &l.PartID); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		inv.Lines = append(inv.Lines, l)
	}
	if err := lines.Err(); err != nil {
		return nil, err
	}

	payments, err := r.pool.Query(ctx,
		"SELECT id, invoice_id, method, amount_cents, received_by, received_at FROM invoice_payments WHERE invoice_id = $1 ORDER BY id",
		inv.ID)
	if err != nil {
		return nil, fmt.Errorf("load invoice payments: %w", err)
	}
	defer payments.Close()
	for payments.Next() {
		var p Payment
		if err := payments.Scan(&p.ID, &p.InvoiceID, &p.Method, &p.AmountCents, &p.ReceivedBy, &p.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan invoice payment: %w", err)
		}
		inv.Payments = append(inv.Payments, p)
	}
	return inv, payments.Err()
}

func (r *PGRepository) List(ctx context.Context, companyID int64, filter ListFilter) ([]Invoice, int64, error) {
	base := psql.Select(invoiceColumns).From("invoices").Where(sq.Eq{"company_id": companyID})
	countQ := psql.Select("COUNT(*)").From("invoices").Where(sq.Eq{"company_id": companyID})
	if filter.Status != "" {
		base = base.Where(sq.Eq{"status": filter.Status})
		countQ = countQ.Where(sq.Eq{"status": filter.Status})
	}
	if filter.CustomerID != nil {
		base = base.Where(sq.Eq{"customer_id": *filter.CustomerID})
		countQ = countQ.Where(sq.Eq{"customer_id": *filter.CustomerID})
	}

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int64
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	query, args, err := base.OrderBy("created_at DESC").
		Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset)).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	out := make([]Invoice, 0, filter.Limit)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, *inv)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) AddLine(ctx context.Context, inv *Invoice, line *Line) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			"INSERT INTO invoice_lines (invoice_id, description, quantity, unit_price_cents, amount_cents, part_id) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
			inv.ID, line.Description, line.Quantity, line.UnitPriceCents, line.AmountCents, line.PartID,
		).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("insert invoice line: %w", err)
		}
		return r.saveTotals(ctx, tx, inv)
	})
}

func (r *PGRepository) RemoveLine(ctx context.Context, inv *Invoice, lineID int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"DELETE FROM invoice_lines WHERE invoice_id = $1 AND id = $2", inv.ID, lineID)
		if err != nil {
			return fmt.Errorf("delete invoice line: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return r.saveTotals(ctx, tx, inv)
	})
}

func (r *PGRepository) UpdateStatus(ctx context.Context, inv *Invoice) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE invoices SET status = $1, issued_at = $2, updated_at = now() WHERE company_id = $3 AND id = $4",
		inv.Status, inv.IssuedAt, inv.CompanyID, inv.ID)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) AddPayment(ctx context.Context, inv *Invoice, p *Payment) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			"INSERT INTO invoice_payments (invoice_id, method, amount_cents, received_by) VALUES ($1, $2, $3, $4) RETURNING id, received_at",
			inv.ID, p.Method, p.AmountCents, p.ReceivedBy,
		).Scan(&p.ID, &p.ReceivedAt)
		if err != nil {
			return fmt.Errorf("insert invoice payment: %w", err)
		}
		tag, err := tx.Exec(ctx,
			"UPDATE invoices SET paid_cents = $1, status = $2, updated_at = now() WHERE company_id = $3 AND id = $4",
			inv.PaidCents, inv.Status, inv.CompanyID, inv.ID)
		if err != nil {
			return fmt.Errorf("save invoice payment state: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *PGRepository) saveTotals(ctx context.Context, tx pgx.Tx, inv *Invoice) error {
	tag, err := tx.Exec(ctx,
		"UPDATE invoices SET subtotal_cents = $1, tax_cents = $2, total_cents = $3, updated_at = now() WHERE company_id = $4 AND id = $5",
		inv.SubtotalCents, inv.TaxCents, inv.TotalCents, inv.CompanyID, inv.ID)
	if err != nil {
		return fmt.Errorf("save invoice totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
