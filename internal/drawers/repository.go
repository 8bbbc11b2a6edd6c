package drawers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Open(ctx context.Context, d *Drawer) error
	Get(ctx context.Context, companyID, id int64) (*Drawer, error)
	OpenAtLocation(ctx context.Context, companyID, locationID int64) (*Drawer, error)
	AddEntry(ctx context.Context, d *Drawer, e *Entry) error
	Close(ctx context.Context, d *Drawer) error
	Entries(ctx context.Context, companyID, drawerID int64) ([]Entry, error)
	OpenedBefore(ctx context.Context, cutoff time.Time) ([]Drawer, error)
	MarkStale(ctx context.Context, drawerID int64) error
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

const drawerColumns = "id, company_id, location_id, status, float_cents, expected_cents, counted_cents, over_short_cents, opened_by, closed_by, opened_at, closed_at, flagged_stale"

func scanDrawer(row pgx.Row) (*Drawer, error) {
	var d Drawer
	err := row.Scan(&d.ID, &d.CompanyID, &d.LocationID, &d.Status, &d.FloatCents,
		&d.ExpectedCents, &d.CountedCents, &d.OverShortCents, &d.OpenedBy,
		&d.ClosedBy, &d.OpenedAt, &d.ClosedAt, &d.FlaggedStale)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PGRepository) Open(ctx context.Context, d *Drawer) error {
	// Partial unique index on (location_id) WHERE status = 'open' backs
	// the single-open-drawer rule.
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM cash_drawers WHERE company_id = $1 AND location_id = $2 AND status = 'open')",
		d.CompanyID, d.LocationID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check open drawer: %w", err)
	}
	if exists {
		return ErrAlreadyOpen
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO cash_drawers (company_id, location_id, status, float_cents, expected_cents, opened_by)
		VALUES ($1, $2, 'open', $3, $3, $4)
		RETURNING id, opened_at`,
		d.CompanyID, d.LocationID, d.FloatCents, d.OpenedBy,
	).Scan(&d.ID, &d.OpenedAt)
	if err != nil {
		return fmt.Errorf("open drawer: %w", err)
	}
	d.Status = StatusOpen
	d.ExpectedCents = d.FloatCents
	return nil
}

func (r *PGRepository) Get(ctx context.Context, companyID, id int64) (*Drawer, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+drawerColumns+" FROM cash_drawers WHERE company_id = $1 AND id = $2",
		companyID, id)
	d, err := scanDrawer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get drawer: %w", err)
	}
	return d, nil
}

func (r *PGRepository) OpenAtLocation(ctx context.Context, companyID, locationID int64) (*Drawer, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+drawerColumns+" FROM cash_drawers WHERE company_id = $1 AND location_id = $2 AND status = 'open'",
		companyID, locationID)
	d, err := scanDrawer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoOpenDrawer
	}
	if err != nil {
		return nil, fmt.Errorf("open drawer at location: %w", err)
	}
	return d, nil
}

func (r *PGRepository) AddEntry(ctx context.Context, d *Drawer, e *Entry) error {
	err := r.pool.QueryRow(ctx,
		"INSERT INTO drawer_entries (drawer_id, entry_type, amount_cents, reference, note, created_by) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at",
		e.DrawerID, e.Type, e.AmountCents, e.Reference, e.Note, e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert drawer entry: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		"UPDATE cash_drawers SET expected_cents = $1 WHERE id = $2 AND status = 'open'",
		d.ExpectedCents, d.ID)
	if err != nil {
		return fmt.Errorf("update drawer expected: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotOpen
	}
	return nil
}

func (r *PGRepository) Close(ctx context.Context, d *Drawer) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cash_drawers
		SET status = 'closed', counted_cents = $1, over_short_cents = $2, closed_by = $3, closed_at = now()
		WHERE company_id = $4 AND id = $5 AND status = 'open'`,
		d.CountedCents, d.OverShortCents, d.ClosedBy, d.CompanyID, d.ID)
	if err != nil {
		return fmt.Errorf("close drawer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotOpen
	}
	return nil
}

func (r *PGRepository) Entries(ctx context.Context, companyID, drawerID int64) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.drawer_id, e.entry_type, e.amount_cents, e.reference, e.note, e.created_by, e.created_at
		FROM drawer_entries e
		JOIN cash_drawers d ON d.id = e.drawer_id
		WHERE d.company_id = $1 AND e.drawer_id = $2
		ORDER BY e.created_at`,
		companyID, drawerID)
	if err != nil {
		return nil, fmt.Errorf("list drawer entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.DrawerID, &e.Type, &e.AmountCents, &e.Reference, &e.Note, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan drawer entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PGRepository) OpenedBefore(ctx context.Context, cutoff time.Time) ([]Drawer, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+drawerColumns+" FROM cash_drawers WHERE status = 'open' AND NOT flagged_stale AND opened_at < $1",
		cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale drawers: %w", err)
	}
	defer rows.Close()

	var out []Drawer
	for rows.Next() {
		d, err := scanDrawer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan drawer: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *PGRepository) MarkStale(ctx context.Context, drawerID int64) error {
	_, err := r.pool.Exec(ctx, "UPDATE cash_drawers SET flagged_stale = true WHERE id = $1", drawerID)
	if err != nil {
		return fmt.Errorf("mark drawer stale: %w", err)
	}
	return nil
}
