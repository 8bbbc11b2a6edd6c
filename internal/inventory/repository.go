package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrBalanceNotFound indicates a missing balance row.
var ErrBalanceNotFound = errors.New("inventory balance not found")

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

// TxRepository exposes the operations used inside a movement transaction.
type TxRepository interface {
	GetBalanceForUpdate(ctx context.Context, companyID, locationID, partID int64) (Balance, error)
	UpsertBalance(ctx context.Context, balance Balance) error
	InsertMovement(ctx context.Context, mv *Movement) error
	InsertCardEntry(ctx context.Context, card StockCardEntry, companyID, locationID, partID, movementID int64) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes fn inside a repeatable-read transaction. Balance rows are
// locked with FOR UPDATE so concurrent movements serialize per part.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) CreatePart(ctx context.Context, p *Part) error {
	err := r.pool.QueryRow(ctx,
		"INSERT INTO parts (company_id, sku, name, unit_price_cents, is_active) VALUES ($1, $2, $3, $4, true) RETURNING id, created_at",
		p.CompanyID, p.SKU, p.Name, p.UnitPriceCents,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSKUTaken
		}
		return fmt.Errorf("insert part: %w", err)
	}
	return nil
}

func (r *Repository) GetPart(ctx context.Context, companyID, id int64) (*Part, error) {
	var p Part
	err := r.pool.QueryRow(ctx,
		"SELECT id, company_id, sku, name, unit_price_cents, is_active, created_at FROM parts WHERE company_id = $1 AND id = $2",
		companyID, id,
	).Scan(&p.ID, &p.CompanyID, &p.SKU, &p.Name, &p.UnitPriceCents, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get part: %w", err)
	}
	return &p, nil
}

func (r *Repository) ListParts(ctx context.Context, companyID int64, activeOnly bool) ([]Part, error) {
	query := "SELECT id, company_id, sku, name, unit_price_cents, is_active, created_at FROM parts WHERE company_id = $1"
	if activeOnly {
		query += " AND is_active"
	}
	rows, err := r.pool.Query(ctx, query+" ORDER BY sku", companyID)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	defer rows.Close()

	var out []Part
	for rows.Next() {
		var p Part
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.SKU, &p.Name, &p.UnitPriceCents, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) Balances(ctx context.Context, companyID, locationID int64) ([]Balance, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT company_id, location_id, part_id, qty, avg_cost_cents, updated_at FROM stock_balances WHERE company_id = $1 AND location_id = $2 ORDER BY part_id",
		companyID, locationID)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()

	var out []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.CompanyID, &b.LocationID, &b.PartID, &b.Qty, &b.AvgCostCents, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) GetStockCard(ctx context.Context, companyID int64, filter StockCardFilter) ([]StockCardEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT event_id, movement_type, posted_at, qty_in, qty_out, balance_qty, unit_cost_cents, balance_cost_cents, note
		FROM stock_card_entries
		WHERE company_id = $1 AND location_id = $2 AND part_id = $3
		  AND ($4::timestamptz IS NULL OR posted_at >= $4)
		  AND ($5::timestamptz IS NULL OR posted_at <= $5)
		ORDER BY posted_at DESC, id DESC
		LIMIT $6`,
		companyID, filter.LocationID, filter.PartID,
		nullableTime(filter.From), nullableTime(filter.To), limit)
	if err != nil {
		return nil, fmt.Errorf("stock card: %w", err)
	}
	defer rows.Close()

	var out []StockCardEntry
	for rows.Next() {
		var e StockCardEntry
		if err := rows.Scan(&e.EventID, &e.Type, &e.PostedAt, &e.QtyIn, &e.QtyOut, &e.BalanceQty, &e.UnitCostCents, &e.BalanceCostCents, &e.Note); err != nil {
			return nil, fmt.Errorf("scan stock card entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *txRepo) GetBalanceForUpdate(ctx context.Context, companyID, locationID, partID int64) (Balance, error) {
	var b Balance
	err := r.tx.QueryRow(ctx,
		"SELECT company_id, location_id, part_id, qty, avg_cost_cents, updated_at FROM stock_balances WHERE company_id = $1 AND location_id = $2 AND part_id = $3 FOR UPDATE",
		companyID, locationID, partID,
	).Scan(&b.CompanyID, &b.LocationID, &b.PartID, &b.Qty, &b.AvgCostCents, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Balance{CompanyID: companyID, LocationID: locationID, PartID: partID}, ErrBalanceNotFound
	}
	if err != nil {
		return Balance{}, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}

func (r *txRepo) UpsertBalance(ctx context.Context, b Balance) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO stock_balances (company_id, location_id, part_id, qty, avg_cost_cents, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (company_id, location_id, part_id)
		DO UPDATE SET qty = EXCLUDED.qty, avg_cost_cents = EXCLUDED.avg_cost_cents, updated_at = now()`,
		b.CompanyID, b.LocationID, b.PartID, b.Qty, b.AvgCostCents)
	if err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

func (r *txRepo) InsertMovement(ctx context.Context, mv *Movement) error {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO stock_movements (event_id, movement_type, company_id, location_id, part_id, qty, reference, note, posted_at, posted_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		mv.EventID, mv.Type, mv.CompanyID, mv.LocationID, mv.PartID,
		mv.Qty, mv.Reference, mv.Note, mv.PostedAt, mv.PostedBy,
	).Scan(&mv.ID)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

func (r *txRepo) InsertCardEntry(ctx context.Context, card StockCardEntry, companyID, locationID, partID, movementID int64) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO stock_card_entries (company_id, location_id, part_id, movement_id, event_id, movement_type, qty_in, qty_out, balance_qty, unit_cost_cents, balance_cost_cents, posted_at, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		companyID, locationID, partID, movementID, card.EventID, card.Type,
		card.QtyIn, card.QtyOut, card.BalanceQty, card.UnitCostCents, card.BalanceCostCents,
		card.PostedAt, card.Note)
	if err != nil {
		return fmt.Errorf("insert card entry: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
