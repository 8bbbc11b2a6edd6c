package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fixpoint-app/fixpoint/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetStockCard(ctx context.Context, companyID int64, filter StockCardFilter) ([]StockCardEntry, error)
	CreatePart(ctx context.Context, p *Part) error
	GetPart(ctx context.Context, companyID, id int64) (*Part, error)
	ListParts(ctx context.Context, companyID int64, activeOnly bool) ([]Part, error)
	Balances(ctx context.Context, companyID, locationID int64) ([]Balance, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates stock movements.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	allowNeg    bool
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	AllowNegativeStock bool
}

// NewService builds a Service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, cfg ServiceConfig) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem, allowNeg: cfg.AllowNegativeStock}
}

// CreatePart registers a new catalog part.
func (s *Service) CreatePart(ctx context.Context, companyID int64, sku, name string, unitPriceCents int64) (*Part, error) {
	if sku == "" || name == "" {
		return nil, errors.New("inventory: sku and name required")
	}
	if unitPriceCents < 0 {
		return nil, ErrInvalidUnitCost
	}
	p := &Part{CompanyID: companyID, SKU: sku, Name: name, UnitPriceCents: unitPriceCents, IsActive: true}
	if err := s.repo.CreatePart(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPart fetches one part.
func (s *Service) GetPart(ctx context.Context, companyID, id int64) (*Part, error) {
	return s.repo.GetPart(ctx, companyID, id)
}

// ListParts lists the company's part catalog.
func (s *Service) ListParts(ctx context.Context, companyID int64, activeOnly bool) ([]Part, error) {
	return s.repo.ListParts(ctx, companyID, activeOnly)
}

// Balances lists stock levels at a location.
func (s *Service) Balances(ctx context.Context, companyID, locationID int64) ([]Balance, error) {
	if locationID == 0 {
		return nil, errors.New("inventory: location required")
	}
	return s.repo.Balances(ctx, companyID, locationID)
}

// PostReceipt posts an inbound supplier receipt.
func (s *Service) PostReceipt(ctx context.Context, companyID int64, input ReceiptInput) (StockCardEntry, error) {
	if input.LocationID == 0 || input.PartID == 0 {
		return StockCardEntry{}, errors.New("inventory: location and part required")
	}
	if input.Qty <= 0 {
		return StockCardEntry{}, ErrInvalidQuantity
	}
	if input.UnitCostCents < 0 {
		return StockCardEntry{}, ErrInvalidUnitCost
	}
	return s.postMovement(ctx, movementParams{
		CompanyID:     companyID,
		LocationID:    input.LocationID,
		PartID:        input.PartID,
		QtyChange:     input.Qty,
		UnitCostCents: input.UnitCostCents,
		Type:          MovementReceipt,
		Reference:     input.Reference,
		Note:          input.Note,
		ActorID:       input.ActorID,
	})
}

// PostAdjustment posts a count correction, positive or negative.
func (s *Service) PostAdjustment(ctx context.Context, companyID int64, input AdjustInput) (StockCardEntry, error) {
	if input.LocationID == 0 || input.PartID == 0 {
		return StockCardEntry{}, errors.New("inventory: location and part required")
	}
	if input.Qty == 0 {
		return StockCardEntry{}, ErrInvalidQuantity
	}
	if input.Qty > 0 && input.UnitCostCents < 0 {
		return StockCardEntry{}, ErrInvalidUnitCost
	}
	return s.postMovement(ctx, movementParams{
		CompanyID:     companyID,
		LocationID:    input.LocationID,
		PartID:        input.PartID,
		QtyChange:     input.Qty,
		UnitCostCents: input.UnitCostCents,
		Type:          MovementAdjust,
		Note:          input.Note,
		ActorID:       input.ActorID,
	})
}

// PostConsume takes parts out of stock for a repair ticket or sale.
func (s *Service) PostConsume(ctx context.Context, companyID int64, input ConsumeInput) (StockCardEntry, error) {
	if input.LocationID == 0 || input.PartID == 0 {
		return StockCardEntry{}, errors.New("inventory: location and part required")
	}
	if input.Qty <= 0 {
		return StockCardEntry{}, ErrInvalidQuantity
	}
	return s.postMovement(ctx, movementParams{
		CompanyID:  companyID,
		LocationID: input.LocationID,
		PartID:     input.PartID,
		QtyChange:  -input.Qty,
		Type:       MovementConsume,
		Reference:  input.Reference,
		ActorID:    input.ActorID,
	})
}

// PostTransfer moves stock between locations as an out plus an in. The in
// leg reuses the source average cost so value is preserved.
func (s *Service) PostTransfer(ctx context.Context, companyID int64, input TransferInput) (StockCardEntry, StockCardEntry, error) {
	if input.SrcLocation == 0 || input.DstLocation == 0 || input.PartID == 0 {
		return StockCardEntry{}, StockCardEntry{}, errors.New("inventory: location and part required")
	}
	if input.SrcLocation == input.DstLocation {
		return StockCardEntry{}, StockCardEntry{}, errors.New("inventory: source and destination must differ")
	}
	if input.Qty <= 0 {
		return StockCardEntry{}, StockCardEntry{}, ErrInvalidQuantity
	}

	outCard, err := s.postMovement(ctx, movementParams{
		CompanyID:  companyID,
		LocationID: input.SrcLocation,
		PartID:     input.PartID,
		QtyChange:  -input.Qty,
		Type:       MovementTransfer,
		Note:       fmt.Sprintf("transfer to location %d: %s", input.DstLocation, input.Note),
		ActorID:    input.ActorID,
	})
	if err != nil {
		return StockCardEntry{}, StockCardEntry{}, err
	}
	inCard, err := s.postMovement(ctx, movementParams{
		CompanyID:     companyID,
		LocationID:    input.DstLocation,
		PartID:        input.PartID,
		QtyChange:     input.Qty,
		UnitCostCents: outCard.UnitCostCents,
		Type:          MovementTransfer,
		Note:          fmt.Sprintf("transfer from location %d: %s", input.SrcLocation, input.Note),
		ActorID:       input.ActorID,
	})
	if err != nil {
		return StockCardEntry{}, StockCardEntry{}, err
	}
	return outCard, inCard, nil
}

// GetStockCard lists ledger entries for a part at a location.
func (s *Service) GetStockCard(ctx context.Context, companyID int64, filter StockCardFilter) ([]StockCardEntry, error) {
	if filter.LocationID == 0 || filter.PartID == 0 {
		return nil, errors.New("inventory: location and part required")
	}
	return s.repo.GetStockCard(ctx, companyID, filter)
}

type movementParams struct {
	CompanyID     int64
	LocationID    int64
	PartID        int64
	QtyChange     int64
	UnitCostCents int64
	Type          MovementType
	Reference     string
	Note          string
	ActorID       int64
}

func (s *Service) postMovement(ctx context.Context, params movementParams) (StockCardEntry, error) {
	now := time.Now().UTC()
	eventID := uuid.NewString()

	key := fmt.Sprintf("%s:%s:%d:%d:%d", params.Type, params.Reference, params.CompanyID, params.LocationID, params.PartID)
	insertedKey := false
	if s.idempotency != nil && params.Reference != "" {
		if err := s.idempotency.CheckAndInsert(ctx, key, "inventory"); err != nil {
			return StockCardEntry{}, err
		}
		insertedKey = true
	}

	var card StockCardEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		balance, err := tx.GetBalanceForUpdate(ctx, params.CompanyID, params.LocationID, params.PartID)
		if err != nil && !errors.Is(err, ErrBalanceNotFound) {
			return err
		}
		if errors.Is(err, ErrBalanceNotFound) {
			balance = Balance{CompanyID: params.CompanyID, LocationID: params.LocationID, PartID: params.PartID}
		}

		newQty := balance.Qty + params.QtyChange
		if !s.allowNeg && newQty < 0 {
			return ErrNegativeStock
		}

		var unitCost, newAvg int64
		if params.QtyChange > 0 {
			unitCost = params.UnitCostCents
			totalCost := balance.Qty*balance.AvgCostCents + params.QtyChange*unitCost
			if newQty != 0 {
				// round half-up
				newAvg = (totalCost + newQty/2) / newQty
			}
		} else {
			unitCost = balance.AvgCostCents
			if newQty > 0 {
				newAvg = balance.AvgCostCents
			}
		}

		mv := Movement{
			EventID:    eventID,
			Type:       params.Type,
			CompanyID:  params.CompanyID,
			LocationID: params.LocationID,
			PartID:     params.PartID,
			Qty:        params.QtyChange,
			Reference:  params.Reference,
			Note:       params.Note,
			PostedAt:   now,
			PostedBy:   params.ActorID,
		}
		if err := tx.InsertMovement(ctx, &mv); err != nil {
			return err
		}

		balance.Qty = newQty
		balance.AvgCostCents = newAvg
		if err := tx.UpsertBalance(ctx, balance); err != nil {
			return err
		}

		card = StockCardEntry{
			EventID:          eventID,
			Type:             params.Type,
			PostedAt:         now,
			QtyIn:            max(params.QtyChange, 0),
			QtyOut:           max(-params.QtyChange, 0),
			BalanceQty:       newQty,
			UnitCostCents:    unitCost,
			BalanceCostCents: newAvg,
			Note:             params.Note,
		}
		return tx.InsertCardEntry(ctx, card, params.CompanyID, params.LocationID, params.PartID, mv.ID)
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return StockCardEntry{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			CompanyID: params.CompanyID,
			ActorID:   params.ActorID,
			Action:    fmt.Sprintf("inventory:%s", params.Type),
			Entity:    "stock_movement",
			EntityID:  eventID,
			Meta: map[string]any{
				"location_id": params.LocationID,
				"part_id":     params.PartID,
				"qty":         params.QtyChange,
				"reference":   params.Reference,
			},
		})
	}
	return card, nil
}
