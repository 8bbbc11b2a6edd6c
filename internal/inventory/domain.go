// Package inventory tracks repair parts per shop location with
// moving-average cost. Quantities are whole units, costs integer cents.
package inventory

import (
	"errors"
	"time"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementReceipt records parts arriving from a supplier.
	MovementReceipt MovementType = "RECEIPT"
	// MovementConsume records parts used on a repair.
	MovementConsume MovementType = "CONSUME"
	// MovementTransfer pairs an out and an in between locations.
	MovementTransfer MovementType = "TRANSFER"
	// MovementAdjust covers manual count corrections.
	MovementAdjust MovementType = "ADJUST"
)

// Part is a catalog item sold or consumed by repairs.
type Part struct {
	ID             int64     `json:"id"`
	CompanyID      int64     `json:"company_id"`
	SKU            string    `json:"sku"`
	Name           string    `json:"name"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Balance summarises stock for one part at one location.
type Balance struct {
	CompanyID    int64     `json:"company_id"`
	LocationID   int64     `json:"location_id"`
	PartID       int64     `json:"part_id"`
	Qty          int64     `json:"qty"`
	AvgCostCents int64     `json:"avg_cost_cents"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Movement is the header of a posted stock movement.
type Movement struct {
	ID         int64        `json:"id"`
	EventID    string       `json:"event_id"`
	Type       MovementType `json:"type"`
	CompanyID  int64        `json:"company_id"`
	LocationID int64        `json:"location_id"`
	PartID     int64        `json:"part_id"`
	Qty        int64        `json:"qty"`
	Reference  string       `json:"reference,omitempty"`
	Note       string       `json:"note,omitempty"`
	PostedAt   time.Time    `json:"posted_at"`
	PostedBy   int64        `json:"posted_by"`
}

// StockCardEntry is one line of a part's location ledger.
type StockCardEntry struct {
	EventID          string       `json:"event_id"`
	Type             MovementType `json:"type"`
	PostedAt         time.Time    `json:"posted_at"`
	QtyIn            int64        `json:"qty_in"`
	QtyOut           int64        `json:"qty_out"`
	BalanceQty       int64        `json:"balance_qty"`
	UnitCostCents    int64        `json:"unit_cost_cents"`
	BalanceCostCents int64        `json:"balance_cost_cents"`
	Note             string       `json:"note,omitempty"`
}

// ReceiptInput posts an inbound supplier receipt.
type ReceiptInput struct {
	LocationID    int64
	PartID        int64
	Qty           int64
	UnitCostCents int64
	Reference     string
	Note          string
	ActorID       int64
}

// AdjustInput posts a count correction, positive or negative.
type AdjustInput struct {
	LocationID    int64
	PartID        int64
	Qty           int64
	UnitCostCents int64
	Note          string
	ActorID       int64
}

// ConsumeInput takes parts out of stock for a repair.
type ConsumeInput struct {
	LocationID int64
	PartID     int64
	Qty        int64
	Reference  string
	ActorID    int64
}

// TransferInput moves stock between two locations.
type TransferInput struct {
	SrcLocation int64
	DstLocation int64
	PartID      int64
	Qty         int64
	Note        string
	ActorID     int64
}

// StockCardFilter filters ledger entries.
type StockCardFilter struct {
	LocationID int64
	PartID     int64
	From       time.Time
	To         time.Time
	Limit      int
}

var (
	// ErrNegativeStock triggered when a movement would drive qty below zero.
	ErrNegativeStock = errors.New("inventory: negative stock not allowed")
	// ErrInvalidQuantity indicates a zero or wrong-signed qty.
	ErrInvalidQuantity = errors.New("inventory: invalid quantity")
	// ErrInvalidUnitCost indicates a negative cost.
	ErrInvalidUnitCost = errors.New("inventory: unit cost must be >= 0")
	// ErrPartNotFound indicates an unknown part.
	ErrPartNotFound = errors.New("inventory: part not found")
	// ErrSKUTaken indicates a duplicate SKU within the company.
	ErrSKUTaken = errors.New("inventory: sku already in use")
)
