package inventory

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Item is one inventory record joined with its product reference data.
// Every product owns exactly one record; stock is mutated only through
// Adjust, never by direct writes.
type Item struct {
	ProductCode   string          `json:"product_code"`
	CurrentStock  int64           `json:"current_stock"`
	LastUpdated   time.Time       `json:"last_updated"`
	ProductName   string          `json:"product_name,omitempty"`
	Brand         string          `json:"brand,omitempty"`
	MinStockLevel int64           `json:"min_stock_level"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	RetailPrice   decimal.Decimal `json:"retail_price"`
}

// LowStock reports whether the item sits at or below its minimum level.
func (i Item) LowStock() bool {
	return i.CurrentStock <= i.MinStockLevel
}

// StockValue is the on-hand quantity valued at cost price.
func (i Item) StockValue() decimal.Decimal {
	return i.CostPrice.Mul(decimal.NewFromInt(i.CurrentStock))
}

// Summary aggregates the whole inventory for dashboards.
type Summary struct {
	Products    int64           `json:"products"`
	UnitsOnHand int64           `json:"units_on_hand"`
	StockValue  decimal.Decimal `json:"stock_value"`
	RetailValue decimal.Decimal `json:"retail_value"`
	LowStock    int64           `json:"low_stock"`
}

// AdjustmentInput describes a manual stock correction.
type AdjustmentInput struct {
	ProductCode string
	Delta       int64
	Reason      string
	ActorID     string
}

// ListFilter narrows inventory listings.
type ListFilter struct {
	Search  string
	LowOnly bool
	Page    int
	Limit   int
}

// ErrInsufficientStock is returned when a negative adjustment would take
// stock below zero.
var ErrInsufficientStock = errors.New("inventory: insufficient stock")

// ErrNotFound indicates a missing inventory record.
var ErrNotFound = errors.New("inventory: record not found")

// ErrInvalidQuantity indicates a zero adjustment delta.
var ErrInvalidQuantity = errors.New("inventory: delta must be non zero")
