package sales

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an invoice header with its line items. Totals are derived from the
// lines at creation time and never edited independently.
type Sale struct {
	InvoiceNo    string          `json:"invoice_no"`
	CustomerID   string          `json:"customer_id"`
	EmployeeID   string          `json:"employee_id"`
	SoldAt       time.Time       `json:"sold_at"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Discount     decimal.Decimal `json:"discount"`
	NetAmount    decimal.Decimal `json:"net_amount"`
	CustomerName string          `json:"customer_name,omitempty"`
	EmployeeName string          `json:"employee_name,omitempty"`
	Lines        []SaleLine      `json:"lines,omitempty"`
}

// SaleLine is one product entry within a sale. (invoice_no, product_code) is
// the composite key; lines are immutable once posted.
type SaleLine struct {
	InvoiceNo   string          `json:"invoice_no"`
	ProductCode string          `json:"product_code"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	ProductName string          `json:"product_name,omitempty"`
}

// ListFilter narrows sale listings.
type ListFilter struct {
	CustomerID string
	EmployeeID string
	From       time.Time
	To         time.Time
	Page       int
	Limit      int
}

var (
	// ErrEmptyCart indicates a sale with no line items.
	ErrEmptyCart = errors.New("sales: cart is empty")
	// ErrCustomerNotFound indicates an unknown customer reference.
	ErrCustomerNotFound = errors.New("sales: customer not found")
	// ErrEmployeeNotFound indicates an unknown employee reference.
	ErrEmployeeNotFound = errors.New("sales: employee not found")
	// ErrInvalidLine indicates a malformed line item.
	ErrInvalidLine = errors.New("sales: invalid line item")
	// ErrDuplicateLine indicates the same product appears twice in the cart.
	ErrDuplicateLine = errors.New("sales: duplicate product in cart")
	// ErrNegativeDiscount indicates a discount below zero.
	ErrNegativeDiscount = errors.New("sales: discount must be >= 0")
	// ErrNotFound indicates a missing sale.
	ErrNotFound = errors.New("sales: not found")
)

// Shortage describes one line that exceeds available stock.
type Shortage struct {
	ProductCode string `json:"product_code"`
	Requested   int64  `json:"requested"`
	Available   int64  `json:"available"`
}

// InsufficientStockError carries every offending line found by the snapshot
// check, or the single line rejected by the ledger guard inside the
// transaction.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", s.ProductCode, s.Requested, s.Available))
	}
	return "sales: insufficient stock: " + strings.Join(parts, ", ")
}
