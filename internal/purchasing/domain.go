package purchasing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the purchase order lifecycle state. Received and Cancelled are
// terminal; a cancelled order is removed outright, so only Pending and
// Received ever persist.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusReceived  Status = "Received"
	StatusCancelled Status = "Cancelled"
)

// Purchase is a purchase order header with its line items. Creating one has
// no stock effect; stock is committed only on receipt, modeling goods in
// transit.
type Purchase struct {
	PurchaseNo   string          `json:"purchase_no"`
	SupplierID   string          `json:"supplier_id"`
	OrderedAt    time.Time       `json:"ordered_at"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       Status          `json:"status"`
	Notes        string          `json:"notes,omitempty"`
	SupplierName string          `json:"supplier_name,omitempty"`
	ReceivedAt   *time.Time      `json:"received_at,omitempty"`
	Lines        []PurchaseLine  `json:"lines,omitempty"`
}

// PurchaseLine is one product entry within a purchase order.
type PurchaseLine struct {
	PurchaseNo  string          `json:"purchase_no"`
	ProductCode string          `json:"product_code"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	ProductName string          `json:"product_name,omitempty"`
}

// ListFilter narrows purchase listings.
type ListFilter struct {
	SupplierID string
	Status     Status
	From       time.Time
	To         time.Time
	Page       int
	Limit      int
}

var (
	// ErrEmptyOrder indicates a purchase with no line items.
	ErrEmptyOrder = errors.New("purchasing: order has no lines")
	// ErrSupplierNotFound indicates an unknown supplier reference.
	ErrSupplierNotFound = errors.New("purchasing: supplier not found")
	// ErrInvalidLine indicates a malformed line item.
	ErrInvalidLine = errors.New("purchasing: invalid line item")
	// ErrDuplicateLine indicates the same product appears twice.
	ErrDuplicateLine = errors.New("purchasing: duplicate product in order")
	// ErrNotFound indicates a missing purchase.
	ErrNotFound = errors.New("purchasing: not found")
	// ErrAlreadyReceived signals a repeated receive on a received order.
	ErrAlreadyReceived = errors.New("purchasing: already received")
	// ErrCannotCancelReceived signals a cancel after receipt.
	ErrCannotCancelReceived = errors.New("purchasing: cannot cancel a received order")
)
