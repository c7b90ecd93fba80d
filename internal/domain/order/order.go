// Package order contains the order aggregate, its status state machine, and
// the placement / cancellation / reorder services.
package order

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/freshkart/order-service/internal/domain/agent"
)

// Sentinel errors for order operations.
var (
	ErrNotFound       = errors.New("order not found")
	ErrEmptyItems     = errors.New("items required")
	ErrTotalsMismatch = errors.New("total must equal subtotal + shipping + tax")
)

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	Name string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for item %q", e.Name)
}

// InvalidDateError indicates a temporal field of the payload could not be
// parsed at placement time.
type InvalidDateError struct {
	Field string
	Err   error
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *InvalidDateError) Unwrap() error {
	return e.Err
}

// Order is the aggregate root: an order header together with its immutable
// line items, persisted and read as one unit.
//
// OrderedAt and DeliveryDate are kept in their stored string form. They are
// client-declared snapshots, and the reconciliation pass parses them per
// record so a malformed value on one order never aborts a batch.
type Order struct {
	ID     string
	UserID string
	Items  []LineItem

	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal

	Address      string
	DeliveryDate string // business-local calendar date, "2006-01-02"
	OrderedAt    string // authoritative placement instant, RFC 3339 UTC
	OrderedDate  string // business-local display snapshot, set once at placement
	OrderedDay   string // business-local weekday snapshot, set once at placement

	Status        Status
	PaymentMethod string

	// Agent is nil only when the pool was empty at placement time.
	// It is never reassigned or backfilled later.
	Agent *agent.Agent
}

// LineItem is a single immutable line of an order, carrying the product
// snapshot exactly as it was at checkout.
type LineItem struct {
	ProductID   string
	Name        string
	Price       decimal.Decimal
	Qty         int
	Unit        string
	Brand       string
	Category    string
	SKU         string
	Description string
	Image       string
}

// StatusUpdate is one entry of a reconciliation write-back batch.
type StatusUpdate struct {
	OrderID string
	Status  Status
}

// Repository defines persistence operations for order aggregates.
type Repository interface {
	// Create persists the order header and all line items atomically.
	Create(ctx context.Context, o *Order) error
	// GetByID loads one full aggregate. Returns ErrNotFound.
	GetByID(ctx context.Context, id string) (*Order, error)
	// ListByUser loads all aggregates owned by a user.
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// ListAll loads every aggregate in the store.
	ListAll(ctx context.Context) ([]Order, error)
	// ListOpen loads headers of orders that are neither Cancelled nor
	// Delivered. Line items are not needed by the scheduler and are not
	// populated.
	ListOpen(ctx context.Context) ([]Order, error)
	// UpdateStatuses applies a batch of status transitions. Each update is
	// conditional on the current status not being Cancelled, so a
	// cancellation that lands mid-tick is never overwritten.
	UpdateStatuses(ctx context.Context, updates []StatusUpdate) error
	// SetStatus overwrites one order's status unconditionally.
	// Returns ErrNotFound when the id does not resolve.
	SetStatus(ctx context.Context, id string, status Status) error
}
