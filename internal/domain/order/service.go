package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/freshkart/order-service/internal/bizclock"
	"github.com/freshkart/order-service/internal/domain/agent"
	"github.com/freshkart/order-service/internal/domain/user"
)

// PlaceOrderRequest holds the normalized checkout payload.
//
// OrderedAt is the client-declared placement instant in RFC 3339 UTC; when
// empty, the service stamps the current instant. The local display snapshots
// (date, weekday) are always derived server-side through the business clock
// so they cannot drift from the authoritative instant.
type PlaceOrderRequest struct {
	UserID        string
	Items         []LineItem
	Subtotal      decimal.Decimal
	Shipping      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	Address       string
	DeliveryDate  string
	OrderedAt     string
	PaymentMethod string
}

// Service encapsulates order placement, cancellation, and reorder logic.
type Service struct {
	users  user.Directory
	agents agent.Directory
	orders Repository
	clock  *bizclock.Clock
	lg     *zap.Logger
}

// NewService creates an order Service with the required dependencies.
func NewService(
	users user.Directory,
	agents agent.Directory,
	orders Repository,
	clock *bizclock.Clock,
	lg *zap.Logger,
) *Service {
	return &Service{
		users:  users,
		agents: agents,
		orders: orders,
		clock:  clock,
		lg:     lg,
	}
}

// PlaceOrder validates the payload, resolves the owner, assigns a delivery
// agent uniformly at random from the current pool, and persists the whole
// aggregate in one transaction. It returns the persisted order including its
// generated id.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, item := range req.Items {
		if item.Qty <= 0 {
			return nil, &InvalidQuantityError{Name: item.Name}
		}
	}
	if !req.Total.Equal(req.Subtotal.Add(req.Shipping).Add(req.Tax)) {
		return nil, ErrTotalsMismatch
	}

	// Owner must resolve before anything is written.
	if _, err := s.users.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "find user %s", req.UserID)
	}

	// Delivery date must be a valid local calendar date.
	if _, err := s.clock.ParseDate(req.DeliveryDate); err != nil {
		return nil, &InvalidDateError{Field: "deliveryDate", Err: err}
	}

	// Resolve the authoritative placement instant and derive the local
	// display snapshots from it, once.
	orderedAt := req.OrderedAt
	if orderedAt == "" {
		orderedAt = s.clock.FormatInstant(s.clock.Now())
	}
	placedLocal, err := s.clock.ParseInstant(orderedAt)
	if err != nil {
		return nil, &InvalidDateError{Field: "orderedTime", Err: err}
	}

	o := &Order{
		ID:            uuid.New().String(),
		UserID:        req.UserID,
		Items:         req.Items,
		Subtotal:      req.Subtotal,
		Shipping:      req.Shipping,
		Tax:           req.Tax,
		Total:         req.Total,
		Address:       req.Address,
		DeliveryDate:  req.DeliveryDate,
		OrderedAt:     orderedAt,
		OrderedDate:   s.clock.LocalDate(placedLocal),
		OrderedDay:    s.clock.LocalWeekday(placedLocal),
		Status:        StatusOrdered,
		PaymentMethod: req.PaymentMethod,
	}

	// Uniform random pick from a snapshot of the pool. An empty pool is a
	// logged soft fault: the order still goes through with no agent.
	pool, err := s.agents.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list delivery agents")
	}
	if picked, ok := agent.Pick(pool); ok {
		o.Agent = &picked
	} else {
		s.lg.Warn("delivery agent pool is empty, placing order without agent",
			zap.String("order_id", o.ID))
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// Cancel sets the order's status to Cancelled unconditionally, even when the
// order is already Delivered. Cancelled is absorbing: the reconciliation pass
// will never move the order out of it.
func (s *Service) Cancel(ctx context.Context, id string) (*Order, error) {
	if err := s.orders.SetStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "reload order %s", id)
	}
	return o, nil
}

// Reorder returns a fresh copy of the order's line items for the caller to
// resubmit through placement. No totals are recomputed and no stock is
// checked. An order with no line items is treated as not found.
func (s *Service) Reorder(ctx context.Context, id string) ([]LineItem, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(o.Items) == 0 {
		return nil, ErrNotFound
	}
	items := make([]LineItem, len(o.Items))
	copy(items, o.Items)
	return items, nil
}
