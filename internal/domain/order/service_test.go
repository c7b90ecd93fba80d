package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/freshkart/order-service/internal/bizclock"
	"github.com/freshkart/order-service/internal/domain/agent"
	"github.com/freshkart/order-service/internal/domain/user"
)

// --- Mock implementations ---

type mockUserDirectory struct {
	byID map[string]*user.User
	err  error
}

func (m *mockUserDirectory) FindByID(_ context.Context, id string) (*user.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

type mockAgentDirectory struct {
	pool []agent.Agent
	err  error
}

func (m *mockAgentDirectory) ListAll(_ context.Context) ([]agent.Agent, error) {
	return m.pool, m.err
}

type mockOrderRepo struct {
	created   []*Order
	createErr error

	byID         map[string]*Order
	setStatusErr error
	statuses     map[string]Status
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, o)
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if st, ok := m.statuses[id]; ok {
		copied := *o
		copied.Status = st
		return &copied, nil
	}
	return o, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, _ string) ([]Order, error) { return nil, nil }
func (m *mockOrderRepo) ListAll(_ context.Context) ([]Order, error)             { return nil, nil }
func (m *mockOrderRepo) ListOpen(_ context.Context) ([]Order, error)            { return nil, nil }
func (m *mockOrderRepo) UpdateStatuses(_ context.Context, _ []StatusUpdate) error {
	return nil
}

func (m *mockOrderRepo) SetStatus(_ context.Context, id string, status Status) error {
	if m.setStatusErr != nil {
		return m.setStatusErr
	}
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	if m.statuses == nil {
		m.statuses = make(map[string]Status)
	}
	m.statuses[id] = status
	return nil
}

// --- Helpers ---

const testOwner = "8e5c1a62-0000-4000-8000-2f1b7ce0aa11"

func testClock(t *testing.T) *bizclock.Clock {
	t.Helper()
	c, err := bizclock.NewFixed("Asia/Kolkata", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return c
}

func newService(users *mockUserDirectory, agents *mockAgentDirectory, orders *mockOrderRepo, clock *bizclock.Clock) *Service {
	return NewService(users, agents, orders, clock, zap.NewNop())
}

func knownOwner() *mockUserDirectory {
	return &mockUserDirectory{byID: map[string]*user.User{
		testOwner: {ID: testOwner, Username: "asha", Email: "asha@example.com"},
	}}
}

func validRequest() PlaceOrderRequest {
	return PlaceOrderRequest{
		UserID: testOwner,
		Items: []LineItem{
			{ProductID: "p1", Name: "Basmati Rice 5kg", Price: decimal.RequireFromString("12.50"), Qty: 2},
			{ProductID: "p2", Name: "Toor Dal 1kg", Price: decimal.RequireFromString("3.20"), Qty: 1},
		},
		Subtotal:      decimal.RequireFromString("28.20"),
		Shipping:      decimal.RequireFromString("2.00"),
		Tax:           decimal.RequireFromString("1.41"),
		Total:         decimal.RequireFromString("31.61"),
		Address:       "14 MG Road, Bengaluru",
		DeliveryDate:  "2024-01-03",
		OrderedAt:     "2024-01-01T10:00:00Z",
		PaymentMethod: "card",
	}
}

// --- Placement tests ---

func TestPlaceOrder_OwnerNotFound(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newService(&mockUserDirectory{}, &mockAgentDirectory{}, repo, testClock(t))

	_, err := svc.PlaceOrder(context.Background(), validRequest())
	require.ErrorIs(t, err, user.ErrNotFound)
	assert.Empty(t, repo.created, "no partial order may be persisted")
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	svc := newService(knownOwner(), &mockAgentDirectory{}, &mockOrderRepo{}, testClock(t))

	req := validRequest()
	req.Items = nil
	_, err := svc.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	svc := newService(knownOwner(), &mockAgentDirectory{}, &mockOrderRepo{}, testClock(t))

	req := validRequest()
	req.Items[1].Qty = 0
	_, err := svc.PlaceOrder(context.Background(), req)

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "Toor Dal 1kg", iqErr.Name)
}

func TestPlaceOrder_TotalsMismatch(t *testing.T) {
	svc := newService(knownOwner(), &mockAgentDirectory{}, &mockOrderRepo{}, testClock(t))

	req := validRequest()
	req.Total = decimal.RequireFromString("99.99")
	_, err := svc.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, ErrTotalsMismatch)
}

func TestPlaceOrder_BadDeliveryDate(t *testing.T) {
	svc := newService(knownOwner(), &mockAgentDirectory{}, &mockOrderRepo{}, testClock(t))

	req := validRequest()
	req.DeliveryDate = "next tuesday"
	_, err := svc.PlaceOrder(context.Background(), req)

	var idErr *InvalidDateError
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, "deliveryDate", idErr.Field)
}

func TestPlaceOrder_Success(t *testing.T) {
	repo := &mockOrderRepo{}
	agents := &mockAgentDirectory{pool: []agent.Agent{{ID: "a1", Name: "Rajesh Kumar", Phone: "9876543210"}}}
	svc := newService(knownOwner(), agents, repo, testClock(t))

	o, err := svc.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, StatusOrdered, o.Status)
	assert.Equal(t, "2024-01-01T10:00:00Z", o.OrderedAt)
	// Snapshots derived in IST: 10:00Z is 15:30 local on Jan 1, a Monday.
	assert.Equal(t, "2024-01-01", o.OrderedDate)
	assert.Equal(t, "Monday", o.OrderedDay)
	require.NotNil(t, o.Agent)
	assert.Equal(t, "Rajesh Kumar", o.Agent.Name)
	require.Len(t, repo.created, 1)
	assert.Same(t, o, repo.created[0])
}

func TestPlaceOrder_StampsOrderedAtWhenMissing(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newService(knownOwner(), &mockAgentDirectory{}, repo, testClock(t))

	req := validRequest()
	req.OrderedAt = ""
	o, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T10:00:00Z", o.OrderedAt)
}

func TestPlaceOrder_EmptyPoolIsSoftFault(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newService(knownOwner(), &mockAgentDirectory{}, repo, testClock(t))

	o, err := svc.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Nil(t, o.Agent)
	require.Len(t, repo.created, 1)
}

func TestPlaceOrder_CreateError(t *testing.T) {
	repo := &mockOrderRepo{createErr: errors.New("db write failed")}
	svc := newService(knownOwner(), &mockAgentDirectory{}, repo, testClock(t))

	_, err := svc.PlaceOrder(context.Background(), validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

func TestPlaceOrder_AgentSelectionRoughlyUniform(t *testing.T) {
	pool := []agent.Agent{
		{ID: "a1", Name: "A"}, {ID: "a2", Name: "B"}, {ID: "a3", Name: "C"},
		{ID: "a4", Name: "D"}, {ID: "a5", Name: "E"},
	}
	repo := &mockOrderRepo{}
	svc := newService(knownOwner(), &mockAgentDirectory{pool: pool}, repo, testClock(t))

	const n = 5000
	counts := make(map[string]int, len(pool))
	for range n {
		o, err := svc.PlaceOrder(context.Background(), validRequest())
		require.NoError(t, err)
		require.NotNil(t, o.Agent)
		counts[o.Agent.ID]++
	}

	// Expect n/5 = 1000 per agent; allow a generous ±30% band.
	for _, a := range pool {
		assert.InDelta(t, n/len(pool), counts[a.ID], 0.3*float64(n)/float64(len(pool)),
			"agent %s picked %d times", a.ID, counts[a.ID])
	}
}

// --- Cancel / reorder tests ---

func existingOrder(id string, status Status) *Order {
	return &Order{
		ID:     id,
		UserID: testOwner,
		Items: []LineItem{
			{ProductID: "p1", Name: "Basmati Rice 5kg", Price: decimal.RequireFromString("12.50"), Qty: 2},
		},
		Status: status,
	}
}

func TestCancel_NotFound(t *testing.T) {
	svc := newService(knownOwner(), &mockAgentDirectory{}, &mockOrderRepo{byID: map[string]*Order{}}, testClock(t))

	_, err := svc.Cancel(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCancel_OverridesDelivered(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{
		"o1": existingOrder("o1", StatusDelivered),
	}}
	svc := newService(knownOwner(), &mockAgentDirectory{}, repo, testClock(t))

	o, err := svc.Cancel(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestReorder_ReturnsItemCopy(t *testing.T) {
	orig := existingOrder("o1", StatusDelivered)
	repo := &mockOrderRepo{byID: map[string]*Order{"o1": orig}}
	svc := newService(knownOwner(), &mockAgentDirectory{}, repo, testClock(t))

	items, err := svc.Reorder(context.Background(), "o1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, orig.Items[0], items[0])

	// Mutating the copy must not touch the stored aggregate.
	items[0].Qty = 99
	assert.Equal(t, 2, orig.Items[0].Qty)
}

func TestReorder_NotFoundAndEmpty(t *testing.T) {
	empty := existingOrder("o2", StatusOrdered)
	empty.Items = nil
	repo := &mockOrderRepo{byID: map[string]*Order{"o2": empty}}
	svc := newService(knownOwner(), &mockAgentDirectory{}, repo, testClock(t))

	_, err := svc.Reorder(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Reorder(context.Background(), "o2")
	require.ErrorIs(t, err, ErrNotFound)
}
