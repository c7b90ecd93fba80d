package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshkart/order-service/internal/domain/agent"
	"github.com/freshkart/order-service/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
		(id, user_id, subtotal, shipping, tax, total, address, delivery_date,
		 ordered_at, ordered_date, ordered_day, status, payment_method, agent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	insertItemSQL = `INSERT INTO order_items
		(order_id, position, product_id, name, price, qty, unit, brand, category, sku, description, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	orderColumns = `o.id, o.user_id, o.subtotal, o.shipping, o.tax, o.total, o.address,
		o.delivery_date, o.ordered_at, o.ordered_date, o.ordered_day, o.status,
		o.payment_method, a.id, a.name, a.phone`

	getOrderSQL = `SELECT ` + orderColumns + `
		FROM orders o LEFT JOIN delivery_agents a ON a.id = o.agent_id
		WHERE o.id = $1`

	listByUserSQL = `SELECT ` + orderColumns + `
		FROM orders o LEFT JOIN delivery_agents a ON a.id = o.agent_id
		WHERE o.user_id = $1 ORDER BY o.created_at DESC`

	listAllSQL = `SELECT ` + orderColumns + `
		FROM orders o LEFT JOIN delivery_agents a ON a.id = o.agent_id
		ORDER BY o.created_at DESC`

	listOpenSQL = `SELECT ` + orderColumns + `
		FROM orders o LEFT JOIN delivery_agents a ON a.id = o.agent_id
		WHERE o.status NOT IN ('Cancelled', 'Delivered')`

	listItemsSQL = `SELECT order_id, product_id, name, price, qty, unit, brand, category, sku, description, image
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`

	// Conditional: a cancellation that raced ahead of the batch wins.
	updateStatusConditionalSQL = `UPDATE orders SET status = $2
		WHERE id = $1 AND status <> 'Cancelled'`

	setStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order header and every line item inside one
// transaction, so the aggregate becomes visible all at once or not at all.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var agentID *string
	if o.Agent != nil {
		agentID = &o.Agent.ID
	}

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.UserID, o.Subtotal, o.Shipping, o.Tax, o.Total, o.Address,
		o.DeliveryDate, o.OrderedAt, o.OrderedDate, o.OrderedDay,
		string(o.Status), o.PaymentMethod, agentID,
	)
	if err != nil {
		return fmt.Errorf("inserting order %q: %w", o.ID, err)
	}

	batch := &pgx.Batch{}
	for i, item := range o.Items {
		batch.Queue(insertItemSQL,
			o.ID, i, item.ProductID, item.Name, item.Price, item.Qty,
			item.Unit, item.Brand, item.Category, item.SKU, item.Description, item.Image,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting items for order %q: %w", o.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID loads one full aggregate including its line items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	items, err := r.loadItems(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	return &o, nil
}

// ListByUser loads all aggregates owned by the given user, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return r.list(ctx, listByUserSQL, userID)
}

// ListAll loads every aggregate in the store, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	return r.list(ctx, listAllSQL)
}

// ListOpen loads order headers that the reconciliation pass may still
// advance. Line items are not populated.
func (r *OrderRepository) ListOpen(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOpenSQL)
	if err != nil {
		return nil, fmt.Errorf("listing open orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// UpdateStatuses writes back a reconciliation batch. Every update carries the
// status <> 'Cancelled' guard so a concurrent cancellation is never undone.
func (r *OrderRepository) UpdateStatuses(ctx context.Context, updates []order.StatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(updateStatusConditionalSQL, u.OrderID, string(u.Status))
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("updating %d order statuses: %w", len(updates), err)
	}
	return nil
}

// SetStatus overwrites one order's status unconditionally.
func (r *OrderRepository) SetStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, setStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("setting status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) list(ctx context.Context, sql string, args ...any) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	headers, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	if len(headers) == 0 {
		return headers, nil
	}

	ids := make([]string, len(headers))
	for i := range headers {
		ids[i] = headers[i].ID
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range headers {
		headers[i].Items = items[headers[i].ID]
	}
	return headers, nil
}

// loadItems fetches line items for a set of orders in a single query and
// groups them by order id, preserving their stored position.
func (r *OrderRepository) loadItems(ctx context.Context, ids []string) (map[string][]order.LineItem, error) {
	rows, err := r.pool.Query(ctx, listItemsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	defer rows.Close()

	grouped := make(map[string][]order.LineItem, len(ids))
	for rows.Next() {
		var (
			orderID string
			item    order.LineItem
		)
		if err := rows.Scan(
			&orderID, &item.ProductID, &item.Name, &item.Price, &item.Qty,
			&item.Unit, &item.Brand, &item.Category, &item.SKU, &item.Description, &item.Image,
		); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		grouped[orderID] = append(grouped[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	return grouped, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o          order.Order
		status     string
		agentID    *string
		agentName  *string
		agentPhone *string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Subtotal, &o.Shipping, &o.Tax, &o.Total, &o.Address,
		&o.DeliveryDate, &o.OrderedAt, &o.OrderedDate, &o.OrderedDay, &status,
		&o.PaymentMethod, &agentID, &agentName, &agentPhone,
	)
	o.Status = order.Status(status)
	if agentID != nil {
		o.Agent = &agent.Agent{ID: *agentID, Name: *agentName, Phone: *agentPhone}
	}
	return o, err
}
