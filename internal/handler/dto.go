package handler

import (
	"github.com/shopspring/decimal"

	"github.com/freshkart/order-service/internal/domain/order"
)

// Wire types. Field names match the reference storefront contract; monetary
// amounts cross the wire as JSON numbers.

type itemPayload struct {
	ProductID   string  `json:"productId"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Qty         int     `json:"qty"`
	Unit        string  `json:"unit,omitempty"`
	Brand       string  `json:"brand,omitempty"`
	Category    string  `json:"category,omitempty"`
	SKU         string  `json:"sku,omitempty"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
}

type placeOrderRequest struct {
	UserID        string        `json:"userId"`
	Items         []itemPayload `json:"items"`
	Subtotal      float64       `json:"subtotal"`
	Shipping      float64       `json:"shipping"`
	Tax           float64       `json:"tax"`
	Total         float64       `json:"total"`
	Address       string        `json:"address"`
	DeliveryDate  string        `json:"deliveryDate"`
	OrderedTime   string        `json:"orderedTime,omitempty"`
	PaymentMethod string        `json:"paymentMethod"`
}

type orderResponse struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	Items         []itemPayload `json:"items"`
	Subtotal      float64       `json:"subtotal"`
	Shipping      float64       `json:"shipping"`
	Tax           float64       `json:"tax"`
	Total         float64       `json:"total"`
	Address       string        `json:"address"`
	DeliveryDate  string        `json:"deliveryDate"`
	OrderedDate   string        `json:"orderedDate"`
	OrderedDay    string        `json:"orderedDay"`
	OrderedTime   string        `json:"orderedTime"`
	Status        string        `json:"status"`
	PaymentMethod string        `json:"paymentMethod"`
	AgentName     string        `json:"agentName,omitempty"`
	AgentPhone    string        `json:"agentPhone,omitempty"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func toDomainItems(items []itemPayload) []order.LineItem {
	out := make([]order.LineItem, len(items))
	for i, it := range items {
		out[i] = order.LineItem{
			ProductID:   it.ProductID,
			Name:        it.Name,
			Price:       decimal.NewFromFloat(it.Price),
			Qty:         it.Qty,
			Unit:        it.Unit,
			Brand:       it.Brand,
			Category:    it.Category,
			SKU:         it.SKU,
			Description: it.Description,
			Image:       it.Image,
		}
	}
	return out
}

func toItemPayloads(items []order.LineItem) []itemPayload {
	out := make([]itemPayload, len(items))
	for i, it := range items {
		out[i] = itemPayload{
			ProductID:   it.ProductID,
			Name:        it.Name,
			Price:       it.Price.InexactFloat64(),
			Qty:         it.Qty,
			Unit:        it.Unit,
			Brand:       it.Brand,
			Category:    it.Category,
			SKU:         it.SKU,
			Description: it.Description,
			Image:       it.Image,
		}
	}
	return out
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		UserID:        o.UserID,
		Items:         toItemPayloads(o.Items),
		Subtotal:      o.Subtotal.InexactFloat64(),
		Shipping:      o.Shipping.InexactFloat64(),
		Tax:           o.Tax.InexactFloat64(),
		Total:         o.Total.InexactFloat64(),
		Address:       o.Address,
		DeliveryDate:  o.DeliveryDate,
		OrderedDate:   o.OrderedDate,
		OrderedDay:    o.OrderedDay,
		OrderedTime:   o.OrderedAt,
		Status:        string(o.Status),
		PaymentMethod: o.PaymentMethod,
	}
	if o.Agent != nil {
		resp.AgentName = o.Agent.Name
		resp.AgentPhone = o.Agent.Phone
	}
	return resp
}
