package order

import "time"

// Status is the delivery status of an order. The string values are the wire
// values and the stored values; they never change shape between layers.
type Status string

const (
	StatusOrdered        Status = "Ordered"
	StatusShipped        Status = "Shipped"
	StatusOutForDelivery Status = "Out for Delivery"
	StatusDelivered      Status = "Delivered"
	StatusCancelled      Status = "Cancelled"
)

// Progression thresholds measured from the business-local placement instant.
const (
	shippedAfter        = 30 * time.Minute
	outForDeliveryAfter = time.Hour
)

// rank orders the forward progression. Cancelled sits outside the
// progression and is handled explicitly as an absorbing state.
func (s Status) rank() int {
	switch s {
	case StatusOrdered:
		return 0
	case StatusShipped:
		return 1
	case StatusOutForDelivery:
		return 2
	case StatusDelivered:
		return 3
	default:
		return -1
	}
}

// Terminal reports whether the reconciliation pass can still advance this
// status. Cancelled is absorbing; Delivered is the end of the progression.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusDelivered
}

// NextStatus computes the delivery status of an order from elapsed wall-clock
// time, evaluated entirely in the business timezone.
//
// The decision is a priority chain, first match wins: an order whose local
// delivery date is today is Delivered no matter how little time has elapsed;
// otherwise elapsed time picks the stage. Cancelled is absorbing, and the
// result never moves backward from the current status even if the wall clock
// does.
func NextStatus(current Status, placedLocal, nowLocal time.Time, deliveryDate time.Time) Status {
	if current == StatusCancelled {
		return StatusCancelled
	}

	elapsed := nowLocal.Sub(placedLocal)

	var next Status
	switch {
	case sameDate(nowLocal, deliveryDate):
		next = StatusDelivered
	case elapsed >= outForDeliveryAfter:
		next = StatusOutForDelivery
	case elapsed >= shippedAfter:
		next = StatusShipped
	default:
		next = StatusOrdered
	}

	if next.rank() < current.rank() {
		return current
	}
	return next
}

// sameDate compares calendar dates. Both arguments must already be in the
// business timezone.
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
