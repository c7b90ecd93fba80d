package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// IST matches the reference deployment timezone (UTC+5:30).
var ist = time.FixedZone("IST", 5*3600+1800)

func istTime(day, hour, minute int) time.Time {
	return time.Date(2024, 1, day, hour, minute, 0, 0, ist)
}

func TestNextStatus_ElapsedThresholds(t *testing.T) {
	placed := istTime(1, 15, 30)
	delivery := istTime(3, 0, 0)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    Status
	}{
		{"fresh order stays ordered", 10 * time.Minute, StatusOrdered},
		{"just below shipped threshold", 30*time.Minute - time.Second, StatusOrdered},
		{"shipped at 30 minutes", 30 * time.Minute, StatusShipped},
		{"forty minutes elapsed", 40 * time.Minute, StatusShipped},
		{"just below out-for-delivery threshold", time.Hour - time.Second, StatusShipped},
		{"out for delivery at one hour", time.Hour, StatusOutForDelivery},
		{"sixty-five minutes elapsed", 65 * time.Minute, StatusOutForDelivery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextStatus(StatusOrdered, placed, placed.Add(tt.elapsed), delivery)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextStatus_DeliveryDateWins(t *testing.T) {
	placed := istTime(1, 15, 30)
	delivery := istTime(3, 0, 0)

	// On the delivery date the order is Delivered regardless of elapsed time,
	// even one minute after midnight.
	now := istTime(3, 0, 1)
	assert.Equal(t, StatusDelivered, NextStatus(StatusOrdered, placed, now, delivery))

	// Same-day delivery: delivered immediately, before any threshold.
	sameDay := istTime(1, 0, 0)
	assert.Equal(t, StatusDelivered, NextStatus(StatusOrdered, placed, placed.Add(time.Minute), sameDay))
}

func TestNextStatus_CancelledIsAbsorbing(t *testing.T) {
	placed := istTime(1, 15, 30)
	delivery := istTime(3, 0, 0)

	for _, now := range []time.Time{
		placed.Add(time.Minute),
		placed.Add(2 * time.Hour),
		istTime(3, 12, 0), // delivery date
	} {
		assert.Equal(t, StatusCancelled, NextStatus(StatusCancelled, placed, now, delivery))
	}
}

func TestNextStatus_NeverMovesBackward(t *testing.T) {
	placed := istTime(1, 15, 30)
	delivery := istTime(3, 0, 0)

	// A clock that jumped backward must not demote the order.
	now := placed.Add(5 * time.Minute)
	assert.Equal(t, StatusOutForDelivery, NextStatus(StatusOutForDelivery, placed, now, delivery))
	assert.Equal(t, StatusShipped, NextStatus(StatusShipped, placed, now, delivery))
	assert.Equal(t, StatusDelivered, NextStatus(StatusDelivered, placed, now, delivery))
}

func TestNextStatus_Idempotent(t *testing.T) {
	placed := istTime(1, 15, 30)
	delivery := istTime(3, 0, 0)
	now := placed.Add(45 * time.Minute)

	first := NextStatus(StatusOrdered, placed, now, delivery)
	second := NextStatus(first, placed, now, delivery)
	require.Equal(t, StatusShipped, first)
	assert.Equal(t, first, second)
}

// Reference scenario: order placed 2024-01-01T10:00:00Z, business timezone
// UTC+5:30, delivery date 2024-01-03.
func TestNextStatus_ReferenceScenario(t *testing.T) {
	placed := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC).In(ist) // 15:30 IST
	delivery := istTime(3, 0, 0)

	assert.Equal(t, StatusShipped,
		NextStatus(StatusOrdered, placed, placed.Add(40*time.Minute), delivery))
	assert.Equal(t, StatusOutForDelivery,
		NextStatus(StatusOrdered, placed, placed.Add(65*time.Minute), delivery))
	assert.Equal(t, StatusDelivered,
		NextStatus(StatusOrdered, placed, istTime(3, 9, 0), delivery))
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusDelivered.Terminal())
	assert.False(t, StatusOrdered.Terminal())
	assert.False(t, StatusShipped.Terminal())
	assert.False(t, StatusOutForDelivery.Terminal())
}
