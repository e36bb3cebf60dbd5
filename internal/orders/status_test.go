package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, v string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, v)
	require.NoError(t, err)
	return ts
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"forward step", StatusPlaced, StatusConfirmed, true},
		{"forward jump", StatusConfirmed, StatusOutForDelivery, true},
		{"backward", StatusShipped, StatusConfirmed, false},
		{"self", StatusPacked, StatusPacked, false},
		{"cancel request from placed", StatusPlaced, StatusCancelRequested, true},
		{"cancel request from out for delivery", StatusOutForDelivery, StatusCancelRequested, true},
		{"cancel request from delivered", StatusDelivered, StatusCancelRequested, false},
		{"cancel from cancel requested", StatusCancelRequested, StatusCancelled, true},
		{"cancel from shipped", StatusShipped, StatusCancelled, true},
		{"nothing leaves delivered", StatusDelivered, StatusCancelled, false},
		{"nothing leaves cancelled", StatusCancelled, StatusConfirmed, false},
		{"forward out of cancel requested", StatusCancelRequested, StatusShipped, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestShippingStarted(t *testing.T) {
	assert.False(t, StatusPlaced.ShippingStarted())
	assert.False(t, StatusPacked.ShippingStarted())
	assert.True(t, StatusShipped.ShippingStarted())
	assert.True(t, StatusAtHub.ShippingStarted())
	assert.True(t, StatusOutForDelivery.ShippingStarted())
	assert.True(t, StatusDelivered.ShippingStarted())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, s)

	_, err = ParseStatus("TELEPORTED")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSetStatusTimestampsAppendOnly(t *testing.T) {
	o := &Order{}
	o.SetStatus(StatusPlaced, mustTime(t, "2026-01-02T10:00:00Z"))
	first := o.Timestamps[StatusPlaced]

	o.SetStatus(StatusConfirmed, mustTime(t, "2026-01-02T11:00:00Z"))
	o.SetStatus(StatusPlaced, mustTime(t, "2026-01-02T12:00:00Z"))

	assert.Equal(t, StatusPlaced, o.Status)
	assert.Equal(t, first, o.Timestamps[StatusPlaced])
}
