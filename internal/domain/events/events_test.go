package events

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderCreatedPayloadShape(t *testing.T) {
	event := NewOrderCreated(10, 3, decimal.NewFromInt(3000000), "PENDING", []OrderItem{
		{ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(1500000)},
	})

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))

	assert.Equal(t, event.EventID.String(), body["eventId"])
	assert.Equal(t, TypeOrderCreated, body["eventType"])
	assert.Equal(t, SourceOrderService, body["source"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Equal(t, float64(10), body["orderId"])
	assert.Equal(t, float64(3), body["userId"])
	assert.Equal(t, "3000000", body["totalAmount"])
	assert.Len(t, body["items"], 1)
}

func TestNewEventsHaveUniqueIDs(t *testing.T) {
	a := NewOrderConfirmed(1, 1, "CONFIRMED")
	b := NewOrderConfirmed(1, 1, "CONFIRMED")
	assert.NotEqual(t, a.EventID, b.EventID)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		check func(t *testing.T, got Event)
	}{
		{
			name:  "order created",
			event: NewOrderCreated(1, 2, decimal.NewFromInt(100), "PENDING", nil),
			check: func(t *testing.T, got Event) {
				oc, ok := got.(*OrderCreated)
				require.True(t, ok)
				assert.Equal(t, uint(1), oc.OrderID)
				assert.True(t, decimal.NewFromInt(100).Equal(oc.TotalAmount))
			},
		},
		{
			name:  "order confirmed",
			event: NewOrderConfirmed(5, 6, "CONFIRMED"),
			check: func(t *testing.T, got Event) {
				oc, ok := got.(*OrderConfirmed)
				require.True(t, ok)
				assert.Equal(t, uint(6), oc.UserID)
			},
		},
		{
			name:  "user registered",
			event: NewUserRegistered(9, "kim@example.com", "Kim Minsu"),
			check: func(t *testing.T, got Event) {
				ur, ok := got.(*UserRegistered)
				require.True(t, ok)
				assert.Equal(t, "Kim Minsu", ur.FullName)
			},
		},
		{
			name:  "payment completed",
			event: NewPaymentCompleted(1, 2, 3, decimal.NewFromInt(5000), "CARD", "TOSS_x"),
			check: func(t *testing.T, got Event) {
				pc, ok := got.(*PaymentCompleted)
				require.True(t, ok)
				assert.Equal(t, "TOSS_x", pc.TransactionID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			require.NoError(t, err)

			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.event.EventHeader().EventID, got.EventHeader().EventID)
			tt.check(t, got)
		})
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"eventType":"Nope"}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}
