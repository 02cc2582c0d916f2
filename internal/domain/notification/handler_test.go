package notification

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sagaline/ecommerce-backend/internal/domain/events"
	"github.com/sagaline/ecommerce-backend/internal/domain/order"
	"github.com/sagaline/ecommerce-backend/internal/domain/user"
	"github.com/sagaline/ecommerce-backend/internal/pkg/apperrors"
	"github.com/sagaline/ecommerce-backend/internal/pkg/email"
	"github.com/sagaline/ecommerce-backend/internal/pkg/metrics"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pushed struct {
	userID  uint
	payload Notification
}

type recordingPusher struct {
	pushes      []pushed
	connections int
}

func (p *recordingPusher) SendToUser(userID uint, payload interface{}) int {
	p.pushes = append(p.pushes, pushed{userID: userID, payload: payload.(Notification)})
	return p.connections
}

type recordingMailer struct {
	confirmations []email.OrderConfirmationData
	updates       []email.OrderStatusUpdateData
	welcomes      []string
	err           error
}

func (m *recordingMailer) SendOrderConfirmationEmail(_ context.Context, data email.OrderConfirmationData) error {
	m.confirmations = append(m.confirmations, data)
	return m.err
}

func (m *recordingMailer) SendOrderStatusUpdateEmail(_ context.Context, data email.OrderStatusUpdateData) error {
	m.updates = append(m.updates, data)
	return m.err
}

func (m *recordingMailer) SendWelcomeEmail(_ context.Context, userEmail, _ string) error {
	m.welcomes = append(m.welcomes, userEmail)
	return m.err
}

type userTable map[uint]*user.User

func (t userTable) GetProfile(_ context.Context, id uint) (*user.User, error) {
	if u, ok := t[id]; ok {
		return u, nil
	}
	return nil, apperrors.NotFound("user not found")
}

type orderTable map[uint]*order.View

func (t orderTable) GetOrderForAdmin(_ context.Context, id uint) (*order.View, error) {
	if v, ok := t[id]; ok {
		return v, nil
	}
	return nil, apperrors.NotFound("order not found")
}

type fixture struct {
	pusher  *recordingPusher
	mailer  *recordingMailer
	sink    *metrics.Memory
	handler *Handler
}

func newFixture() *fixture {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		pusher: &recordingPusher{connections: 2},
		mailer: &recordingMailer{},
		sink:   metrics.NewMemory(),
	}
	users := userTable{7: {ID: 7, Email: "kim@example.com", FirstName: "Min", LastName: "Kim"}}
	orders := orderTable{42: {
		ID:              42,
		OrderNumber:     "ORD-20240101-ABCDEF12",
		UserID:          7,
		PaymentMethod:   "CARD",
		ShippingAddress: "1 Main St",
		ShippingCity:    "Seoul",
		Items: []order.ItemView{{
			ProductName: "Laptop",
			Quantity:    2,
			Price:       decimal.NewFromInt(1500000),
			Subtotal:    decimal.NewFromInt(3000000),
		}},
	}}
	f.handler = NewHandler(f.pusher, f.mailer, users, orders, f.sink, logger)
	f.handler.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func TestHandleOrderCreated(t *testing.T) {
	f := newFixture()
	event := events.NewOrderCreated(42, 7, decimal.NewFromInt(3000000), "PENDING", nil)

	require.NoError(t, f.handler.Handle(context.Background(), events.TopicOrderEvents, event))

	require.Len(t, f.pusher.pushes, 1)
	assert.Equal(t, uint(7), f.pusher.pushes[0].userID)
	assert.Equal(t, KindOrderCreated, f.pusher.pushes[0].payload.Kind)
	assert.Contains(t, f.pusher.pushes[0].payload.Message, "3000000.00")

	require.Len(t, f.mailer.confirmations, 1)
	sent := f.mailer.confirmations[0]
	assert.Equal(t, "kim@example.com", sent.UserEmail)
	assert.Equal(t, "Min Kim", sent.UserName)
	assert.Equal(t, "ORD-20240101-ABCDEF12", sent.OrderNumber)
	assert.Equal(t, "1 Main St, Seoul", sent.ShippingTo)
	require.Len(t, sent.Items, 1)
	assert.Equal(t, "3000000.00", sent.Items[0].Subtotal)

	assert.Equal(t, float64(1), f.sink.Value(metrics.EventsConsumed, metrics.Tags{"topic": events.TopicOrderEvents, "event_type": events.TypeOrderCreated}))
	assert.Equal(t, float64(2), f.sink.Value(metrics.NotificationsDelivered, metrics.Tags{"channel": "websocket", "result": "sent"}))
	assert.Equal(t, float64(1), f.sink.Value(metrics.NotificationsDelivered, metrics.Tags{"channel": "email", "result": "sent"}))
}

func TestHandleOrderConfirmed(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.handler.Handle(context.Background(), events.TopicOrderEvents, events.NewOrderConfirmed(42, 7, "CONFIRMED")))

	require.Len(t, f.pusher.pushes, 1)
	assert.Equal(t, KindOrderConfirmed, f.pusher.pushes[0].payload.Kind)
	require.Len(t, f.mailer.updates, 1)
	assert.Equal(t, "CONFIRMED", f.mailer.updates[0].Status)
	assert.Equal(t, "ORD-20240101-ABCDEF12", f.mailer.updates[0].OrderNumber)
}

func TestHandlePaymentCompletedPushesOnly(t *testing.T) {
	f := newFixture()
	event := events.NewPaymentCompleted(1, 42, 7, decimal.NewFromInt(3000000), "CARD", "TOSS_X")

	require.NoError(t, f.handler.Handle(context.Background(), events.TopicPaymentEvents, event))

	require.Len(t, f.pusher.pushes, 1)
	assert.Equal(t, KindPaymentCompleted, f.pusher.pushes[0].payload.Kind)
	assert.Empty(t, f.mailer.confirmations)
	assert.Empty(t, f.mailer.updates)
}

func TestHandleUserRegisteredSendsWelcome(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.handler.Handle(context.Background(), events.TopicUserEvents, events.NewUserRegistered(9, "new@example.com", "New User")))

	assert.Equal(t, []string{"new@example.com"}, f.mailer.welcomes)
	assert.Empty(t, f.pusher.pushes)
}

func TestEmailFailuresAreSwallowed(t *testing.T) {
	f := newFixture()
	f.mailer.err = errors.New("smtp down")

	err := f.handler.Handle(context.Background(), events.TopicOrderEvents, events.NewOrderConfirmed(42, 7, "CONFIRMED"))
	require.NoError(t, err)
	assert.Equal(t, float64(1), f.sink.Value(metrics.NotificationsDelivered, metrics.Tags{"channel": "email", "result": "failed"}))
}

func TestUnknownRecipientSkipsEmail(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.handler.Handle(context.Background(), events.TopicOrderEvents, events.NewOrderConfirmed(42, 99, "CONFIRMED")))

	assert.Len(t, f.pusher.pushes, 1)
	assert.Empty(t, f.mailer.updates)
}

func TestOptionalCollaborators(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	sink := metrics.NewMemory()
	handler := NewHandler(nil, nil, nil, nil, sink, logger)

	event := events.NewOrderCreated(1, 2, decimal.NewFromInt(10), "PENDING", nil)
	require.NoError(t, handler.Handle(context.Background(), events.TopicOrderEvents, event))
	assert.Equal(t, float64(1), sink.Value(metrics.EventsConsumed, metrics.Tags{"topic": events.TopicOrderEvents, "event_type": events.TypeOrderCreated}))
}
