package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"railbite/internal/auth"
	"railbite/internal/testutil"
	"railbite/models"
	"railbite/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []OrderEvent
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, e OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	store  *repository.Store
	svc    *Services
	events *recordingPublisher
	admin  auth.Principal
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewStore(testutil.OpenInMemoryDB(t, "svc_"+t.Name()))
	events := &recordingPublisher{}
	svc := New(Deps{
		Store:     store,
		Hasher:    auth.NewBcrypt(4),
		Events:    events,
		Log:       zap.NewNop(),
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
		Staff:     StaffOptions{Location: time.UTC, OnTimeWindow: 45 * time.Minute},
	})
	env := &testEnv{store: store, svc: svc, events: events}
	env.admin = env.principal(t, "admin@railbite.test", models.RoleAdmin)
	return env
}

// principal creates an account and returns the caller identity for it.
func (e *testEnv) principal(t *testing.T, email string, role models.Role) auth.Principal {
	t.Helper()
	u, err := e.store.Users.Create(context.Background(), &models.User{
		Name:         email,
		Email:        email,
		Phone:        "01800000000",
		PasswordHash: "x",
		Role:         role,
	})
	require.NoError(t, err)
	return auth.Principal{UserID: u.ID, Name: u.Name, Role: u.Role}
}

// courier creates a delivery account plus its staff profile.
func (e *testEnv) courier(t *testing.T, name string) (auth.Principal, *models.DeliveryStaff) {
	t.Helper()
	p := e.principal(t, name+"@railbite.test", models.RoleDelivery)
	st, err := e.svc.Staff.Profile(context.Background(), p)
	require.NoError(t, err)
	return p, st
}

func (e *testEnv) staff(t *testing.T, id int64) *models.DeliveryStaff {
	t.Helper()
	st, err := e.store.Staff.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, st)
	return st
}

func (e *testEnv) order(t *testing.T, id int64) *models.Order {
	t.Helper()
	o, err := e.store.Orders.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, o)
	return o
}

// placeOrder creates an order for customer and optionally walks it to status via the admin path.
func (e *testEnv) placeOrder(t *testing.T, customer auth.Principal, status models.OrderStatus) *models.Order {
	t.Helper()
	ctx := context.Background()
	o, err := e.svc.Orders.Create(ctx, customer, trainOrderInput())
	require.NoError(t, err)
	path := map[models.OrderStatus][]models.OrderStatus{
		models.OrderStatusPending:   nil,
		models.OrderStatusConfirmed: {models.OrderStatusConfirmed},
		models.OrderStatusPreparing: {models.OrderStatusConfirmed, models.OrderStatusPreparing},
		models.OrderStatusOnTheWay:  {models.OrderStatusConfirmed, models.OrderStatusOnTheWay},
		models.OrderStatusDelivered: {models.OrderStatusConfirmed, models.OrderStatusOnTheWay, models.OrderStatusDelivered},
		models.OrderStatusCancelled: {models.OrderStatusCancelled},
	}[status]
	for _, s := range path {
		o, err = e.svc.Orders.UpdateStatus(ctx, e.admin, o.ID, UpdateStatusInput{Status: string(s)})
		require.NoError(t, err)
	}
	return o
}

// trainOrderInput is two lines (250 + 120), VAT 20, delivery fee 50.
func trainOrderInput() CreateOrderInput {
	return CreateOrderInput{
		Items: []OrderItemInput{
			{Name: "Kacchi Biryani", Price: decimal.NewFromInt(250), Quantity: 1},
			{Name: "Chicken Roll", Price: decimal.NewFromInt(120), Quantity: 1},
		},
		Contact:       models.ContactInfo{Name: "Karim", Email: "karim@example.com", Phone: "01711111111"},
		OrderType:     "train",
		Booking:       models.BookingDetails{PassengerName: "Karim", PassengerPhone: "01711111111", TrainNumber: "702", Coach: "GHA", Seat: "34"},
		PaymentMethod: "cash",
		VAT:           decimal.NewFromInt(20),
		DeliveryFee:   decimal.NewFromInt(50),
	}
}

func titles(ns []models.Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Title
	}
	return out
}
