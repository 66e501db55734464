package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"railbite/internal/testutil"
	"railbite/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(testutil.OpenInMemoryDB(t, "repo_"+t.Name()))
}

func seedUser(t *testing.T, s *Store, email string, role models.Role) *models.User {
	t.Helper()
	u, err := s.Users.Create(context.Background(), &models.User{Name: email, Email: email, PasswordHash: "x", Role: role})
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func sampleOrder(userID int64, number string) *models.Order {
	items := []models.OrderItem{
		{Name: "Beef Tehari", UnitPrice: decimal.NewFromInt(250), Quantity: 1},
		{Name: "Borhani", UnitPrice: decimal.NewFromInt(60), Quantity: 2},
	}
	return &models.Order{
		OrderNumber:   number,
		UserID:        userID,
		Items:         items,
		Contact:       models.ContactInfo{Name: "Rahim", Email: "rahim@example.com", Phone: "01700000000"},
		OrderType:     models.OrderTypeTrain,
		Booking:       models.BookingDetails{PassengerName: "Rahim", PassengerPhone: "01700000000", TrainNumber: "701", Coach: "KA", Seat: "12"},
		PaymentMethod: models.PaymentCash,
		Subtotal:      decimal.NewFromInt(370),
		VAT:           decimal.NewFromInt(20),
		DeliveryFee:   decimal.NewFromInt(50),
		Total:         decimal.NewFromInt(440),
	}
}
