package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the current progress of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusOnTheWay  OrderStatus = "on_the_way"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// AllOrderStatuses lists every canonical status in lifecycle order.
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusOnTheWay,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ParseOrderStatus normalises the status spellings clients have used over time
// ("ready", "ontheway", "on-the-way", "canceled", ...) to the canonical enum.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return OrderStatusPending, true
	case "confirmed":
		return OrderStatusConfirmed, true
	case "preparing":
		return OrderStatusPreparing, true
	case "on_the_way", "ontheway", "on-the-way", "on the way", "ready", "out_for_delivery":
		return OrderStatusOnTheWay, true
	case "delivered":
		return OrderStatusDelivered, true
	case "cancelled", "canceled":
		return OrderStatusCancelled, true
	}
	return "", false
}

// IsTerminal reports whether no further transitions are permitted.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Label is the customer-facing wording of a status.
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPending:
		return "Pending"
	case OrderStatusConfirmed:
		return "Confirmed"
	case OrderStatusPreparing:
		return "Being Prepared"
	case OrderStatusOnTheWay:
		return "On the Way"
	case OrderStatusDelivered:
		return "Delivered"
	case OrderStatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// DeliveryStatus tracks the courier side of an order.
type DeliveryStatus string

const (
	DeliveryStatusUnassigned DeliveryStatus = "unassigned"
	DeliveryStatusAssigned   DeliveryStatus = "assigned"
	DeliveryStatusPickedUp   DeliveryStatus = "picked_up"
	DeliveryStatusDelivered  DeliveryStatus = "delivered"
	DeliveryStatusCancelled  DeliveryStatus = "cancelled"
)

// ParseDeliveryStatus validates a delivery sub-status.
func ParseDeliveryStatus(s string) (DeliveryStatus, bool) {
	switch d := DeliveryStatus(strings.ToLower(strings.TrimSpace(s))); d {
	case DeliveryStatusUnassigned, DeliveryStatusAssigned, DeliveryStatusPickedUp, DeliveryStatusDelivered, DeliveryStatusCancelled:
		return d, true
	}
	return "", false
}

// OrderType is where the customer receives the food.
type OrderType string

const (
	OrderTypeTrain   OrderType = "train"
	OrderTypeStation OrderType = "station"
)

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentMobile PaymentMethod = "mobile"
	PaymentCard   PaymentMethod = "card"
)

// PaymentStatus is pending until money is collected.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// OrderItem is a snapshot of a menu line at checkout time.
type OrderItem struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"-"`
	Name      string          `db:"name" json:"name"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"price"`
	Quantity  int             `db:"quantity" json:"quantity"`
}

// LineTotal is UnitPrice * Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ContactInfo is who to call about the order.
type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// BookingDetails holds the train seat or station pickup data.
// Which fields are required depends on the order type.
type BookingDetails struct {
	PassengerName  string `json:"passenger_name"`
	PassengerPhone string `json:"passenger_phone"`
	TrainNumber    string `json:"train_number"`
	Coach          string `json:"coach"`
	Seat           string `json:"seat"`
	PickupStation  string `json:"pickup_station,omitempty"`
}

// PaymentInfo holds the method-specific payment fields.
type PaymentInfo struct {
	MobileProvider string `json:"mobile_provider,omitempty"`
	TransactionID  string `json:"transaction_id,omitempty"`
	CardLastFour   string `json:"card_last_four,omitempty"`
	CardholderName string `json:"cardholder_name,omitempty"`
}

// Order is a customer's placed purchase. Orders are never deleted.
type Order struct {
	ID                  int64           `db:"id" json:"id"`
	OrderNumber         string          `db:"order_number" json:"order_number"`
	UserID              int64           `db:"user_id" json:"user_id"`
	Items               []OrderItem     `json:"items"`
	Contact             ContactInfo     `json:"contact"`
	OrderType           OrderType       `db:"order_type" json:"order_type"`
	Booking             BookingDetails  `json:"booking"`
	PaymentMethod       PaymentMethod   `db:"payment_method" json:"payment_method"`
	Payment             PaymentInfo     `json:"payment"`
	PaymentStatus       PaymentStatus   `db:"payment_status" json:"payment_status"`
	Subtotal            decimal.Decimal `db:"subtotal" json:"subtotal"`
	VAT                 decimal.Decimal `db:"vat" json:"vat"`
	DeliveryFee         decimal.Decimal `db:"delivery_fee" json:"delivery_fee"`
	Total               decimal.Decimal `db:"total" json:"total"`
	Status              OrderStatus     `db:"status" json:"status"`
	DeliveryStatus      DeliveryStatus  `db:"delivery_status" json:"delivery_status"`
	SpecialInstructions string          `db:"special_instructions" json:"special_instructions,omitempty"`
	// AssignedStaffID is the active courier; it is cleared once the order is terminal.
	AssignedStaffID *int64 `db:"assigned_staff_id" json:"assigned_staff_id,omitempty"`
	// DeliveredByStaffID survives completion and feeds ratings and delivery totals.
	DeliveredByStaffID *int64     `db:"delivered_by_staff_id" json:"delivered_by_staff_id,omitempty"`
	AssignedAt         *time.Time `db:"assigned_at" json:"assigned_at,omitempty"`
	DeliveredAt        *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelReason       string     `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}
