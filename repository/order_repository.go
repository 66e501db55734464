package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"railbite/models"
)

// OrderRepository is the core repository for Order entities and their line items.
type OrderRepository struct {
	db DBTX
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, order_number, user_id, contact_name, contact_email, contact_phone, order_type,
passenger_name, passenger_phone, train_number, coach, seat, pickup_station,
payment_method, mobile_provider, transaction_id, card_last_four, cardholder_name, payment_status,
subtotal, vat, delivery_fee, total, status, delivery_status, special_instructions,
assigned_staff_id, delivered_by_staff_id, assigned_at, delivered_at, cancelled_at, cancel_reason,
created_at, updated_at`

// Create inserts an order and its items. Status defaults to pending. It should
// run inside Store.WithTx so the order row and its items land together.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) (*models.Order, error) {
	if o == nil {
		return nil, errors.New("order is nil")
	}
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	if o.DeliveryStatus == "" {
		o.DeliveryStatus = models.DeliveryStatusUnassigned
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = models.PaymentStatusPending
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
INSERT INTO orders (order_number, user_id, contact_name, contact_email, contact_phone, order_type,
  passenger_name, passenger_phone, train_number, coach, seat, pickup_station,
  payment_method, mobile_provider, transaction_id, card_last_four, cardholder_name, payment_status,
  subtotal, vat, delivery_fee, total, status, delivery_status, special_instructions, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.OrderNumber, o.UserID, o.Contact.Name, o.Contact.Email, o.Contact.Phone, string(o.OrderType),
		o.Booking.PassengerName, o.Booking.PassengerPhone, o.Booking.TrainNumber, o.Booking.Coach, o.Booking.Seat, o.Booking.PickupStation,
		string(o.PaymentMethod), o.Payment.MobileProvider, o.Payment.TransactionID, o.Payment.CardLastFour, o.Payment.CardholderName, string(o.PaymentStatus),
		o.Subtotal.String(), o.VAT.String(), o.DeliveryFee.String(), o.Total.String(),
		string(o.Status), string(o.DeliveryStatus), o.SpecialInstructions, now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	for _, it := range o.Items {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO order_items (order_id, name, unit_price, quantity) VALUES (?,?,?,?)`,
			id, it.Name, it.UnitPrice.String(), it.Quantity); err != nil {
			return nil, fmt.Errorf("insert item %q: %w", it.Name, err)
		}
	}
	o2, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o2 == nil {
		return nil, fmt.Errorf("created order not found: id=%d", id)
	}
	return o2, nil
}

// GetByID fetches an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err != nil || o == nil {
		return o, err
	}
	if err := r.attachItems(ctx, []*models.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// GetByNumber fetches an order by its human-readable order number.
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = ?`, number))
	if err != nil || o == nil {
		return o, err
	}
	if err := r.attachItems(ctx, []*models.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateLifecycle persists the mutable lifecycle columns of o: status, delivery
// and payment status, assignment and timestamps. Line items and money are immutable.
func (r *OrderRepository) UpdateLifecycle(ctx context.Context, o *models.Order) error {
	if o == nil {
		return errors.New("order is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	o.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE orders
SET status = ?, delivery_status = ?, payment_status = ?, assigned_staff_id = ?, delivered_by_staff_id = ?,
    assigned_at = ?, delivered_at = ?, cancelled_at = ?, cancel_reason = ?, updated_at = ?
WHERE id = ?`,
		string(o.Status), string(o.DeliveryStatus), string(o.PaymentStatus), o.AssignedStaffID, o.DeliveredByStaffID,
		o.AssignedAt, o.DeliveredAt, o.CancelledAt, o.CancelReason, o.UpdatedAt, o.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// StaffCounters derives a staff member's counters from the orders table:
// active assignments, deliveries since dayStart, lifetime deliveries and the
// share of deliveries completed within onTimeWindow of assignment.
func (r *OrderRepository) StaffCounters(ctx context.Context, staffID int64, dayStart time.Time, onTimeWindow time.Duration) (models.StaffCounters, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var c models.StaffCounters
	var onTime int
	err := r.db.QueryRowContext(ctx, `
SELECT
  (SELECT COUNT(*) FROM orders WHERE assigned_staff_id = ? AND status NOT IN ('delivered','cancelled')),
  (SELECT COUNT(*) FROM orders WHERE delivered_by_staff_id = ? AND status = 'delivered' AND julianday(delivered_at) >= julianday(?)),
  (SELECT COUNT(*) FROM orders WHERE delivered_by_staff_id = ? AND status = 'delivered'),
  (SELECT COUNT(*) FROM orders WHERE delivered_by_staff_id = ? AND status = 'delivered'
      AND assigned_at IS NOT NULL AND (julianday(delivered_at) - julianday(assigned_at)) * 86400.0 <= ?)`,
		staffID, staffID, dayStart.UTC(), staffID, staffID, onTimeWindow.Seconds()).
		Scan(&c.Active, &c.CompletedToday, &c.TotalDeliveries, &onTime)
	if err != nil {
		return c, err
	}
	c.OnTimeRate = 100
	if c.TotalDeliveries > 0 {
		rate := float64(onTime) * 100 / float64(c.TotalDeliveries)
		c.OnTimeRate = float64(int(rate*10+0.5)) / 10
	}
	return c, nil
}

// attachItems loads the line items of every order in one query.
func (r *OrderRepository) attachItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Order, len(orders))
	placeholders := make([]string, len(orders))
	args := make([]any, len(orders))
	for i, o := range orders {
		byID[o.ID] = o
		placeholders[i] = "?"
		args[i] = o.ID
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, order_id, name, unit_price, quantity FROM order_items WHERE order_id IN (`+
		strings.Join(placeholders, ",")+`) ORDER BY order_id, id`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Name, &it.UnitPrice, &it.Quantity); err != nil {
			return err
		}
		if o := byID[it.OrderID]; o != nil {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func scanOrder(sc scanner) (*models.Order, error) {
	var o models.Order
	var orderType, paymentMethod, paymentStatus, status, deliveryStatus string
	var assigned, deliveredBy sql.NullInt64
	var assignedAt, deliveredAt, cancelledAt sql.NullTime
	err := sc.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Contact.Name, &o.Contact.Email, &o.Contact.Phone, &orderType,
		&o.Booking.PassengerName, &o.Booking.PassengerPhone, &o.Booking.TrainNumber, &o.Booking.Coach, &o.Booking.Seat, &o.Booking.PickupStation,
		&paymentMethod, &o.Payment.MobileProvider, &o.Payment.TransactionID, &o.Payment.CardLastFour, &o.Payment.CardholderName, &paymentStatus,
		&o.Subtotal, &o.VAT, &o.DeliveryFee, &o.Total, &status, &deliveryStatus, &o.SpecialInstructions,
		&assigned, &deliveredBy, &assignedAt, &deliveredAt, &cancelledAt, &o.CancelReason,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	o.OrderType = models.OrderType(orderType)
	o.PaymentMethod = models.PaymentMethod(paymentMethod)
	o.PaymentStatus = models.PaymentStatus(paymentStatus)
	o.Status = models.OrderStatus(status)
	o.DeliveryStatus = models.DeliveryStatus(deliveryStatus)
	o.AssignedStaffID = nullInt64Ptr(assigned)
	o.DeliveredByStaffID = nullInt64Ptr(deliveredBy)
	o.AssignedAt = nullTimePtr(assignedAt)
	o.DeliveredAt = nullTimePtr(deliveredAt)
	o.CancelledAt = nullTimePtr(cancelledAt)
	return &o, nil
}
