package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"railbite/internal/auth"
	"railbite/models"
	"railbite/repository"
)

const orderNumberAttempts = 5

// OrderOptions overrides collaborators that tests need to control.
type OrderOptions struct {
	Now         func() time.Time
	OrderNumber OrderNumberFunc
}

// OrderService drives the order lifecycle and delivery assignment. Every
// transition commits the order row and the affected staff counters in one
// transaction; notifications and events follow the commit and never fail it.
type OrderService struct {
	store     *repository.Store
	staff     *StaffService
	notes     *NotificationService
	events    EventPublisher
	log       *zap.Logger
	now       func() time.Time
	newNumber OrderNumberFunc
}

func NewOrderService(store *repository.Store, staff *StaffService, notes *NotificationService, events EventPublisher, log *zap.Logger, opts OrderOptions) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	if events == nil {
		events = NopPublisher{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OrderNumber == nil {
		opts.OrderNumber = NewOrderNumber
	}
	return &OrderService{
		store:     store,
		staff:     staff,
		notes:     notes,
		events:    events,
		log:       log.Named("orders"),
		now:       func() time.Time { return opts.Now().UTC() },
		newNumber: opts.OrderNumber,
	}
}

// OrderItemInput is one requested line.
type OrderItemInput struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// CreateOrderInput is a checkout request. Subtotal and Total are computed
// server-side; a non-zero Total that disagrees with the computation is rejected.
type CreateOrderInput struct {
	Items               []OrderItemInput      `json:"items"`
	Contact             models.ContactInfo    `json:"contact"`
	OrderType           string                `json:"order_type"`
	Booking             models.BookingDetails `json:"booking"`
	PaymentMethod       string                `json:"payment_method"`
	Payment             models.PaymentInfo    `json:"payment"`
	VAT                 decimal.Decimal       `json:"vat"`
	DeliveryFee         decimal.Decimal       `json:"delivery_fee"`
	Total               decimal.Decimal       `json:"total"`
	SpecialInstructions string                `json:"special_instructions"`
}

// Create validates and places an order at pending.
func (s *OrderService) Create(ctx context.Context, actor auth.Principal, in CreateOrderInput) (*models.Order, error) {
	if actor.Role != models.RoleCustomer {
		return nil, Forbidden("only customers can place orders")
	}
	o, err := buildOrder(in)
	if err != nil {
		return nil, err
	}
	o.UserID = actor.UserID

	var created *models.Order
	for attempt := 1; attempt <= orderNumberAttempts; attempt++ {
		o.OrderNumber = s.newNumber(s.now())
		err = s.store.WithTx(ctx, func(tx *repository.Store) error {
			out, err := tx.Orders.Create(ctx, o)
			if err != nil {
				return err
			}
			created = out
			return nil
		})
		if err == nil {
			break
		}
		if !repository.IsUniqueViolation(err) {
			return nil, err
		}
		s.log.Warn("order number collision", zap.String("order_number", o.OrderNumber), zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, fmt.Errorf("allocate order number: %w", err)
	}

	var box outbox
	box.user(created.UserID, Message{
		Type:    models.NotificationOrder,
		Title:   "Order placed",
		Body:    fmt.Sprintf("Your order %s has been placed. Total ৳%s.", created.OrderNumber, created.Total.StringFixed(2)),
		OrderID: &created.ID,
	})
	box.role(models.RoleAdmin, Message{
		Type:    models.NotificationOrder,
		Title:   "New order",
		Body:    fmt.Sprintf("New order %s from %s (৳%s).", created.OrderNumber, created.Contact.Name, created.Total.StringFixed(2)),
		OrderID: &created.ID,
	})
	s.after(ctx, &box, created, EventOrderCreated, nil)
	s.log.Info("order created", zap.Int64("order_id", created.ID), zap.String("order_number", created.OrderNumber))
	return created, nil
}

func buildOrder(in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, Validation("order must contain at least one item")
	}
	o := &models.Order{
		Contact:             trimContact(in.Contact),
		Booking:             trimBooking(in.Booking),
		Payment:             trimPayment(in.Payment),
		SpecialInstructions: strings.TrimSpace(in.SpecialInstructions),
		Status:              models.OrderStatusPending,
		DeliveryStatus:      models.DeliveryStatusUnassigned,
		PaymentStatus:       models.PaymentStatusPending,
	}
	subtotal := decimal.Zero
	for i, it := range in.Items {
		name := strings.TrimSpace(it.Name)
		switch {
		case name == "":
			return nil, Validation("item %d: name is required", i+1)
		case it.Price.IsNegative():
			return nil, Validation("item %d: price must not be negative", i+1)
		case it.Quantity < 1:
			return nil, Validation("item %d: quantity must be at least 1", i+1)
		}
		line := models.OrderItem{Name: name, UnitPrice: it.Price, Quantity: it.Quantity}
		o.Items = append(o.Items, line)
		subtotal = subtotal.Add(line.LineTotal())
	}

	if o.Contact.Name == "" || o.Contact.Phone == "" {
		return nil, Validation("contact name and phone are required")
	}
	if o.Contact.Email != "" {
		if _, err := mail.ParseAddress(o.Contact.Email); err != nil {
			return nil, Validation("invalid contact email")
		}
	}

	switch models.OrderType(strings.ToLower(strings.TrimSpace(in.OrderType))) {
	case models.OrderTypeTrain:
		o.OrderType = models.OrderTypeTrain
	case models.OrderTypeStation:
		o.OrderType = models.OrderTypeStation
	default:
		return nil, Validation("order type must be train or station")
	}
	b := o.Booking
	if b.PassengerName == "" || b.PassengerPhone == "" || b.TrainNumber == "" || b.Coach == "" || b.Seat == "" {
		return nil, Validation("passenger name, passenger phone, train number, coach and seat are required")
	}
	if o.OrderType == models.OrderTypeStation && b.PickupStation == "" {
		return nil, Validation("pickup station is required for station orders")
	}
	if o.OrderType == models.OrderTypeTrain {
		o.Booking.PickupStation = ""
	}

	switch models.PaymentMethod(strings.ToLower(strings.TrimSpace(in.PaymentMethod))) {
	case models.PaymentCash:
		o.PaymentMethod = models.PaymentCash
		o.Payment = models.PaymentInfo{}
	case models.PaymentMobile:
		o.PaymentMethod = models.PaymentMobile
		if o.Payment.MobileProvider == "" || o.Payment.TransactionID == "" {
			return nil, Validation("mobile payments require a provider and transaction id")
		}
		o.Payment.CardLastFour, o.Payment.CardholderName = "", ""
	case models.PaymentCard:
		o.PaymentMethod = models.PaymentCard
		if !isFourDigits(o.Payment.CardLastFour) || o.Payment.CardholderName == "" {
			return nil, Validation("card payments require the last four digits and the cardholder name")
		}
		o.Payment.MobileProvider, o.Payment.TransactionID = "", ""
	default:
		return nil, Validation("payment method must be cash, mobile or card")
	}

	if in.VAT.IsNegative() || in.DeliveryFee.IsNegative() {
		return nil, Validation("vat and delivery fee must not be negative")
	}
	o.Subtotal = subtotal
	o.VAT = in.VAT
	o.DeliveryFee = in.DeliveryFee
	o.Total = subtotal.Add(in.VAT).Add(in.DeliveryFee)
	if !in.Total.IsZero() && !in.Total.Equal(o.Total) {
		return nil, Validation("total %s does not match computed total %s", in.Total.String(), o.Total.String())
	}
	return o, nil
}

func trimContact(c models.ContactInfo) models.ContactInfo {
	return models.ContactInfo{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.ToLower(strings.TrimSpace(c.Email)),
		Phone: strings.TrimSpace(c.Phone),
	}
}

func trimBooking(b models.BookingDetails) models.BookingDetails {
	return models.BookingDetails{
		PassengerName:  strings.TrimSpace(b.PassengerName),
		PassengerPhone: strings.TrimSpace(b.PassengerPhone),
		TrainNumber:    strings.TrimSpace(b.TrainNumber),
		Coach:          strings.TrimSpace(b.Coach),
		Seat:           strings.TrimSpace(b.Seat),
		PickupStation:  strings.TrimSpace(b.PickupStation),
	}
}

func trimPayment(p models.PaymentInfo) models.PaymentInfo {
	return models.PaymentInfo{
		MobileProvider: strings.TrimSpace(p.MobileProvider),
		TransactionID:  strings.TrimSpace(p.TransactionID),
		CardLastFour:   strings.TrimSpace(p.CardLastFour),
		CardholderName: strings.TrimSpace(p.CardholderName),
	}
}

func isFourDigits(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// UpdateStatusInput is an admin status change. DeliveryStatus is optional.
type UpdateStatusInput struct {
	Status         string `json:"status" binding:"required"`
	DeliveryStatus string `json:"delivery_status"`
}

// UpdateStatus moves an order along the lifecycle on behalf of an admin.
// Repeating the current status is accepted only to change the delivery sub-status.
func (s *OrderService) UpdateStatus(ctx context.Context, actor auth.Principal, id int64, in UpdateStatusInput) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	to, ok := models.ParseOrderStatus(in.Status)
	if !ok {
		return nil, Validation("invalid order status %q", in.Status)
	}
	var sub models.DeliveryStatus
	if in.DeliveryStatus != "" {
		if sub, ok = models.ParseDeliveryStatus(in.DeliveryStatus); !ok {
			return nil, Validation("invalid delivery status %q", in.DeliveryStatus)
		}
	}

	var (
		o        *models.Order
		from     models.OrderStatus
		released *models.DeliveryStaff
	)
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		o, err = tx.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}
		from = o.Status
		if to != from || sub == "" || from.IsTerminal() {
			if err := checkTransition(from, to); err != nil {
				return err
			}
		}
		staffID := s.applyStatus(o, to)
		if sub != "" && !to.IsTerminal() {
			if err := checkDeliveryStatus(o, sub); err != nil {
				return err
			}
			o.DeliveryStatus = sub
		}
		if err := tx.Orders.UpdateLifecycle(ctx, o); err != nil {
			return err
		}
		if staffID != nil {
			released, err = s.staff.syncByID(ctx, tx, *staffID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if to == from {
		return o, nil
	}

	var box outbox
	s.statusMessages(&box, o, released, false)
	if to == models.OrderStatusCancelled && released != nil && released.UserID != nil {
		box.user(*released.UserID, cancelledForStaff(o))
	}
	s.after(ctx, &box, o, eventTypeFor(to), staffRef(released))
	s.log.Info("order status updated",
		zap.Int64("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return o, nil
}

// applyStatus moves o to status to and returns the staff member that must be
// resynchronised afterwards, if any.
func (s *OrderService) applyStatus(o *models.Order, to models.OrderStatus) *int64 {
	now := s.now()
	staffID := o.AssignedStaffID
	o.Status = to
	switch to {
	case models.OrderStatusOnTheWay:
		if o.AssignedStaffID != nil {
			o.DeliveryStatus = models.DeliveryStatusPickedUp
		}
	case models.OrderStatusDelivered:
		o.DeliveredAt = &now
		o.DeliveryStatus = models.DeliveryStatusDelivered
		o.DeliveredByStaffID = o.AssignedStaffID
		o.AssignedStaffID = nil
		if o.PaymentMethod == models.PaymentCash {
			o.PaymentStatus = models.PaymentStatusPaid
		}
	case models.OrderStatusCancelled:
		o.CancelledAt = &now
		o.DeliveryStatus = models.DeliveryStatusCancelled
		o.AssignedStaffID = nil
	}
	if to.IsTerminal() {
		return staffID
	}
	return nil
}

// AssignStaff hands a confirmed or preparing order to a delivery staff member.
// A previously assigned staff member is released in the same transaction.
func (s *OrderService) AssignStaff(ctx context.Context, actor auth.Principal, orderID, staffID int64) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	var (
		o        *models.Order
		assigned *models.DeliveryStaff
		previous *models.DeliveryStaff
		noop     bool
	)
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		o, err = tx.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}
		if !assignable(o.Status) {
			return InvalidState("only confirmed or preparing orders can be assigned; order is %s", o.Status)
		}
		assigned, err = tx.Staff.GetByID(ctx, staffID)
		if err != nil {
			return err
		}
		if assigned == nil {
			return ErrStaffNotFound
		}
		if assigned.Status == models.StaffStatusOffline {
			return ErrStaffOffline
		}
		if o.AssignedStaffID != nil && *o.AssignedStaffID == staffID {
			noop = true
			return nil
		}
		prevID := o.AssignedStaffID
		now := s.now()
		o.AssignedStaffID = &staffID
		o.AssignedAt = &now
		o.DeliveryStatus = models.DeliveryStatusAssigned
		if err := tx.Orders.UpdateLifecycle(ctx, o); err != nil {
			return err
		}
		if prevID != nil {
			if previous, err = s.staff.syncByID(ctx, tx, *prevID); err != nil {
				return err
			}
		}
		return s.staff.sync(ctx, tx, assigned)
	})
	if err != nil {
		return nil, err
	}
	if noop {
		return o, nil
	}

	var box outbox
	if assigned.UserID != nil {
		box.user(*assigned.UserID, Message{
			Type:    models.NotificationDelivery,
			Title:   "New delivery assigned",
			Body:    fmt.Sprintf("Order %s for %s (%s): %s.", o.OrderNumber, o.Contact.Name, o.Contact.Phone, dropOff(o)),
			OrderID: &o.ID,
		})
	}
	box.user(o.UserID, Message{
		Type:    models.NotificationDelivery,
		Title:   "Delivery partner assigned",
		Body:    fmt.Sprintf("%s will deliver your order %s.", assigned.Name, o.OrderNumber),
		OrderID: &o.ID,
	})
	box.role(models.RoleAdmin, Message{
		Type:    models.NotificationDelivery,
		Title:   "Staff assigned",
		Body:    fmt.Sprintf("%s has been assigned to order %s.", assigned.Name, o.OrderNumber),
		OrderID: &o.ID,
	})
	if previous != nil && previous.UserID != nil {
		box.user(*previous.UserID, Message{
			Type:    models.NotificationDelivery,
			Title:   "Delivery reassigned",
			Body:    fmt.Sprintf("Order %s has been reassigned to another delivery partner.", o.OrderNumber),
			OrderID: &o.ID,
		})
	}
	s.after(ctx, &box, o, EventOrderAssigned, &assigned.ID)
	s.log.Info("order assigned", zap.Int64("order_id", o.ID), zap.Int64("staff_id", assigned.ID))
	return o, nil
}

// Cancel cancels a pending or confirmed order on behalf of its owner (or an admin).
func (s *OrderService) Cancel(ctx context.Context, actor auth.Principal, id int64, reason string) (*models.Order, error) {
	var (
		o        *models.Order
		released *models.DeliveryStaff
	)
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		o, err = tx.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}
		if o.UserID != actor.UserID && !actor.IsAdmin() {
			return ErrNotOrderOwner
		}
		if o.Status != models.OrderStatusPending && o.Status != models.OrderStatusConfirmed {
			return ErrCannotCancel
		}
		o.CancelReason = strings.TrimSpace(reason)
		staffID := s.applyStatus(o, models.OrderStatusCancelled)
		if err := tx.Orders.UpdateLifecycle(ctx, o); err != nil {
			return err
		}
		if staffID != nil {
			released, err = s.staff.syncByID(ctx, tx, *staffID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var box outbox
	body := fmt.Sprintf("Order %s was cancelled by the customer.", o.OrderNumber)
	if o.UserID != actor.UserID {
		body = fmt.Sprintf("Order %s was cancelled by %s.", o.OrderNumber, actor.Name)
		s.statusMessages(&box, o, nil, false)
	}
	if o.CancelReason != "" {
		body += " Reason: " + o.CancelReason
	}
	box.role(models.RoleAdmin, Message{Type: models.NotificationOrder, Title: "Order cancelled", Body: body, OrderID: &o.ID})
	if released != nil && released.UserID != nil {
		box.user(*released.UserID, cancelledForStaff(o))
	}
	s.after(ctx, &box, o, EventOrderCancelled, staffRef(released))
	s.log.Info("order cancelled", zap.Int64("order_id", o.ID), zap.Int64("by_user", actor.UserID))
	return o, nil
}

// ProgressInput is a courier's status update from the delivery portal.
type ProgressInput struct {
	Status string `json:"status" binding:"required"`
}

// ProgressDelivery lets the assigned courier pick up (on_the_way) or complete (delivered) an order.
func (s *OrderService) ProgressDelivery(ctx context.Context, actor auth.Principal, id int64, in ProgressInput) (*models.Order, error) {
	to, ok := models.ParseOrderStatus(in.Status)
	if !ok {
		return nil, Validation("invalid order status %q", in.Status)
	}
	var (
		o       *models.Order
		profile *models.DeliveryStaff
	)
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		profile, err = s.staff.profileFor(ctx, tx, actor)
		if err != nil {
			return err
		}
		o, err = tx.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}
		if o.AssignedStaffID == nil || *o.AssignedStaffID != profile.ID {
			return ErrNotAssignedToMe
		}
		if o.Status.IsTerminal() {
			return checkTransition(o.Status, to)
		}
		if !CanStaffTransition(o.Status, to) {
			return InvalidState("cannot move order from %s to %s", o.Status, to)
		}
		s.applyStatus(o, to)
		if err := tx.Orders.UpdateLifecycle(ctx, o); err != nil {
			return err
		}
		return s.staff.sync(ctx, tx, profile)
	})
	if err != nil {
		return nil, err
	}

	var box outbox
	s.statusMessages(&box, o, profile, true)
	s.after(ctx, &box, o, eventTypeFor(to), &profile.ID)
	s.log.Info("delivery progressed", zap.Int64("order_id", o.ID), zap.Int64("staff_id", profile.ID), zap.String("status", string(to)))
	return o, nil
}

// statusMessages queues the customer-facing notice for o's new status and,
// for courier-completed deliveries, the admin confirmation.
func (s *OrderService) statusMessages(box *outbox, o *models.Order, staff *models.DeliveryStaff, byStaff bool) {
	switch o.Status {
	case models.OrderStatusDelivered:
		box.user(o.UserID, Message{
			Type:    models.NotificationDelivery,
			Title:   "Order delivered",
			Body:    fmt.Sprintf("Your order %s has been delivered. Enjoy your meal!", o.OrderNumber),
			OrderID: &o.ID,
		})
		if byStaff && staff != nil {
			box.role(models.RoleAdmin, Message{
				Type:    models.NotificationDelivery,
				Title:   "Delivery completed",
				Body:    fmt.Sprintf("Order %s was delivered by %s.", o.OrderNumber, staff.Name),
				OrderID: &o.ID,
			})
		}
	case models.OrderStatusOnTheWay:
		body := fmt.Sprintf("Your order %s is %s.", o.OrderNumber, strings.ToLower(o.Status.Label()))
		if staff != nil {
			body = fmt.Sprintf("%s has picked up your order %s and is on the way.", staff.Name, o.OrderNumber)
		}
		box.user(o.UserID, Message{Type: models.NotificationDelivery, Title: "Order " + o.Status.Label(), Body: body, OrderID: &o.ID})
	default:
		box.user(o.UserID, Message{
			Type:    models.NotificationOrder,
			Title:   "Order " + o.Status.Label(),
			Body:    fmt.Sprintf("Your order %s status is now: %s.", o.OrderNumber, o.Status.Label()),
			OrderID: &o.ID,
		})
	}
}

func cancelledForStaff(o *models.Order) Message {
	return Message{
		Type:    models.NotificationDelivery,
		Title:   "Delivery cancelled",
		Body:    fmt.Sprintf("Order %s was cancelled and removed from your deliveries.", o.OrderNumber),
		OrderID: &o.ID,
	}
}

func dropOff(o *models.Order) string {
	b := o.Booking
	seat := fmt.Sprintf("train %s, coach %s, seat %s", b.TrainNumber, b.Coach, b.Seat)
	if o.OrderType == models.OrderTypeStation {
		return "pickup at " + b.PickupStation + " (" + seat + ")"
	}
	return seat
}

func staffRef(st *models.DeliveryStaff) *int64 {
	if st == nil {
		return nil
	}
	return &st.ID
}

// after dispatches queued notifications and publishes the order event.
// Both are best-effort: the transition has already committed.
func (s *OrderService) after(ctx context.Context, box *outbox, o *models.Order, eventType string, staffID *int64) {
	box.flush(ctx, s.notes)
	e := OrderEvent{
		Type:        eventType,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		StaffID:     staffID,
		OccurredAt:  s.now(),
	}
	if err := s.events.PublishOrderEvent(ctx, e); err != nil {
		s.log.Warn("publish order event", zap.Error(err), zap.String("type", eventType), zap.Int64("order_id", o.ID))
	}
}

// Get returns an order visible to actor: its owner, an admin, or the staff
// member assigned to (or who delivered) it.
func (s *OrderService) Get(ctx context.Context, actor auth.Principal, id int64) (*models.Order, error) {
	o, err := s.store.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, actor, o)
}

// GetByNumber is Get keyed by the order number printed on receipts.
func (s *OrderService) GetByNumber(ctx context.Context, actor auth.Principal, number string) (*models.Order, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, Validation("order number is required")
	}
	o, err := s.store.Orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, actor, o)
}

func (s *OrderService) visible(ctx context.Context, actor auth.Principal, o *models.Order) (*models.Order, error) {
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if actor.IsAdmin() || o.UserID == actor.UserID {
		return o, nil
	}
	if actor.Role == models.RoleDelivery {
		st, err := s.store.Staff.GetByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		if st != nil && (sameID(o.AssignedStaffID, st.ID) || sameID(o.DeliveredByStaffID, st.ID)) {
			return o, nil
		}
	}
	return nil, ErrForbidden
}

func sameID(p *int64, id int64) bool { return p != nil && *p == id }

// ListMine returns the caller's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, actor auth.Principal) ([]models.Order, error) {
	return s.store.Orders.ListByUserID(ctx, actor.UserID)
}

// ListOrdersQuery filters the admin order list.
type ListOrdersQuery struct {
	Statuses []string
	PageSize int
	Cursor   string
}

// OrderPage is one page of the admin order list.
type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// ListAdmin pages through all orders, newest first.
func (s *OrderService) ListAdmin(ctx context.Context, actor auth.Principal, q ListOrdersQuery) (*OrderPage, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	p := repository.ListOrdersAdminParams{PageSize: q.PageSize}
	for _, raw := range q.Statuses {
		st, ok := models.ParseOrderStatus(raw)
		if !ok {
			return nil, Validation("invalid order status %q", raw)
		}
		p.Statuses = append(p.Statuses, st)
	}
	if q.Cursor != "" {
		sec, id, err := repository.DecodeCursor(q.Cursor)
		if err != nil {
			return nil, Validation("invalid page token")
		}
		p.AfterSeconds, p.AfterID = sec, id
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	orders, err := s.store.Orders.ListAdmin(ctx, p)
	if err != nil {
		return nil, err
	}
	page := &OrderPage{Orders: orders}
	if len(orders) == p.PageSize {
		last := orders[len(orders)-1]
		page.NextCursor = repository.EncodeCursor(last.CreatedAt.Unix(), last.ID)
	}
	return page, nil
}

// ListForStaff returns the caller's active deliveries, oldest first.
func (s *OrderService) ListForStaff(ctx context.Context, actor auth.Principal) ([]models.Order, error) {
	var out []models.Order
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		st, err := s.staff.profileFor(ctx, tx, actor)
		if err != nil {
			return err
		}
		out, err = tx.Orders.ListActiveByStaff(ctx, st.ID)
		return err
	})
	return out, err
}
