package service

import (
	"context"
	"time"

	"railbite/models"
)

// Order event types published after each committed transition.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderAssigned      = "order.assigned"
	EventOrderCancelled     = "order.cancelled"
	EventOrderDelivered     = "order.delivered"
)

type OrderEvent struct {
	Type        string             `json:"type"`
	OrderID     int64              `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	Status      models.OrderStatus `json:"status"`
	StaffID     *int64             `json:"staff_id,omitempty"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// EventPublisher delivers order events to downstream consumers.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, e OrderEvent) error
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(context.Context, OrderEvent) error { return nil }

func eventTypeFor(s models.OrderStatus) string {
	switch s {
	case models.OrderStatusCancelled:
		return EventOrderCancelled
	case models.OrderStatusDelivered:
		return EventOrderDelivered
	}
	return EventOrderStatusChanged
}
