package service

import (
	"strings"

	"railbite/models"
)

// orderTransitions lists the statuses an admin may move an order to from each status.
// Terminal statuses have no entry.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusPreparing, models.OrderStatusOnTheWay, models.OrderStatusCancelled},
	models.OrderStatusPreparing: {models.OrderStatusOnTheWay, models.OrderStatusCancelled},
	models.OrderStatusOnTheWay:  {models.OrderStatusDelivered, models.OrderStatusCancelled},
}

// staffTransitions is the subset an assigned courier may perform from the delivery portal.
var staffTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusConfirmed: {models.OrderStatusOnTheWay},
	models.OrderStatusPreparing: {models.OrderStatusOnTheWay},
	models.OrderStatusOnTheWay:  {models.OrderStatusDelivered},
}

// NextStatuses returns the statuses reachable from s.
func NextStatuses(s models.OrderStatus) []models.OrderStatus {
	next := orderTransitions[s]
	out := make([]models.OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether the order lifecycle allows from -> to.
func CanTransition(from, to models.OrderStatus) bool {
	return allowed(orderTransitions, from, to)
}

// CanStaffTransition reports whether an assigned courier may move an order from -> to.
func CanStaffTransition(from, to models.OrderStatus) bool {
	return allowed(staffTransitions, from, to)
}

// assignable reports whether staff may be (re)assigned to an order in status s.
func assignable(s models.OrderStatus) bool {
	return s == models.OrderStatusConfirmed || s == models.OrderStatusPreparing
}

func allowed(table map[models.OrderStatus][]models.OrderStatus, from, to models.OrderStatus) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to models.OrderStatus) error {
	if from.IsTerminal() {
		return InvalidState("order is already %s; no further changes are allowed", from)
	}
	if !CanTransition(from, to) {
		return InvalidState("cannot move order from %s to %s (allowed: %s)", from, to, joinStatuses(NextStatuses(from)))
	}
	return nil
}

func joinStatuses(ss []models.OrderStatus) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// checkDeliveryStatus reports whether sub can be set by hand on the live order o.
// delivered and cancelled only follow from the matching order status, and the
// courier sub-statuses must agree with the assignment.
func checkDeliveryStatus(o *models.Order, sub models.DeliveryStatus) error {
	switch sub {
	case models.DeliveryStatusDelivered, models.DeliveryStatusCancelled:
		return Validation("delivery status %s is set by the order status, not directly", sub)
	case models.DeliveryStatusUnassigned:
		if o.AssignedStaffID != nil {
			return Validation("delivery status unassigned conflicts with the assigned staff member")
		}
	case models.DeliveryStatusAssigned, models.DeliveryStatusPickedUp:
		if o.AssignedStaffID == nil {
			return Validation("delivery status %s requires an assigned staff member", sub)
		}
	}
	return nil
}
