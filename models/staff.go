package models

import "time"

// StaffStatus is a delivery staff member's availability.
type StaffStatus string

const (
	StaffStatusAvailable StaffStatus = "available"
	StaffStatusBusy      StaffStatus = "busy"
	StaffStatusOffline   StaffStatus = "offline"
)

// DefaultStaffRating is used until a staff member has reviews.
const DefaultStaffRating = 5.0

// DeliveryStaff is a staff member's assignment/availability record, distinct
// from their login account. The counters are a cache of the orders table and
// are recomputed from it whenever the profile is read or written.
type DeliveryStaff struct {
	ID              int64       `db:"id" json:"id"`
	UserID          *int64      `db:"user_id" json:"user_id,omitempty"`
	Name            string      `db:"name" json:"name"`
	Phone           string      `db:"phone" json:"phone"`
	Status          StaffStatus `db:"status" json:"status"`
	AssignedOrders  int         `db:"assigned_orders" json:"assigned_orders"`
	CompletedToday  int         `db:"completed_today" json:"completed_today"`
	TotalDeliveries int         `db:"total_deliveries" json:"total_deliveries"`
	Rating          float64     `db:"rating" json:"rating"`
	OnTimeRate      float64     `db:"on_time_rate" json:"on_time_rate"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// StaffCounters are the values derived from the orders table.
type StaffCounters struct {
	Active          int
	CompletedToday  int
	TotalDeliveries int
	OnTimeRate      float64
}
