package models

import "time"

// NotificationType tags what a notification is about.
type NotificationType string

const (
	NotificationOrder     NotificationType = "order"
	NotificationDelivery  NotificationType = "delivery"
	NotificationPromotion NotificationType = "promotion"
	NotificationSystem    NotificationType = "system"
	NotificationInfo      NotificationType = "info"
)

// ParseNotificationType validates a notification type.
func ParseNotificationType(s string) (NotificationType, bool) {
	switch t := NotificationType(s); t {
	case NotificationOrder, NotificationDelivery, NotificationPromotion, NotificationSystem, NotificationInfo:
		return t, true
	}
	return "", false
}

// TargetKind is the addressing mode of a notification.
type TargetKind string

const (
	TargetUser TargetKind = "user"
	TargetRole TargetKind = "role"
	TargetAll  TargetKind = "all"
)

// Notification is addressed to exactly one of: a user, a role group, or everyone.
// Read is computed per recipient from the read-by set and is not stored on the row.
type Notification struct {
	ID           int64            `db:"id" json:"id"`
	Type         NotificationType `db:"type" json:"type"`
	Title        string           `db:"title" json:"title"`
	Message      string           `db:"message" json:"message"`
	TargetKind   TargetKind       `db:"target_kind" json:"target_kind"`
	TargetUserID *int64           `db:"target_user_id" json:"target_user_id,omitempty"`
	TargetRole   Role             `db:"target_role" json:"target_role,omitempty"`
	OrderID      *int64           `db:"order_id" json:"order_id,omitempty"`
	Read         bool             `json:"read"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}
