package repository

import (
	"context"
	"time"

	"railbite/models"
)

// UserRepositoryI defines operations on User accounts.
type UserRepositoryI interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Delete(ctx context.Context, id int64) error
}

// StaffRepositoryI defines operations on delivery staff profiles.
type StaffRepositoryI interface {
	Create(ctx context.Context, s *models.DeliveryStaff) (*models.DeliveryStaff, error)
	GetByID(ctx context.Context, id int64) (*models.DeliveryStaff, error)
	GetByUserID(ctx context.Context, userID int64) (*models.DeliveryStaff, error)
	List(ctx context.Context) ([]models.DeliveryStaff, error)
	UpdateStatus(ctx context.Context, id int64, status models.StaffStatus) error
	SaveCounters(ctx context.Context, id int64, status models.StaffStatus, c models.StaffCounters) error
	UpdateRating(ctx context.Context, id int64, rating float64) error
	Delete(ctx context.Context, id int64) error
}

// OrderRepositoryI defines operations on Order entities.
type OrderRepositoryI interface {
	Create(ctx context.Context, o *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]models.Order, error)
	ListAdmin(ctx context.Context, p ListOrdersAdminParams) ([]models.Order, error)
	ListActiveByStaff(ctx context.Context, staffID int64) ([]models.Order, error)
	UpdateLifecycle(ctx context.Context, o *models.Order) error
	StaffCounters(ctx context.Context, staffID int64, dayStart time.Time, onTimeWindow time.Duration) (models.StaffCounters, error)
	SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error)
}

// NotificationRepositoryI defines operations on notifications and their read-by sets.
type NotificationRepositoryI interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
	GetByID(ctx context.Context, id int64) (*models.Notification, error)
	ListForRecipient(ctx context.Context, userID int64, role models.Role, limit int) ([]models.Notification, error)
	IsVisibleTo(ctx context.Context, id, userID int64, role models.Role) (bool, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64, role models.Role) (int64, error)
	UnreadCount(ctx context.Context, userID int64, role models.Role) (int, error)
	Delete(ctx context.Context, id int64) error
}

// ReviewRepositoryI defines operations on order reviews.
type ReviewRepositoryI interface {
	Create(ctx context.Context, rv *models.Review) (*models.Review, error)
	GetByID(ctx context.Context, id int64) (*models.Review, error)
	GetByOrderID(ctx context.Context, orderID int64) (*models.Review, error)
	List(ctx context.Context, limit, offset int) ([]models.Review, error)
	Delete(ctx context.Context, id int64) error
	DeliveryRatingStats(ctx context.Context, staffID int64) (avg float64, count int, err error)
}

// MenuRepositoryI defines operations on the menu catalog.
type MenuRepositoryI interface {
	Create(ctx context.Context, m *models.MenuItem) (*models.MenuItem, error)
	GetByID(ctx context.Context, id int64) (*models.MenuItem, error)
	List(ctx context.Context, onlyAvailable bool) ([]models.MenuItem, error)
	Update(ctx context.Context, m *models.MenuItem) error
	Delete(ctx context.Context, id int64) error
}
