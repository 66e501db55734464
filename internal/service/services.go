package service

import (
	"time"

	"go.uber.org/zap"

	"railbite/internal/auth"
	"railbite/repository"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Store     *repository.Store
	Hasher    auth.PasswordHasher
	Events    EventPublisher
	Cache     ReportCache
	Log       *zap.Logger
	JWTSecret string
	TokenTTL  time.Duration
	ReportTTL time.Duration
	Staff     StaffOptions
	Orders    OrderOptions
}

// Services is the application layer as used by the transports.
type Services struct {
	Accounts      *AccountService
	Orders        *OrderService
	Staff         *StaffService
	Notifications *NotificationService
	Reviews       *ReviewService
	Menu          *MenuService
	Reports       *ReportService
}

func New(d Deps) *Services {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Hasher == nil {
		d.Hasher = auth.NewBcrypt(0)
	}
	notes := NewNotificationService(d.Store, d.Log)
	staff := NewStaffService(d.Store, d.Hasher, d.Log, d.Staff)
	return &Services{
		Accounts:      NewAccountService(d.Store, d.Hasher, d.JWTSecret, d.TokenTTL, d.Log),
		Orders:        NewOrderService(d.Store, staff, notes, d.Events, d.Log, d.Orders),
		Staff:         staff,
		Notifications: notes,
		Reviews:       NewReviewService(d.Store, staff, notes, d.Log),
		Menu:          NewMenuService(d.Store),
		Reports:       NewReportService(d.Store, d.Cache, d.ReportTTL, d.Log),
	}
}
