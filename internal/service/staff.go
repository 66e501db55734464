package service

import (
	"context"
	"math"
	"net/mail"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"railbite/internal/auth"
	"railbite/models"
	"railbite/repository"
)

// StaffOptions tunes how staff counters are derived.
type StaffOptions struct {
	// Location defines the day boundary for CompletedToday.
	Location *time.Location
	// OnTimeWindow is the longest assignment-to-delivery time that counts as on time.
	OnTimeWindow time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

func (o StaffOptions) withDefaults() StaffOptions {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.OnTimeWindow <= 0 {
		o.OnTimeWindow = 45 * time.Minute
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// StaffService is the delivery-staff directory. Cached counters on each
// profile are recomputed from the orders table whenever a profile is read
// through this service or touched by an order transition.
type StaffService struct {
	store  *repository.Store
	hasher auth.PasswordHasher
	log    *zap.Logger
	opts   StaffOptions
}

func NewStaffService(store *repository.Store, hasher auth.PasswordHasher, log *zap.Logger, opts StaffOptions) *StaffService {
	if log == nil {
		log = zap.NewNop()
	}
	return &StaffService{store: store, hasher: hasher, log: log.Named("staff"), opts: opts.withDefaults()}
}

func (s *StaffService) dayStart() time.Time {
	now := s.opts.Now().In(s.opts.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.opts.Location)
}

// sync recomputes st's counters through db and applies the availability rule:
// busy becomes available when nothing is active, available becomes busy when
// something is, and offline is left alone. st is updated in place.
func (s *StaffService) sync(ctx context.Context, db *repository.Store, st *models.DeliveryStaff) error {
	c, err := db.Orders.StaffCounters(ctx, st.ID, s.dayStart(), s.opts.OnTimeWindow)
	if err != nil {
		return err
	}
	status := st.Status
	switch {
	case status == models.StaffStatusBusy && c.Active == 0:
		status = models.StaffStatusAvailable
	case status == models.StaffStatusAvailable && c.Active > 0:
		status = models.StaffStatusBusy
	}
	if status == st.Status &&
		c.Active == st.AssignedOrders &&
		c.CompletedToday == st.CompletedToday &&
		c.TotalDeliveries == st.TotalDeliveries &&
		c.OnTimeRate == st.OnTimeRate {
		return nil
	}
	if err := db.Staff.SaveCounters(ctx, st.ID, status, c); err != nil {
		return err
	}
	st.Status = status
	st.AssignedOrders = c.Active
	st.CompletedToday = c.CompletedToday
	st.TotalDeliveries = c.TotalDeliveries
	st.OnTimeRate = c.OnTimeRate
	return nil
}

// syncByID loads and synchronises a profile; it returns nil when the profile no longer exists.
func (s *StaffService) syncByID(ctx context.Context, db *repository.Store, id int64) (*models.DeliveryStaff, error) {
	st, err := db.Staff.GetByID(ctx, id)
	if err != nil || st == nil {
		return nil, err
	}
	if err := s.sync(ctx, db, st); err != nil {
		return nil, err
	}
	return st, nil
}

// ListAll returns every profile with fresh counters.
func (s *StaffService) ListAll(ctx context.Context, actor auth.Principal) ([]models.DeliveryStaff, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.listSynced(ctx)
}

// ListAvailable returns staff who are not offline, least loaded first.
func (s *StaffService) ListAvailable(ctx context.Context, actor auth.Principal) ([]models.DeliveryStaff, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	all, err := s.listSynced(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.DeliveryStaff, 0, len(all))
	for _, st := range all {
		if st.Status != models.StaffStatusOffline {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AssignedOrders != out[j].AssignedOrders {
			return out[i].AssignedOrders < out[j].AssignedOrders
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *StaffService) listSynced(ctx context.Context) ([]models.DeliveryStaff, error) {
	all, err := s.store.Staff.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if err := s.sync(ctx, s.store, &all[i]); err != nil {
			return nil, err
		}
	}
	return all, nil
}

// CreateStaffInput describes a new delivery staff member. Email and password
// are optional; when given, a delivery account is created and linked.
type CreateStaffInput struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password"`
}

// Create adds a profile (and optionally its login account) with status available.
func (s *StaffService) Create(ctx context.Context, actor auth.Principal, in CreateStaffInput) (*models.DeliveryStaff, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Phone == "" {
		return nil, Validation("name and phone are required")
	}
	var hash string
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return nil, Validation("invalid email address")
		}
		if len(in.Password) < minPasswordLen {
			return nil, Validation("password must be at least %d characters", minPasswordLen)
		}
		h, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	var created *models.DeliveryStaff
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		st := &models.DeliveryStaff{Name: in.Name, Phone: in.Phone, Status: models.StaffStatusAvailable}
		if in.Email != "" {
			u, err := tx.Users.Create(ctx, &models.User{
				Name:         in.Name,
				Email:        in.Email,
				Phone:        in.Phone,
				PasswordHash: hash,
				Role:         models.RoleDelivery,
			})
			if err != nil {
				if repository.IsUniqueViolation(err) {
					return ErrEmailTaken
				}
				return err
			}
			st.UserID = &u.ID
		}
		out, err := tx.Staff.Create(ctx, st)
		if err != nil {
			return err
		}
		created = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("delivery staff created", zap.Int64("staff_id", created.ID), zap.Bool("has_account", created.UserID != nil))
	return created, nil
}

// Delete removes a profile and its linked account. Staff holding active orders cannot be deleted.
func (s *StaffService) Delete(ctx context.Context, actor auth.Principal, id int64) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.store.WithTx(ctx, func(tx *repository.Store) error {
		st, err := s.syncByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if st == nil {
			return ErrStaffNotFound
		}
		if st.AssignedOrders > 0 {
			return ErrStaffHasActiveOrders
		}
		if st.UserID != nil {
			// The profile goes with the account via ON DELETE CASCADE.
			return tx.Users.Delete(ctx, *st.UserID)
		}
		return tx.Staff.Delete(ctx, id)
	})
}

// Profile returns the caller's own profile, creating it on first access.
func (s *StaffService) Profile(ctx context.Context, actor auth.Principal) (*models.DeliveryStaff, error) {
	var st *models.DeliveryStaff
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		p, err := s.profileFor(ctx, tx, actor)
		if err != nil {
			return err
		}
		if err := s.sync(ctx, tx, p); err != nil {
			return err
		}
		st = p
		return nil
	})
	return st, err
}

// profileFor loads the delivery profile linked to actor, creating it from the account when missing.
func (s *StaffService) profileFor(ctx context.Context, db *repository.Store, actor auth.Principal) (*models.DeliveryStaff, error) {
	if actor.Role != models.RoleDelivery {
		return nil, ErrForbidden
	}
	st, err := db.Staff.GetByUserID(ctx, actor.UserID)
	if err != nil || st != nil {
		return st, err
	}
	u, err := db.Users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	st, err = db.Staff.Create(ctx, &models.DeliveryStaff{
		UserID: &u.ID,
		Name:   u.Name,
		Phone:  u.Phone,
		Status: models.StaffStatusAvailable,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("delivery profile created on first access", zap.Int64("user_id", u.ID), zap.Int64("staff_id", st.ID))
	return st, nil
}

// SetAvailability lets staff go offline or come back. Coming back with
// active orders lands on busy rather than available.
func (s *StaffService) SetAvailability(ctx context.Context, actor auth.Principal, status string) (*models.DeliveryStaff, error) {
	want := models.StaffStatus(strings.ToLower(strings.TrimSpace(status)))
	if want != models.StaffStatusAvailable && want != models.StaffStatusOffline {
		return nil, Validation("availability must be available or offline")
	}
	var st *models.DeliveryStaff
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		p, err := s.profileFor(ctx, tx, actor)
		if err != nil {
			return err
		}
		if err := s.sync(ctx, tx, p); err != nil {
			return err
		}
		if want == models.StaffStatusOffline && p.AssignedOrders > 0 {
			return InvalidState("cannot go offline with %d active order(s)", p.AssignedOrders)
		}
		if want == models.StaffStatusAvailable && p.AssignedOrders > 0 {
			want = models.StaffStatusBusy
		}
		if want != p.Status {
			if err := tx.Staff.UpdateStatus(ctx, p.ID, want); err != nil {
				return err
			}
			p.Status = want
		}
		st = p
		return nil
	})
	return st, err
}

// recomputeRating sets the staff rating to the mean delivery rating of the
// reviews of orders they delivered, or the default when there are none.
func (s *StaffService) recomputeRating(ctx context.Context, db *repository.Store, staffID int64) error {
	avg, n, err := db.Reviews.DeliveryRatingStats(ctx, staffID)
	if err != nil {
		return err
	}
	rating := models.DefaultStaffRating
	if n > 0 {
		rating = math.Round(avg*10) / 10
	}
	return db.Staff.UpdateRating(ctx, staffID, rating)
}
