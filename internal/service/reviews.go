package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"railbite/internal/auth"
	"railbite/models"
	"railbite/repository"
)

// ReviewService stores order reviews and keeps staff ratings equal to the
// mean delivery rating of the orders they delivered.
type ReviewService struct {
	store *repository.Store
	staff *StaffService
	notes *NotificationService
	log   *zap.Logger
}

func NewReviewService(store *repository.Store, staff *StaffService, notes *NotificationService, log *zap.Logger) *ReviewService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReviewService{store: store, staff: staff, notes: notes, log: log.Named("reviews")}
}

type SubmitReviewInput struct {
	OrderID        int64  `json:"order_id" binding:"required"`
	FoodRating     int    `json:"food_rating" binding:"min=1,max=5"`
	DeliveryRating int    `json:"delivery_rating" binding:"min=1,max=5"`
	OverallRating  int    `json:"overall_rating" binding:"min=1,max=5"`
	Comment        string `json:"comment" binding:"max=1000"`
}

func clampRating(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

// Submit records the caller's review of one of their delivered orders.
func (s *ReviewService) Submit(ctx context.Context, actor auth.Principal, in SubmitReviewInput) (*models.Review, error) {
	var (
		rv *models.Review
		o  *models.Order
	)
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		o, err = tx.Orders.GetByID(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}
		if o.UserID != actor.UserID {
			return ErrNotOrderOwner
		}
		if o.Status != models.OrderStatusDelivered {
			return ErrNotReviewable
		}
		existing, err := tx.Reviews.GetByOrderID(ctx, o.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyReviewed
		}
		rv, err = tx.Reviews.Create(ctx, &models.Review{
			OrderID:        o.ID,
			UserID:         actor.UserID,
			FoodRating:     clampRating(in.FoodRating),
			DeliveryRating: clampRating(in.DeliveryRating),
			OverallRating:  clampRating(in.OverallRating),
			Comment:        strings.TrimSpace(in.Comment),
		})
		if err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrAlreadyReviewed
			}
			return err
		}
		if o.DeliveredByStaffID != nil {
			return s.staff.recomputeRating(ctx, tx, *o.DeliveredByStaffID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.notes != nil {
		s.notes.ToRole(ctx, models.RoleAdmin, Message{
			Type:    models.NotificationInfo,
			Title:   "New review",
			Body:    fmt.Sprintf("Order %s was rated %d/5.", o.OrderNumber, rv.OverallRating),
			OrderID: &o.ID,
		})
	}
	s.log.Info("review submitted", zap.Int64("review_id", rv.ID), zap.Int64("order_id", o.ID))
	return rv, nil
}

// Delete removes a review and recomputes the delivering staff member's rating.
func (s *ReviewService) Delete(ctx context.Context, actor auth.Principal, id int64) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.store.WithTx(ctx, func(tx *repository.Store) error {
		rv, err := tx.Reviews.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if rv == nil {
			return ErrReviewNotFound
		}
		o, err := tx.Orders.GetByID(ctx, rv.OrderID)
		if err != nil {
			return err
		}
		if err := tx.Reviews.Delete(ctx, id); err != nil {
			return err
		}
		if o != nil && o.DeliveredByStaffID != nil {
			return s.staff.recomputeRating(ctx, tx, *o.DeliveredByStaffID)
		}
		return nil
	})
}

// List pages through all reviews, newest first.
func (s *ReviewService) List(ctx context.Context, actor auth.Principal, limit, offset int) ([]models.Review, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Reviews.List(ctx, limit, offset)
}

// GetForOrder returns the review of an order to its owner or an admin.
func (s *ReviewService) GetForOrder(ctx context.Context, actor auth.Principal, orderID int64) (*models.Review, error) {
	o, err := s.store.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if o.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrNotOrderOwner
	}
	rv, err := s.store.Reviews.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if rv == nil {
		return nil, ErrReviewNotFound
	}
	return rv, nil
}
