package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"railbite/models"
)

type ReviewRepository struct {
	db DBTX
}

func NewReviewRepository(db DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `id, order_id, user_id, food_rating, delivery_rating, overall_rating, comment, created_at`

// Create inserts a review. A second review for the same order is a unique violation.
func (r *ReviewRepository) Create(ctx context.Context, rv *models.Review) (*models.Review, error) {
	if rv == nil {
		return nil, errors.New("review is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT INTO reviews (order_id, user_id, food_rating, delivery_rating, overall_rating, comment, created_at) VALUES (?,?,?,?,?,?,?)`,
		rv.OrderID, rv.UserID, rv.FoodRating, rv.DeliveryRating, rv.OverallRating, rv.Comment, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("created review not found: id=%d", id)
	}
	return out, nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanReview(r.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id))
}

func (r *ReviewRepository) GetByOrderID(ctx context.Context, orderID int64) (*models.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanReview(r.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE order_id = ?`, orderID))
}

// List returns reviews newest first.
func (r *ReviewRepository) List(ctx context.Context, limit, offset int) ([]models.Review, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+reviewColumns+` FROM reviews ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	return err
}

// DeliveryRatingStats returns the mean delivery rating and review count across
// all reviews of orders delivered by the staff member.
func (r *ReviewRepository) DeliveryRatingStats(ctx context.Context, staffID int64) (float64, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var avg sql.NullFloat64
	var n int
	err := r.db.QueryRowContext(ctx, `
SELECT AVG(rv.delivery_rating), COUNT(rv.id)
FROM reviews rv
JOIN orders o ON o.id = rv.order_id
WHERE o.delivered_by_staff_id = ?`, staffID).Scan(&avg, &n)
	if err != nil {
		return 0, 0, err
	}
	if !avg.Valid {
		return 0, 0, nil
	}
	return avg.Float64, n, nil
}

func scanReview(sc scanner) (*models.Review, error) {
	var rv models.Review
	if err := sc.Scan(&rv.ID, &rv.OrderID, &rv.UserID, &rv.FoodRating, &rv.DeliveryRating, &rv.OverallRating, &rv.Comment, &rv.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rv, nil
}
