package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"railbite/models"
)

// StaffRepository persists delivery staff profiles. The counter columns are a
// cache; callers refresh them with SaveCounters from OrderRepository.StaffCounters.
type StaffRepository struct {
	db DBTX
}

// NewStaffRepository creates a new StaffRepository.
func NewStaffRepository(db DBTX) *StaffRepository {
	return &StaffRepository{db: db}
}

const staffColumns = `id, user_id, name, phone, status, assigned_orders, completed_today, total_deliveries, rating, on_time_rate, created_at, updated_at`

// Create inserts a profile. Status defaults to available and rating to the default rating.
func (r *StaffRepository) Create(ctx context.Context, s *models.DeliveryStaff) (*models.DeliveryStaff, error) {
	if s == nil {
		return nil, errors.New("staff is nil")
	}
	if s.Status == "" {
		s.Status = models.StaffStatusAvailable
	}
	if s.Rating == 0 {
		s.Rating = models.DefaultStaffRating
	}
	if s.OnTimeRate == 0 {
		s.OnTimeRate = 100
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO delivery_staff (user_id, name, phone, status, rating, on_time_rate) VALUES (?,?,?,?,?,?)`,
		s.UserID, s.Name, s.Phone, string(s.Status), s.Rating, s.OnTimeRate)
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
		return nil, fmt.Errorf("created staff not found: id=%d", id)
	}
	return out, nil
}

// GetByID fetches a profile by its ID.
func (r *StaffRepository) GetByID(ctx context.Context, id int64) (*models.DeliveryStaff, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanStaff(r.db.QueryRowContext(ctx, `SELECT `+staffColumns+` FROM delivery_staff WHERE id = ?`, id))
}

// GetByUserID fetches the profile linked to an account.
func (r *StaffRepository) GetByUserID(ctx context.Context, userID int64) (*models.DeliveryStaff, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanStaff(r.db.QueryRowContext(ctx, `SELECT `+staffColumns+` FROM delivery_staff WHERE user_id = ?`, userID))
}

// List returns every profile ordered by id.
func (r *StaffRepository) List(ctx context.Context) ([]models.DeliveryStaff, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+staffColumns+` FROM delivery_staff ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.DeliveryStaff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus sets the availability status.
func (r *StaffRepository) UpdateStatus(ctx context.Context, id int64, status models.StaffStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE delivery_staff SET status = ?, updated_at = ? WHERE id = ?`, string(status), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SaveCounters overwrites the cached counters and status in one statement.
func (r *StaffRepository) SaveCounters(ctx context.Context, id int64, status models.StaffStatus, c models.StaffCounters) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `
UPDATE delivery_staff
SET status = ?, assigned_orders = ?, completed_today = ?, total_deliveries = ?, on_time_rate = ?, updated_at = ?
WHERE id = ?`,
		string(status), c.Active, c.CompletedToday, c.TotalDeliveries, c.OnTimeRate, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateRating stores the recomputed delivery rating.
func (r *StaffRepository) UpdateRating(ctx context.Context, id int64, rating float64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE delivery_staff SET rating = ?, updated_at = ? WHERE id = ?`, rating, time.Now().UTC(), id)
	return err
}

// Delete removes a profile by ID.
func (r *StaffRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `DELETE FROM delivery_staff WHERE id = ?`, id)
	return err
}

func scanStaff(sc scanner) (*models.DeliveryStaff, error) {
	var s models.DeliveryStaff
	var userID sql.NullInt64
	var status string
	err := sc.Scan(&s.ID, &userID, &s.Name, &s.Phone, &status, &s.AssignedOrders, &s.CompletedToday,
		&s.TotalDeliveries, &s.Rating, &s.OnTimeRate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.UserID = nullInt64Ptr(userID)
	s.Status = models.StaffStatus(status)
	return &s, nil
}
