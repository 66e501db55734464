package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"railbite/models"
)

// NotificationRepository stores notifications and the per-recipient read-by set.
type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// visibleTo matches notifications addressed to the user, to everyone, or to the user's role.
const visibleTo = `(n.target_user_id = ? OR n.target_kind = 'all' OR (n.target_kind = 'role' AND n.target_role = ?))`

// Create inserts a notification. The addressing columns must already be consistent
// with TargetKind; the table's CHECK constraint rejects anything else.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	if n == nil {
		return nil, errors.New("notification is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO notifications (type, title, message, target_kind, target_user_id, target_role, order_id, created_at) VALUES (?,?,?,?,?,?,?,?)`,
		string(n.Type), n.Title, n.Message, string(n.TargetKind), n.TargetUserID, string(n.TargetRole), n.OrderID, time.Now().UTC())
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
		return nil, fmt.Errorf("created notification not found: id=%d", id)
	}
	return out, nil
}

// GetByID fetches a notification without recipient read state.
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `SELECT n.id, n.type, n.title, n.message, n.target_kind, n.target_user_id, n.target_role, n.order_id, n.created_at, 0
FROM notifications n WHERE n.id = ?`, id)
	return scanNotification(row)
}

// ListForRecipient returns the notifications visible to a user, newest first,
// with Read computed from that user's entry in the read-by set.
func (r *NotificationRepository) ListForRecipient(ctx context.Context, userID int64, role models.Role, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `
SELECT n.id, n.type, n.title, n.message, n.target_kind, n.target_user_id, n.target_role, n.order_id, n.created_at,
       EXISTS (SELECT 1 FROM notification_reads nr WHERE nr.notification_id = n.id AND nr.user_id = ?)
FROM notifications n
WHERE `+visibleTo+`
ORDER BY n.created_at DESC, n.id DESC
LIMIT ?`, userID, userID, string(role), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// IsVisibleTo reports whether the notification exists and is addressed to the user.
func (r *NotificationRepository) IsVisibleTo(ctx context.Context, id, userID int64, role models.Role) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM notifications n WHERE n.id = ? AND `+visibleTo, id, userID, string(role)).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// MarkRead adds userID to the read-by set. Marking twice is a no-op.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO notification_reads (notification_id, user_id, read_at) VALUES (?,?,?)`,
		id, userID, time.Now().UTC())
	return err
}

// MarkAllRead adds userID to the read-by set of every visible notification and
// returns how many were newly marked.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64, role models.Role) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO notification_reads (notification_id, user_id, read_at)
SELECT n.id, ?, ? FROM notifications n WHERE `+visibleTo,
		userID, time.Now().UTC(), userID, string(role))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UnreadCount counts visible notifications the user has not read.
func (r *NotificationRepository) UnreadCount(ctx context.Context, userID int64, role models.Role) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM notifications n
WHERE `+visibleTo+`
  AND NOT EXISTS (SELECT 1 FROM notification_reads nr WHERE nr.notification_id = n.id AND nr.user_id = ?)`,
		userID, string(role), userID).Scan(&n)
	return n, err
}

// Delete removes a notification and, by cascade, its read-by rows.
func (r *NotificationRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	return err
}

func scanNotification(sc scanner) (*models.Notification, error) {
	var n models.Notification
	var typ, kind, role string
	var targetUser, orderID sql.NullInt64
	if err := sc.Scan(&n.ID, &typ, &n.Title, &n.Message, &kind, &targetUser, &role, &orderID, &n.CreatedAt, &n.Read); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	n.Type = models.NotificationType(typ)
	n.TargetKind = models.TargetKind(kind)
	n.TargetRole = models.Role(role)
	n.TargetUserID = nullInt64Ptr(targetUser)
	n.OrderID = nullInt64Ptr(orderID)
	return &n, nil
}
