package repository

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"railbite/models"
)

// ListByUserID returns all orders for a customer, newest first.
func (r *OrderRepository) ListByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// ListActiveByStaff returns the non-terminal orders currently assigned to a staff member, oldest first.
func (r *OrderRepository) ListActiveByStaff(ctx context.Context, staffID int64) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders
WHERE assigned_staff_id = ? AND status NOT IN ('delivered','cancelled')
ORDER BY created_at ASC, id ASC`, staffID)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// ListOrdersAdminParams represents filters and pagination for ListAdmin.
type ListOrdersAdminParams struct {
	Statuses     []models.OrderStatus
	UserID       *int64
	StaffID      *int64
	CreatedFrom  *time.Time // inclusive lower bound on created_at
	CreatedTo    *time.Time // exclusive upper bound on created_at
	PageSize     int
	AfterSeconds int64 // keyset cursor: created_at unix seconds
	AfterID      int64 // keyset cursor: order id
}

// ListAdmin returns orders matching filters ordered by created_at desc, id desc with keyset pagination.
func (r *OrderRepository) ListAdmin(ctx context.Context, p ListOrdersAdminParams) ([]models.Order, error) {
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var where []string
	var args []any

	if len(p.Statuses) > 0 {
		placeholders := make([]string, len(p.Statuses))
		for i, s := range p.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		where = append(where, "status IN ("+strings.Join(placeholders, ",")+")")
	}
	if p.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *p.UserID)
	}
	if p.StaffID != nil {
		where = append(where, "(assigned_staff_id = ? OR delivered_by_staff_id = ?)")
		args = append(args, *p.StaffID, *p.StaffID)
	}
	if p.CreatedFrom != nil {
		where = append(where, "julianday(created_at) >= julianday(?)")
		args = append(args, p.CreatedFrom.UTC())
	}
	if p.CreatedTo != nil {
		where = append(where, "julianday(created_at) < julianday(?)")
		args = append(args, p.CreatedTo.UTC())
	}
	if p.AfterSeconds > 0 && p.AfterID > 0 {
		where = append(where, "(CAST(strftime('%s', created_at) AS INTEGER) < ? OR (CAST(strftime('%s', created_at) AS INTEGER) = ? AND id < ?))")
		args = append(args, p.AfterSeconds, p.AfterSeconds, p.AfterID)
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, p.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// ItemSales is one row of the best-seller ranking.
type ItemSales struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// SalesSummary aggregates orders created in [From, To).
type SalesSummary struct {
	From             time.Time                  `json:"from"`
	To               time.Time                  `json:"to"`
	CountsByStatus   map[models.OrderStatus]int `json:"counts_by_status"`
	TotalOrders      int                        `json:"total_orders"`
	DeliveredRevenue decimal.Decimal            `json:"delivered_revenue"`
	AverageOrder     decimal.Decimal            `json:"average_order_value"`
	TopItems         []ItemSales                `json:"top_items"`
}

// SalesSummary computes per-status counts, delivered revenue and the five best
// selling items for orders created in [from, to). Money is summed in Go with
// decimal arithmetic since SQLite would coerce the text amounts to floats.
func (r *OrderRepository) SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out := &SalesSummary{
		From:             from.UTC(),
		To:               to.UTC(),
		CountsByStatus:   map[models.OrderStatus]int{},
		DeliveredRevenue: decimal.Zero,
		AverageOrder:     decimal.Zero,
		TopItems:         []ItemSales{},
	}
	for _, s := range models.AllOrderStatuses {
		out.CountsByStatus[s] = 0
	}

	rows, err := r.db.QueryContext(ctx, `SELECT status, total FROM orders
WHERE julianday(created_at) >= julianday(?) AND julianday(created_at) < julianday(?)`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	delivered := 0
	for rows.Next() {
		var status string
		var total decimal.Decimal
		if err := rows.Scan(&status, &total); err != nil {
			rows.Close()
			return nil, err
		}
		out.CountsByStatus[models.OrderStatus(status)]++
		out.TotalOrders++
		if models.OrderStatus(status) == models.OrderStatusDelivered {
			delivered++
			out.DeliveredRevenue = out.DeliveredRevenue.Add(total)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if delivered > 0 {
		out.AverageOrder = out.DeliveredRevenue.Div(decimal.NewFromInt(int64(delivered))).Round(2)
	}

	top, err := r.db.QueryContext(ctx, `
SELECT i.name, SUM(i.quantity) AS qty
FROM order_items i
JOIN orders o ON o.id = i.order_id
WHERE o.status = 'delivered' AND julianday(o.created_at) >= julianday(?) AND julianday(o.created_at) < julianday(?)
GROUP BY i.name
ORDER BY qty DESC, i.name ASC
LIMIT 5`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer top.Close()
	for top.Next() {
		var it ItemSales
		if err := top.Scan(&it.Name, &it.Quantity); err != nil {
			return nil, err
		}
		out.TopItems = append(out.TopItems, it)
	}
	if err := top.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// collect scans every row, closes rows, then attaches items.
func (r *OrderRepository) collect(ctx context.Context, rows *sql.Rows) ([]models.Order, error) {
	out, err := scanOrderRows(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	ptrs := make([]*models.Order, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	if err := r.attachItems(ctx, ptrs); err != nil {
		return nil, err
	}
	return out, nil
}

// scanOrderRows is a helper to scan rows into Order objects.
func scanOrderRows(rows *sql.Rows) ([]models.Order, error) {
	out := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const cursorSeparator = "|"

// EncodeCursor builds an opaque page token from created_at unix seconds and order id.
func EncodeCursor(seconds int64, id int64) string {
	raw := strconv.FormatInt(seconds, 10) + cursorSeparator + strconv.FormatInt(id, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a page token produced by EncodeCursor.
func DecodeCursor(token string) (seconds int64, id int64, err error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, 0, fmt.Errorf("base64: %w", err)
	}
	parts := strings.SplitN(string(b), cursorSeparator, 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid cursor format")
	}
	seconds, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse seconds: %w", err)
	}
	id, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse id: %w", err)
	}
	return seconds, id, nil
}
