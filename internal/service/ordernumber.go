package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderNumberFunc produces a human-facing order number for an order placed at t.
type OrderNumberFunc func(t time.Time) string

// NewOrderNumber returns RB-YYMMDD-XXXXXX where the suffix is six upper-case
// hex characters of a random UUID.
func NewOrderNumber(t time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "RB-" + t.Format("060102") + "-" + strings.ToUpper(id[:6])
}
