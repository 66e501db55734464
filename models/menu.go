package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is a catalog entry. Orders copy its name and price at checkout.
type MenuItem struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description,omitempty"`
	Category    string          `db:"category" json:"category,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Available   bool            `db:"available" json:"available"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
