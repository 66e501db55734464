package models

import "time"

// Review is a customer's rating of one delivered order.
type Review struct {
	ID             int64     `db:"id" json:"id"`
	OrderID        int64     `db:"order_id" json:"order_id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	FoodRating     int       `db:"food_rating" json:"food_rating"`
	DeliveryRating int       `db:"delivery_rating" json:"delivery_rating"`
	OverallRating  int       `db:"overall_rating" json:"overall_rating"`
	Comment        string    `db:"comment" json:"comment,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
