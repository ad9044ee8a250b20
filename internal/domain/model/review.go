package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// (user_id, product_id)で一意。同じユーザーの2回目は上書き。
type Review struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_reviews_user_product" json:"user_id"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_reviews_user_product;index" json:"product_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   *string   `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
