package model

import "time"

// お気に入り。行があれば「いいね」済み。
type Favorite struct {
	UserID    int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ProductID int64     `gorm:"primaryKey;autoIncrement:false" json:"product_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
