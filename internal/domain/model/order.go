package model

import "time"

// 注文。TotalPriceは作成時に一度だけ計算し、以後は商品の現在価格から再計算しない。
type Order struct {
	ID         int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64       `gorm:"not null;index" json:"user_id"`
	TotalPrice int64       `gorm:"not null" json:"total_price"`
	CreatedAt  time.Time   `gorm:"not null;index" json:"created_at"`
	Items      []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}
