package model

import "time"

// 明細に付くオプション（名前と価格のスナップショット）
type OrderItemExtra struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// 注文明細。商品名と単価は注文時点のスナップショット。
// UnitPriceSnapshotはカタログ価格のみでextrasは含まない。
type OrderItem struct {
	ID                  int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64            `gorm:"not null;index" json:"order_id"`
	ProductID           int64            `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string           `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceSnapshot   int64            `gorm:"not null" json:"unit_price_snapshot"`
	Quantity            int64            `gorm:"not null" json:"quantity"`
	Extras              []OrderItemExtra `gorm:"type:text;serializer:json" json:"extras"`
	Subtotal            int64            `gorm:"not null" json:"subtotal"`
	CreatedAt           time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
}
