package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// 商品の生成時バリデーションエラー
var (
	ErrProductNameRequired = errors.New("product name is required")
	ErrProductInvalidPrice = errors.New("price must be greater than zero")
	ErrProductInvalidStock = errors.New("initial stock must not be negative")
)

// Stockは注文確定(InventoryLedger)でのみ減る。
// Rating/TotalReviewsはReviewの集計結果で、直接書き換えない。
type Product struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	Price         int64          `gorm:"not null" json:"price"`
	OriginalPrice int64          `gorm:"not null" json:"original_price"`
	Stock         int64          `gorm:"not null;check:stock >= 0" json:"stock"`
	IsActive      bool           `gorm:"not null;default:false" json:"is_active"`
	Rating        float64        `gorm:"not null;default:0" json:"rating"`
	TotalReviews  int64          `gorm:"not null;default:0" json:"total_reviews"`
	Images        []string       `gorm:"type:text;serializer:json" json:"images"`
	CreatedAt     time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// 商品作成の入力
type NewProductParams struct {
	Name        string
	Description string
	Price       int64
	Stock       int64
	Images      []string
}

// NewProduct は入力を検証して公開状態の商品を返す。
func NewProduct(p NewProductParams) (Product, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return Product{}, ErrProductNameRequired
	}
	if p.Price <= 0 {
		return Product{}, ErrProductInvalidPrice
	}
	if p.Stock < 0 {
		return Product{}, ErrProductInvalidStock
	}

	images := p.Images
	if images == nil {
		images = []string{}
	}

	return Product{
		Name:          name,
		Description:   p.Description,
		Price:         p.Price,
		OriginalPrice: p.Price,
		Stock:         p.Stock,
		IsActive:      true,
		Images:        images,
	}, nil
}

// ProductUpdate は更新してよい項目だけを持つ。nilは変更なし。
// 在庫と評価はここからは変えられない。
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *int64
	IsActive    *bool
	Images      *[]string
}

// Columns はUPDATE対象のカラムを返す。
func (u ProductUpdate) Columns() (map[string]any, error) {
	cols := map[string]any{}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return nil, ErrProductNameRequired
		}
		cols["name"] = name
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.Price != nil {
		if *u.Price <= 0 {
			return nil, ErrProductInvalidPrice
		}
		cols["price"] = *u.Price
	}
	if u.IsActive != nil {
		cols["is_active"] = *u.IsActive
	}
	if u.Images != nil {
		images := *u.Images
		if images == nil {
			images = []string{}
		}
		// mapでのUPDATEはserializerを通らないのでJSON文字列にしておく
		b, err := json.Marshal(images)
		if err != nil {
			return nil, err
		}
		cols["images"] = string(b)
	}
	return cols, nil
}

// 注文時点の商品情報
type ProductSnapshot struct {
	ID    int64
	Name  string
	Price int64
}

func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{ID: p.ID, Name: p.Name, Price: p.Price}
}
