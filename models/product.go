package models

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product 商品模型，归属于供应商
type Product struct {
	ID         snowflake.ID    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	SupplierID snowflake.ID    `gorm:"column:supplier_id;not null;index" json:"supplier_id"`
	Name       string          `gorm:"size:200;not null" json:"name"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	ImageURL   string          `gorm:"size:255" json:"image_url"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 设置表名
func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == 0 {
		p.ID = NewID()
	}
	return nil
}

// ProductVariant 商品规格
type ProductVariant struct {
	ID        snowflake.ID    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	ProductID snowflake.ID    `gorm:"column:product_id;not null;index" json:"product_id"`
	SKU       string          `gorm:"column:sku;size:100" json:"sku"`
	Name      string          `gorm:"size:200" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	if v.ID == 0 {
		v.ID = NewID()
	}
	return nil
}
