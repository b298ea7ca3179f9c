package models

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RTOInventory 退回入库记录，每个订单商品行最多一条
type RTOInventory struct {
	ID            snowflake.ID    `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	OrderID       snowflake.ID    `gorm:"column:order_id;not null;index" json:"order_id"`
	OrderItemID   snowflake.ID    `gorm:"column:order_item_id;not null;uniqueIndex" json:"order_item_id"`
	DropshipperID snowflake.ID    `gorm:"column:dropshipper_id;index" json:"dropshipper_id"`
	ProductID     snowflake.ID    `gorm:"column:product_id;not null" json:"product_id"`
	VariantID     *snowflake.ID   `gorm:"column:variant_id" json:"variant_id"`
	Quantity      int             `gorm:"column:quantity;not null" json:"quantity"`
	Price         decimal.Decimal `gorm:"column:price;type:decimal(12,2);not null" json:"price"`
	CreatedBy     int64           `gorm:"column:created_by" json:"created_by"`
	CreatedByRole ActorRole       `gorm:"column:created_by_role;size:20" json:"created_by_role"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName 设置表名
func (RTOInventory) TableName() string {
	return "rto_inventories"
}

func (r *RTOInventory) BeforeCreate(*gorm.DB) error {
	if r.ID == 0 {
		r.ID = NewID()
	}
	return nil
}
