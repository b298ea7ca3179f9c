package models

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment 支付记录
type Payment struct {
	ID            snowflake.ID    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Provider      string          `gorm:"size:50" json:"provider"`
	TransactionID string          `gorm:"column:transaction_id;size:100;index" json:"transaction_id"`
	PaymentLink   string          `gorm:"column:payment_link;size:500" json:"payment_link"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency      string          `gorm:"size:3" json:"currency"`
	Status        string          `gorm:"size:20" json:"status"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == 0 {
		p.ID = NewID()
	}
	return nil
}
