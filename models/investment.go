package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 投资类型
const (
	InvestmentSIP    = "sip"
	InvestmentFD     = "fd"
	InvestmentGold   = "gold"
	InvestmentStocks = "stocks"
)

// Investment 投资产品目录
type Investment struct {
	ID            string          `json:"id" gorm:"primaryKey;size:36"`
	Name          string          `json:"name" gorm:"size:100;not null"`
	Type          string          `json:"type" gorm:"size:20;not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Returns       decimal.Decimal `json:"returns" gorm:"type:decimal(5,2)"` // 年化百分比
	Risk          string          `json:"risk" gorm:"size:10"`
	Description   string          `json:"description" gorm:"size:255"`
	MinInvestment decimal.Decimal `json:"minInvestment" gorm:"type:decimal(12,2)"`
}

func (Investment) TableName() string {
	return "investments"
}

func (i *Investment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
