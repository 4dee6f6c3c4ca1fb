package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 交易类型
const (
	TransactionIncome     = "income"
	TransactionExpense    = "expense"
	TransactionSaving     = "saving"
	TransactionInvestment = "investment"
)

// MonthLayout 预算月份格式
const MonthLayout = "2006-01"

// Transaction 交易记录，只追加
type Transaction struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	FamilyID    string          `json:"familyId" gorm:"size:36;not null;index:idx_tx_family_date"`
	MemberID    *string         `json:"memberId,omitempty" gorm:"size:36;index"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Category    string          `json:"category" gorm:"size:50;not null"`
	Description string          `json:"description" gorm:"size:255"`
	Type        string          `json:"type" gorm:"size:20;not null"`
	Date        time.Time       `json:"date" gorm:"not null;index:idx_tx_family_date"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

// Month 交易所属预算月份
func (t Transaction) Month() string {
	return t.Date.Format(MonthLayout)
}

// IsExpense 是否为支出
func (t Transaction) IsExpense() bool {
	return t.Type == TransactionExpense
}
