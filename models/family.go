package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Family 家庭（所有其他实体的归属）
type Family struct {
	ID           string          `json:"id" gorm:"primaryKey;size:36"`
	Name         string          `json:"name" gorm:"size:100;not null"`
	TotalBalance decimal.Decimal `json:"totalBalance" gorm:"type:decimal(12,2);not null"`
	NotifyEmail  string          `json:"notifyEmail,omitempty" gorm:"size:255"` // 高危告警通知邮箱
	CreatedAt    time.Time       `json:"createdAt"`
}

func (Family) TableName() string {
	return "families"
}

func (f *Family) BeforeCreate(tx *gorm.DB) error {
	ensureID(&f.ID)
	return nil
}

// FamilyOverview 家庭及其在册成员
type FamilyOverview struct {
	Family  Family         `json:"family"`
	Members []FamilyMember `json:"members"`
}
