package models

import (
	"time"

	"gorm.io/gorm"
)

// AdviceMessage 理财咨询记录（单轮：问题 + 回答），仅在请求带家庭上下文时写入
type AdviceMessage struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	FamilyID  string    `json:"familyId" gorm:"size:36;not null;index"`
	Question  string    `json:"question" gorm:"type:text;not null"`
	Answer    string    `json:"answer" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

func (AdviceMessage) TableName() string {
	return "advice_messages"
}

func (m *AdviceMessage) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
