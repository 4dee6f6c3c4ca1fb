package models

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 告警类型
const (
	AlertOverspending = "overspending"
	AlertScam         = "scam"
	AlertAchievement  = "achievement"
	AlertGoalProgress = "goal_progress"
)

// 告警级别
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// AlertData 告警附加数据
//
//	overspending:  Category, Percentage
//	scam:          Amount, Recipient, Confidence
//	achievement:   Amount
//	goal_progress: GoalID, Percentage
type AlertData struct {
	Category   string           `json:"category,omitempty"`
	Percentage int64            `json:"percentage,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Recipient  string           `json:"recipient,omitempty"`
	Confidence int              `json:"confidence,omitempty"`
	GoalID     string           `json:"goalId,omitempty"`
}

func (d AlertData) Value() (driver.Value, error) {
	return jsonValue(d)
}

func (d *AlertData) Scan(src interface{}) error {
	return jsonScan(src, d)
}

// SmartAlert 家庭告警，IsRead 只能 false→true
type SmartAlert struct {
	ID        string     `json:"id" gorm:"primaryKey;size:36"`
	FamilyID  string     `json:"familyId" gorm:"size:36;not null;index"`
	Type      string     `json:"type" gorm:"size:20;not null"`
	Title     string     `json:"title" gorm:"size:255;not null"`
	Message   string     `json:"message" gorm:"type:text;not null"`
	Severity  string     `json:"severity" gorm:"size:10;not null"`
	IsRead    bool       `json:"isRead" gorm:"not null"`
	Data      *AlertData `json:"data,omitempty" gorm:"type:json"`
	CreatedAt time.Time  `json:"createdAt" gorm:"index"`
}

func (SmartAlert) TableName() string {
	return "smart_alerts"
}

func (a *SmartAlert) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
