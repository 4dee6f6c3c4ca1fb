package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// FamilyGoal 家庭储蓄目标
type FamilyGoal struct {
	ID            string          `json:"id" gorm:"primaryKey;size:36"`
	FamilyID      string          `json:"familyId" gorm:"size:36;index;not null"`
	Name          string          `json:"name" gorm:"size:100;not null"`
	Description   string          `json:"description" gorm:"size:255"`
	TargetAmount  decimal.Decimal `json:"targetAmount" gorm:"type:decimal(12,2);not null"`
	CurrentAmount decimal.Decimal `json:"currentAmount" gorm:"type:decimal(12,2);not null"`
	Deadline      *time.Time      `json:"deadline,omitempty"`
	Category      string          `json:"category" gorm:"size:50"` // vacation | emergency | education ...
	Icon          string          `json:"icon" gorm:"size:50"`
	Contributors  StringList      `json:"contributors" gorm:"type:json"` // 成员ID，不做外键约束
	IsActive      bool            `json:"isActive" gorm:"not null;index"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (FamilyGoal) TableName() string {
	return "family_goals"
}

func (g *FamilyGoal) BeforeCreate(tx *gorm.DB) error {
	ensureID(&g.ID)
	return nil
}

// Percentage 完成度 current/target*100，保留两位小数；目标金额非正时为 0
func (g FamilyGoal) Percentage() float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	p, _ := g.CurrentAmount.Div(g.TargetAmount).Mul(hundred).Round(2).Float64()
	return p
}

// MarshalJSON 输出时附带 percentage
func (g FamilyGoal) MarshalJSON() ([]byte, error) {
	type goal FamilyGoal
	return json.Marshal(struct {
		goal
		Percentage float64 `json:"percentage"`
	}{goal(g), g.Percentage()})
}

// GoalUpdate 目标部分更新
type GoalUpdate struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	TargetAmount  *decimal.Decimal `json:"targetAmount"`
	CurrentAmount *decimal.Decimal `json:"currentAmount"`
	Deadline      *time.Time       `json:"deadline"`
	Category      *string          `json:"category"`
	Icon          *string          `json:"icon"`
	Contributors  *[]string        `json:"contributors"`
	IsActive      *bool            `json:"isActive"`
}

func (u GoalUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.TargetAmount != nil {
		cols["target_amount"] = *u.TargetAmount
	}
	if u.CurrentAmount != nil {
		cols["current_amount"] = *u.CurrentAmount
	}
	if u.Deadline != nil {
		cols["deadline"] = *u.Deadline
	}
	if u.Category != nil {
		cols["category"] = *u.Category
	}
	if u.Icon != nil {
		cols["icon"] = *u.Icon
	}
	if u.Contributors != nil {
		cols["contributors"] = StringList(*u.Contributors)
	}
	if u.IsActive != nil {
		cols["is_active"] = *u.IsActive
	}
	return cols
}

func (u GoalUpdate) Apply(g *FamilyGoal) {
	if u.Name != nil {
		g.Name = *u.Name
	}
	if u.Description != nil {
		g.Description = *u.Description
	}
	if u.TargetAmount != nil {
		g.TargetAmount = *u.TargetAmount
	}
	if u.CurrentAmount != nil {
		g.CurrentAmount = *u.CurrentAmount
	}
	if u.Deadline != nil {
		d := *u.Deadline
		g.Deadline = &d
	}
	if u.Category != nil {
		g.Category = *u.Category
	}
	if u.Icon != nil {
		g.Icon = *u.Icon
	}
	if u.Contributors != nil {
		g.Contributors = append(StringList(nil), (*u.Contributors)...)
	}
	if u.IsActive != nil {
		g.IsActive = *u.IsActive
	}
}
