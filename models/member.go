package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 成员角色
const (
	RoleFamilyHead  = "Family Head"
	RoleCoManager   = "Co-Manager"
	RoleStudent     = "Student"
	RoleJuniorSaver = "Junior Saver"
)

// FamilyMember 家庭成员，IsActive=false 视为软删除
type FamilyMember struct {
	ID       string          `json:"id" gorm:"primaryKey;size:36"`
	FamilyID string          `json:"familyId" gorm:"size:36;index;not null"`
	Name     string          `json:"name" gorm:"size:100;not null"`
	Role     string          `json:"role" gorm:"size:50;not null"`
	Age      *int            `json:"age,omitempty"`
	Balance  decimal.Decimal `json:"balance" gorm:"type:decimal(12,2);not null"`
	Avatar   string          `json:"avatar" gorm:"size:100"`
	Status   string          `json:"status" gorm:"size:100"`
	IsActive bool            `json:"isActive" gorm:"not null;index"`
}

func (FamilyMember) TableName() string {
	return "family_members"
}

func (m *FamilyMember) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// MemberUpdate 成员部分更新，nil 字段保持不变
type MemberUpdate struct {
	Name     *string          `json:"name"`
	Role     *string          `json:"role"`
	Age      *int             `json:"age"`
	Balance  *decimal.Decimal `json:"balance"`
	Avatar   *string          `json:"avatar"`
	Status   *string          `json:"status"`
	IsActive *bool            `json:"isActive"`
}

// Columns 转换为数据库列更新
func (u MemberUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Role != nil {
		cols["role"] = *u.Role
	}
	if u.Age != nil {
		cols["age"] = *u.Age
	}
	if u.Balance != nil {
		cols["balance"] = *u.Balance
	}
	if u.Avatar != nil {
		cols["avatar"] = *u.Avatar
	}
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	if u.IsActive != nil {
		cols["is_active"] = *u.IsActive
	}
	return cols
}

// Apply 将更新应用到内存对象
func (u MemberUpdate) Apply(m *FamilyMember) {
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.Role != nil {
		m.Role = *u.Role
	}
	if u.Age != nil {
		age := *u.Age
		m.Age = &age
	}
	if u.Balance != nil {
		m.Balance = *u.Balance
	}
	if u.Avatar != nil {
		m.Avatar = *u.Avatar
	}
	if u.Status != nil {
		m.Status = *u.Status
	}
	if u.IsActive != nil {
		m.IsActive = *u.IsActive
	}
}
