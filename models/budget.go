package models

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 预算类别（固定六个）
const (
	CategoryFood          = "food"
	CategoryTransport     = "transport"
	CategoryEntertainment = "entertainment"
	CategoryShopping      = "shopping"
	CategoryUtilities     = "utilities"
	CategoryHealthcare    = "healthcare"
)

// GetBudgetCategories 获取所有预算类别
func GetBudgetCategories() []string {
	return []string{
		CategoryFood,
		CategoryTransport,
		CategoryEntertainment,
		CategoryShopping,
		CategoryUtilities,
		CategoryHealthcare,
	}
}

// CategoryBudget 单个类别的预算与已花费
type CategoryBudget struct {
	Budget decimal.Decimal `json:"budget"`
	Spent  decimal.Decimal `json:"spent"`
}

// Percentage 已花费占预算百分比；预算非正时 ok=false
func (c CategoryBudget) Percentage() (decimal.Decimal, bool) {
	if !c.Budget.IsPositive() {
		return decimal.Zero, false
	}
	return c.Spent.Div(c.Budget).Mul(hundred), true
}

// BudgetCategories 六个类别，JSON 列存储
type BudgetCategories struct {
	Food          CategoryBudget `json:"food"`
	Transport     CategoryBudget `json:"transport"`
	Entertainment CategoryBudget `json:"entertainment"`
	Shopping      CategoryBudget `json:"shopping"`
	Utilities     CategoryBudget `json:"utilities"`
	Healthcare    CategoryBudget `json:"healthcare"`
}

// Lookup 按类别名取指针，未知类别返回 false
func (c *BudgetCategories) Lookup(name string) (*CategoryBudget, bool) {
	switch name {
	case CategoryFood:
		return &c.Food, true
	case CategoryTransport:
		return &c.Transport, true
	case CategoryEntertainment:
		return &c.Entertainment, true
	case CategoryShopping:
		return &c.Shopping, true
	case CategoryUtilities:
		return &c.Utilities, true
	case CategoryHealthcare:
		return &c.Healthcare, true
	}
	return nil, false
}

// Limits 各类别预算额度
func (c *BudgetCategories) Limits() map[string]decimal.Decimal {
	limits := make(map[string]decimal.Decimal, 6)
	for _, name := range GetBudgetCategories() {
		cat, _ := c.Lookup(name)
		limits[name] = cat.Budget
	}
	return limits
}

func (c BudgetCategories) Value() (driver.Value, error) {
	return jsonValue(c)
}

func (c *BudgetCategories) Scan(src interface{}) error {
	return jsonScan(src, c)
}

// Budget 家庭月度预算，按约定每个 (familyId, month) 一条，不做唯一约束；重复时以最早创建的为准
type Budget struct {
	ID          string           `json:"id" gorm:"primaryKey;size:36"`
	FamilyID    string           `json:"familyId" gorm:"size:36;not null;index:idx_budget_family_month"`
	Month       string           `json:"month" gorm:"size:7;not null;index:idx_budget_family_month"` // 2024-11
	TotalBudget decimal.Decimal  `json:"totalBudget" gorm:"type:decimal(12,2);not null"`
	TotalSpent  decimal.Decimal  `json:"totalSpent" gorm:"type:decimal(12,2);not null"`
	Categories  BudgetCategories `json:"categories" gorm:"type:json"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func (Budget) TableName() string {
	return "budgets"
}

func (b *Budget) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

// BudgetUpdate 预算部分更新
type BudgetUpdate struct {
	TotalBudget *decimal.Decimal  `json:"totalBudget"`
	TotalSpent  *decimal.Decimal  `json:"totalSpent"`
	Categories  *BudgetCategories `json:"categories"`
}

func (u BudgetUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.TotalBudget != nil {
		cols["total_budget"] = *u.TotalBudget
	}
	if u.TotalSpent != nil {
		cols["total_spent"] = *u.TotalSpent
	}
	if u.Categories != nil {
		cols["categories"] = *u.Categories
	}
	return cols
}

func (u BudgetUpdate) Apply(b *Budget) {
	if u.TotalBudget != nil {
		b.TotalBudget = *u.TotalBudget
	}
	if u.TotalSpent != nil {
		b.TotalSpent = *u.TotalSpent
	}
	if u.Categories != nil {
		b.Categories = *u.Categories
	}
}
