package models

import (
	"database/sql/driver"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 金融服务类型
const (
	ServiceInsurance   = "insurance"
	ServiceLoan        = "loan"
	ServiceCreditScore = "credit_score"
)

// ServiceDetails 按服务类型使用的附加信息
//
//	insurance:    Policies, Coverage
//	loan:         Remaining, Tenure
//	credit_score: Rating, LastUpdated
type ServiceDetails struct {
	Policies    int    `json:"policies,omitempty"`
	Coverage    string `json:"coverage,omitempty"`
	Remaining   string `json:"remaining,omitempty"`
	Tenure      string `json:"tenure,omitempty"`
	Rating      string `json:"rating,omitempty"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}

func (d ServiceDetails) Value() (driver.Value, error) {
	return jsonValue(d)
}

func (d *ServiceDetails) Scan(src interface{}) error {
	return jsonScan(src, d)
}

// FinancialService 家庭金融服务（保险、贷款、信用分）
type FinancialService struct {
	ID             string          `json:"id" gorm:"primaryKey;size:36"`
	FamilyID       string          `json:"familyId" gorm:"size:36;not null;index"`
	Type           string          `json:"type" gorm:"size:20;not null"`
	Name           string          `json:"name" gorm:"size:100;not null"`
	Status         string          `json:"status" gorm:"size:20"` // active | pending | completed
	Amount         decimal.Decimal `json:"amount" gorm:"type:decimal(12,2)"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment" gorm:"type:decimal(12,2)"`
	Details        *ServiceDetails `json:"details,omitempty" gorm:"type:json"`
}

func (FinancialService) TableName() string {
	return "financial_services"
}

func (s *FinancialService) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
