package service

import (
	"fmt"
	"strings"

	"familyfinance/models"

	"github.com/shopspring/decimal"
)

var (
	// 超过该比例生成超支告警，超过 100% 为高危
	overspendWarnPercent = decimal.NewFromInt(90)
	overspendHighPercent = decimal.NewFromInt(100)
	hundred              = decimal.NewFromInt(100)
)

// EvaluateExpense 计算一笔支出写入后该类别的花费比例，超过 90% 时返回待保存的告警。
// budget 必须是写入前的存储值；无预算、未知类别或该类别预算为 0 时返回 nil。
func EvaluateExpense(budget *models.Budget, category string, amount decimal.Decimal) *models.SmartAlert {
	if budget == nil {
		return nil
	}
	cat, ok := budget.Categories.Lookup(category)
	if !ok || !cat.Budget.IsPositive() {
		return nil
	}

	newSpent := cat.Spent.Add(amount)
	percentage := newSpent.Div(cat.Budget).Mul(hundred)
	if !percentage.GreaterThan(overspendWarnPercent) {
		return nil
	}

	severity := models.SeverityMedium
	if percentage.GreaterThan(overspendHighPercent) {
		severity = models.SeverityHigh
	}

	return &models.SmartAlert{
		FamilyID: budget.FamilyID,
		Type:     models.AlertOverspending,
		Title:    fmt.Sprintf("%s Budget Alert", capitalize(category)),
		Message:  fmt.Sprintf("You've spent %s%% of your %s budget", percentage.StringFixed(1), category),
		Severity: severity,
		Data: &models.AlertData{
			Category:   category,
			Percentage: percentage.Round(0).IntPart(),
		},
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ScamAlert 检测结果判定为疑似诈骗时生成高危告警，否则返回 nil
func ScamAlert(familyID string, details ScamCheckRequest, assessment *ScamAssessment) *models.SmartAlert {
	if assessment == nil || !assessment.IsScamLikely {
		return nil
	}
	data := &models.AlertData{
		Recipient:  details.Recipient,
		Confidence: int(decimal.NewFromFloat(assessment.Confidence).Round(0).IntPart()),
	}
	if amount, err := decimal.NewFromString(details.Amount); err == nil {
		data.Amount = &amount
	}
	return &models.SmartAlert{
		FamilyID: familyID,
		Type:     models.AlertScam,
		Title:    "Potential Scam Detected",
		Message:  fmt.Sprintf("Payment of ₹%s to %s shows scam indicators (%d%% confidence)", details.Amount, details.Recipient, data.Confidence),
		Severity: models.SeverityHigh,
		Data:     data,
	}
}
