package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"familyfinance/models"

	"github.com/shopspring/decimal"
)

// DemoFamilyID 演示家庭ID
const DemoFamilyID = "family-1"

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) *time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return &t
}

func intPtr(v int) *int {
	return &v
}

// Seed 当演示家庭不存在时写入演示数据；seedMonth 为演示预算月份
func Seed(ctx context.Context, repo Repository, seedMonth string) (bool, error) {
	_, err := repo.GetFamily(ctx, DemoFamilyID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("check seed family: %w", err)
	}

	if _, err := repo.CreateFamily(ctx, &models.Family{
		ID:           DemoFamilyID,
		Name:         "The Johnson Family",
		TotalBalance: d("245670"),
	}); err != nil {
		return false, err
	}

	members := []models.FamilyMember{
		{ID: "member-1", Name: "Dad", Role: models.RoleFamilyHead, Age: intPtr(42), Balance: d("85430"), Avatar: "dad", Status: "+₹2,500"},
		{ID: "member-2", Name: "Mom", Role: models.RoleCoManager, Age: intPtr(38), Balance: d("67240"), Avatar: "mom", Status: "Saving Goal"},
		{ID: "member-3", Name: "Alex", Role: models.RoleStudent, Age: intPtr(16), Balance: d("8500"), Avatar: "alex", Status: "Learning"},
		{ID: "member-4", Name: "Emma", Role: models.RoleJuniorSaver, Age: intPtr(12), Balance: d("3200"), Avatar: "emma", Status: "Top Saver"},
	}
	for i := range members {
		members[i].FamilyID = DemoFamilyID
		members[i].IsActive = true
		if _, err := repo.CreateMember(ctx, &members[i]); err != nil {
			return false, err
		}
	}

	goals := []models.FamilyGoal{
		{ID: "goal-1", Name: "Family Vacation to Goa", Description: "Summer vacation for the whole family",
			TargetAmount: d("75000"), CurrentAmount: d("45000"), Deadline: date("2025-06-01"), Category: "vacation", Icon: "plane",
			Contributors: models.StringList{"member-1", "member-2", "member-3", "member-4"}},
		{ID: "goal-2", Name: "Emergency Fund", Description: "6 months of expenses",
			TargetAmount: d("100000"), CurrentAmount: d("85000"), Deadline: date("2025-12-31"), Category: "emergency", Icon: "shield-alt",
			Contributors: models.StringList{"member-1", "member-2"}},
		{ID: "goal-3", Name: "Children's Education Fund", Description: "Long-term education savings",
			TargetAmount: d("500000"), CurrentAmount: d("125000"), Deadline: date("2030-12-31"), Category: "education", Icon: "graduation-cap",
			Contributors: models.StringList{"member-1", "member-2"}},
	}
	for i := range goals {
		goals[i].FamilyID = DemoFamilyID
		goals[i].IsActive = true
		if _, err := repo.CreateGoal(ctx, &goals[i]); err != nil {
			return false, err
		}
	}

	if _, err := repo.CreateBudget(ctx, &models.Budget{
		ID:          "budget-1",
		FamilyID:    DemoFamilyID,
		Month:       seedMonth,
		TotalBudget: d("95000"),
		TotalSpent:  d("78450"),
		Categories: models.BudgetCategories{
			Food:          models.CategoryBudget{Budget: d("25000"), Spent: d("22340")},
			Transport:     models.CategoryBudget{Budget: d("20000"), Spent: d("18700")},
			Entertainment: models.CategoryBudget{Budget: d("15000"), Spent: d("12450")},
			Shopping:      models.CategoryBudget{Budget: d("27000"), Spent: d("24960")},
			Utilities:     models.CategoryBudget{Budget: d("8000"), Spent: d("0")},
			Healthcare:    models.CategoryBudget{Budget: d("0"), Spent: d("0")},
		},
	}); err != nil {
		return false, err
	}

	scamAmount, bonus := d("15000"), d("3200")
	alerts := []models.SmartAlert{
		{ID: "alert-1", Type: models.AlertOverspending, Title: "Shopping Budget Alert",
			Message: "You've spent 92% of your shopping budget (₹24,960/₹27,000)", Severity: models.SeverityHigh,
			Data: &models.AlertData{Category: models.CategoryShopping, Percentage: 92}},
		{ID: "alert-2", Type: models.AlertScam, Title: "Scam Alert Blocked",
			Message: "Suspicious transaction attempt blocked for ₹15,000", Severity: models.SeverityHigh,
			Data: &models.AlertData{Amount: &scamAmount}},
		{ID: "alert-3", Type: models.AlertAchievement, Title: "Great Job!",
			Message: "You're ahead of your savings goal by ₹3,200 this month", Severity: models.SeverityLow,
			Data: &models.AlertData{Amount: &bonus}},
	}
	for i := range alerts {
		alerts[i].FamilyID = DemoFamilyID
		if _, err := repo.CreateAlert(ctx, &alerts[i]); err != nil {
			return false, err
		}
	}

	contents := []models.EducationalContent{
		{ID: "content-1", Title: "Smart Investment Strategies for Families",
			Description: "Learn how to diversify your family's investment portfolio with our AI-guided course.",
			Content:     "Comprehensive guide to family investing...", Type: "lesson", Category: "investing",
			AgeGroup: "adults", Duration: 15, Difficulty: "intermediate", Icon: "brain", IsAIGenerated: true},
		{ID: "content-2", Title: "Budget Challenge Week",
			Description: "Compete with your family members to see who can stick to their budget best!",
			Content:     "Interactive budget challenge game...", Type: "game", Category: "budgeting",
			AgeGroup: models.AgeGroupAll, Duration: 30, Difficulty: "beginner", Icon: "puzzle-piece"},
	}
	for i := range contents {
		if _, err := repo.CreateEducationalContent(ctx, &contents[i]); err != nil {
			return false, err
		}
	}

	investments := []models.Investment{
		{ID: "inv-1", Name: "Diversified Equity Fund", Type: models.InvestmentSIP, Amount: d("0"), Returns: d("12.8"), Risk: "medium",
			Description: "Start with ₹1,000/month for long-term wealth building", MinInvestment: d("1000")},
		{ID: "inv-2", Name: "Fixed Deposit", Type: models.InvestmentFD, Amount: d("0"), Returns: d("7.2"), Risk: "low",
			Description: "Minimum ₹5,000 • 1-5 years tenure", MinInvestment: d("5000")},
		{ID: "inv-3", Name: "Digital Gold", Type: models.InvestmentGold, Amount: d("0"), Returns: d("8.5"), Risk: "medium",
			Description: "Hedge against inflation • Easy to buy/sell", MinInvestment: d("100")},
	}
	for i := range investments {
		if _, err := repo.CreateInvestment(ctx, &investments[i]); err != nil {
			return false, err
		}
	}

	services := []models.FinancialService{
		{ID: "service-1", Type: models.ServiceInsurance, Name: "Life Insurance", Status: "active",
			Amount: d("1000000"), MonthlyPayment: d("2500"),
			Details: &models.ServiceDetails{Policies: 3, Coverage: "Life, Health, Term"}},
		{ID: "service-2", Type: models.ServiceLoan, Name: "Home Loan", Status: "active",
			Amount: d("2500000"), MonthlyPayment: d("28450"),
			Details: &models.ServiceDetails{Remaining: "18,50,000", Tenure: "15 years"}},
		{ID: "service-3", Type: models.ServiceCreditScore, Name: "Credit Score", Status: "active",
			Amount: d("785"), MonthlyPayment: d("0"),
			Details: &models.ServiceDetails{Rating: "Excellent", LastUpdated: "Nov 15"}},
	}
	for i := range services {
		services[i].FamilyID = DemoFamilyID
		if _, err := repo.CreateFinancialService(ctx, &services[i]); err != nil {
			return false, err
		}
	}

	return true, nil
}
