// Package analytics computes the budget summary shown on the dashboard.
package analytics

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"expense-tracker/api/models"
)

const (
	// LowBudgetShare is the fraction of income below which the remaining
	// budget is flagged.
	LowBudgetShare = 0.2
	// HeavyCategoryPercent marks a category that takes too large a share of
	// spending.
	HeavyCategoryPercent = 40.0
	// TrendMonths is the length of the monthly trend, current month included.
	TrendMonths = 6

	daysPerMonth = 30
)

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Share    float64 `json:"share"`
	Heavy    bool    `json:"heavy"`
}

type MonthTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

type GoalOutlook struct {
	GoalID                string  `json:"goalId"`
	Title                 string  `json:"title"`
	RemainingAmount       float64 `json:"remainingAmount"`
	MonthsRemaining       int     `json:"monthsRemaining"`
	RequiredMonthlySaving float64 `json:"requiredMonthlySaving"`
	OnTrack               bool    `json:"onTrack"`
}

type Summary struct {
	Income          float64         `json:"income"`
	TotalExpenses   float64         `json:"totalExpenses"`
	Remaining       float64         `json:"remaining"`
	SpentPercentage float64         `json:"spentPercentage"`
	LowBudget       bool            `json:"lowBudget"`
	SavingsRate     float64         `json:"savingsRate"`
	ExpenseCount    int             `json:"expenseCount"`
	AverageExpense  float64         `json:"averageExpense"`
	HighestCategory string          `json:"highestCategory,omitempty"`
	Categories      []CategoryTotal `json:"categories"`
	MonthlyTrend    []MonthTotal    `json:"monthlyTrend"`
	Goals           []GoalOutlook   `json:"goals"`
}

// Summarize builds the summary for one user's expenses and goals against
// their monthly income.
func Summarize(expenses []models.Expense, goals []models.Goal, income float64, now time.Time) Summary {
	total := decimal.Zero
	byCategory := map[string]decimal.Decimal{}
	for _, e := range expenses {
		amount := decimal.NewFromFloat(e.Amount)
		total = total.Add(amount)
		byCategory[e.Category] = byCategory[e.Category].Add(amount)
	}

	totalExpenses := total.Round(2).InexactFloat64()
	remaining := models.SumAmounts(income, -totalExpenses)

	s := Summary{
		Income:          income,
		TotalExpenses:   totalExpenses,
		Remaining:       remaining,
		SpentPercentage: models.Percent(totalExpenses, income),
		LowBudget:       income > 0 && remaining < income*LowBudgetShare,
		SavingsRate:     models.Percent(remaining, income),
		ExpenseCount:    len(expenses),
		Categories:      categoryTotals(byCategory, totalExpenses),
		MonthlyTrend:    monthlyTrend(expenses, now),
		Goals:           goalOutlooks(goals, remaining, now),
	}
	if len(expenses) > 0 {
		s.AverageExpense = total.Div(decimal.NewFromInt(int64(len(expenses)))).Round(2).InexactFloat64()
		s.HighestCategory = s.Categories[0].Category
	}
	return s
}

// categoryTotals returns the per-category totals, largest first. Ties keep
// the fixed category order.
func categoryTotals(byCategory map[string]decimal.Decimal, total float64) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(byCategory))
	for category, sum := range byCategory {
		t := sum.Round(2).InexactFloat64()
		share := models.Percent(t, total)
		out = append(out, CategoryTotal{
			Category: category,
			Total:    t,
			Share:    share,
			Heavy:    share > HeavyCategoryPercent,
		})
	}
	slices.SortFunc(out, func(a, b CategoryTotal) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(categoryRank(a.Category), categoryRank(b.Category))
	})
	return out
}

func categoryRank(category string) int {
	if i := slices.Index(models.ExpenseCategories, category); i >= 0 {
		return i
	}
	return len(models.ExpenseCategories)
}

// monthlyTrend totals expenses per calendar month for the last TrendMonths
// months, oldest first.
func monthlyTrend(expenses []models.Expense, now time.Time) []MonthTotal {
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	first := current.AddDate(0, -(TrendMonths - 1), 0)

	totals := make([]decimal.Decimal, TrendMonths)
	for _, e := range expenses {
		d := e.Date.In(now.Location())
		idx := (d.Year()-first.Year())*12 + int(d.Month()-first.Month())
		if idx < 0 || idx >= TrendMonths {
			continue
		}
		totals[idx] = totals[idx].Add(decimal.NewFromFloat(e.Amount))
	}

	out := make([]MonthTotal, TrendMonths)
	for i := range out {
		out[i] = MonthTotal{
			Month: first.AddDate(0, i, 0).Format("2006-01"),
			Total: totals[i].Round(2).InexactFloat64(),
		}
	}
	return out
}

// goalOutlooks compares the monthly saving each goal needs with what is
// left of the income. A goal past its deadline needs its whole remainder
// now.
func goalOutlooks(goals []models.Goal, monthlySavings float64, now time.Time) []GoalOutlook {
	out := make([]GoalOutlook, 0, len(goals))
	for _, g := range goals {
		remaining := g.RemainingAmount()
		months := int(math.Ceil(g.Deadline.Sub(now).Hours() / 24 / daysPerMonth))
		required := remaining
		if months > 0 {
			required = models.RoundAmount(remaining / float64(months))
		}
		if remaining <= 0 {
			required = 0
		}
		out = append(out, GoalOutlook{
			GoalID:                g.ID,
			Title:                 g.Title,
			RemainingAmount:       remaining,
			MonthsRemaining:       max(months, 0),
			RequiredMonthlySaving: required,
			OnTrack:               required <= monthlySavings,
		})
	}
	return out
}
