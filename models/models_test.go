package models

import (
	"strings"
	"testing"
	"time"

	"expense-tracker/api/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func TestRoundAmount(t *testing.T) {
	assert.Equal(t, 45.5, RoundAmount(45.5))
	assert.Equal(t, 10.01, RoundAmount(10.005))
	assert.Equal(t, 0.3, SumAmounts(0.1, 0.2))
	assert.Equal(t, 0.0, Percent(5, 0))
	assert.Equal(t, 33.33, Percent(1, 3))
}

func TestNormalizeExpenseDefaults(t *testing.T) {
	e := Expense{Amount: 12.345, Category: " מזון ", IsRecurring: true}
	NormalizeExpense(&e, now)

	assert.Equal(t, 12.35, e.Amount)
	assert.Equal(t, "מזון", e.Category)
	assert.Equal(t, now, e.Date)
	assert.Equal(t, Monthly, e.RecurringInterval)
	require.NotNil(t, e.NextOccurrence)
	assert.Equal(t, now.AddDate(0, 1, 0), *e.NextOccurrence)
	assert.NoError(t, ValidateExpense(&e))
}

func TestValidateExpense(t *testing.T) {
	cases := []struct {
		name  string
		e     Expense
		field string
	}{
		{"zero amount", Expense{Amount: 0, Category: "מזון"}, "amount"},
		{"rounds to zero", Expense{Amount: 0.001, Category: "מזון"}, "amount"},
		{"negative", Expense{Amount: -3, Category: "מזון"}, "amount"},
		{"category", Expense{Amount: 3, Category: "food"}, "category"},
		{"description", Expense{Amount: 3, Category: "אחר", Description: strings.Repeat("א", 201)}, "description"},
		{"interval", Expense{Amount: 3, Category: "אחר", RecurringInterval: "daily"}, "recurringInterval"},
		{"too large", Expense{Amount: 1.7e308, Category: "אחר"}, "amount"},
		{"year 10000", Expense{Amount: 3, Category: "אחר", Date: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)}, "date"},
		{"before 1900", Expense{Amount: 3, Category: "אחר", Date: time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)}, "date"},
		{"next occurrence past 9999", Expense{Amount: 3, Category: "אחר", IsRecurring: true, RecurringInterval: Monthly, Date: time.Date(9999, 12, 15, 0, 0, 0, 0, time.UTC)}, "date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := tc.e
			NormalizeExpense(&e, now)
			err := ValidateExpense(&e)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidationFailed, apperr.KindOf(err))
			assert.Equal(t, tc.field, apperr.From(err).Field)
		})
	}
}

func TestAmountInRange(t *testing.T) {
	assert.True(t, AmountInRange(MaxAmount))
	assert.True(t, AmountInRange(-MaxAmount))
	assert.False(t, AmountInRange(MaxAmount+1))
	assert.False(t, AmountInRange(1e300))
	assert.True(t, DateInRange(MaxDate))
	assert.False(t, DateInRange(MaxDate.Add(time.Second)))
	assert.False(t, DateInRange(time.Time{}))
}

func TestDescriptionLimitCountsCharacters(t *testing.T) {
	e := Expense{Amount: 1, Category: "אחר", Description: strings.Repeat("ש", MaxDescriptionLength)}
	NormalizeExpense(&e, now)
	assert.NoError(t, ValidateExpense(&e))
}

func TestExpensePatchReschedules(t *testing.T) {
	e := Expense{Amount: 100, Category: "חשבונות", IsRecurring: true, Date: now}
	NormalizeExpense(&e, now)
	first := *e.NextOccurrence

	weekly := Weekly
	ExpensePatch{RecurringInterval: &weekly}.Apply(&e)
	NormalizeExpense(&e, now)
	require.NotNil(t, e.NextOccurrence)
	assert.Equal(t, now.AddDate(0, 0, 7), *e.NextOccurrence)
	assert.NotEqual(t, first, *e.NextOccurrence)

	amount := 50.0
	ExpensePatch{Amount: &amount}.Apply(&e)
	NormalizeExpense(&e, now)
	assert.Equal(t, now.AddDate(0, 0, 7), *e.NextOccurrence)

	off := false
	ExpensePatch{IsRecurring: &off}.Apply(&e)
	NormalizeExpense(&e, now)
	assert.Nil(t, e.NextOccurrence)
}

func TestIntervalNext(t *testing.T) {
	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 17, 0, 0, 0, 0, time.UTC), Weekly.Next(start))
	assert.Equal(t, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), Monthly.Next(start))
	assert.Equal(t, time.Date(2027, 1, 10, 0, 0, 0, 0, time.UTC), Yearly.Next(start))
}

func TestExpenseFilter(t *testing.T) {
	from := now.AddDate(0, 0, -1)
	e := Expense{Category: "מזון", Date: now}
	assert.True(t, ExpenseFilter{}.Matches(e))
	assert.True(t, ExpenseFilter{Category: "מזון", From: &from}.Matches(e))
	assert.False(t, ExpenseFilter{Category: "דיור"}.Matches(e))
	assert.False(t, ExpenseFilter{To: &from}.Matches(e))
}

func newGoal() Goal {
	g := Goal{Title: "Car", TargetAmount: 1000, Category: "חיסכון", Deadline: now.AddDate(0, 0, 60)}
	NormalizeGoal(&g)
	return g
}

func TestGoalProgressClamps(t *testing.T) {
	g := newGoal()

	assert.Equal(t, 1000.0, g.ApplyProgress(1500, now, ""))
	assert.Equal(t, 1000.0, g.CurrentAmount)

	assert.Equal(t, -200.0, g.ApplyProgress(-200, now, "repair"))
	assert.Equal(t, 800.0, g.CurrentAmount)

	assert.Equal(t, -800.0, g.ApplyProgress(-5000, now, ""))
	assert.Equal(t, 0.0, g.CurrentAmount)

	assert.Equal(t, 0.0, g.ApplyProgress(-1, now, ""))
	require.Len(t, g.Transactions, 3)
	assert.Equal(t, Contribution{Amount: 1000, Type: Deposit, Date: now}, g.Transactions[0])
	assert.Equal(t, Withdrawal, g.Transactions[1].Type)
	assert.Equal(t, "repair", g.Transactions[1].Note)
}

func TestGoalProgressStaysInRange(t *testing.T) {
	g := newGoal()
	deltas := []float64{250.5, -100, 999, -0.01, 3, -2000, 400.25, 400.25, 400.25}
	for _, d := range deltas {
		g.ApplyProgress(d, now, "")
		assert.GreaterOrEqual(t, g.CurrentAmount, 0.0)
		assert.LessOrEqual(t, g.CurrentAmount, g.TargetAmount)
	}

	var ledger float64
	for _, c := range g.Transactions {
		if c.Type == Deposit {
			ledger = SumAmounts(ledger, c.Amount)
		} else {
			ledger = SumAmounts(ledger, -c.Amount)
		}
	}
	assert.Equal(t, g.CurrentAmount, ledger)
}

func TestNormalizeGoalClampsCurrent(t *testing.T) {
	g := Goal{Title: "Trip", TargetAmount: 500, CurrentAmount: 900, Category: "חופשה", Deadline: now}
	NormalizeGoal(&g)
	assert.Equal(t, 500.0, g.CurrentAmount)
	assert.NotNil(t, g.Transactions)
}

func TestValidateGoal(t *testing.T) {
	cases := map[string]struct {
		mutate func(*Goal)
		field  string
	}{
		"title":    {func(g *Goal) { g.Title = " " }, "title"},
		"target":   {func(g *Goal) { g.TargetAmount = 0 }, "targetAmount"},
		"current":  {func(g *Goal) { g.CurrentAmount = -5 }, "currentAmount"},
		"category": {func(g *Goal) { g.Category = "מזון" }, "category"},
		"deadline": {func(g *Goal) { g.Deadline = time.Time{} }, "deadline"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			g := newGoal()
			tc.mutate(&g)
			NormalizeGoal(&g)
			err := ValidateGoal(&g)
			require.Error(t, err)
			assert.Equal(t, tc.field, apperr.From(err).Field)
		})
	}
}

func TestGoalView(t *testing.T) {
	g := newGoal()
	g.CurrentAmount = 400

	v := g.View(now)
	assert.Equal(t, 40.0, v.Progress)
	assert.Equal(t, 600.0, v.RemainingAmount)
	assert.Equal(t, 60, v.DaysRemaining)
	assert.Equal(t, 300.0, v.MonthlyTargetSaving)

	partial := g.View(now.Add(-12 * time.Hour))
	assert.Equal(t, 61, partial.DaysRemaining)

	late := g.View(now.AddDate(0, 0, 90))
	assert.Less(t, late.DaysRemaining, 0)
	assert.Equal(t, 0.0, late.MonthlyTargetSaving)

	g.CurrentAmount = 1000
	assert.Equal(t, 0.0, g.View(now).MonthlyTargetSaving)
}

func TestRegistrationValidate(t *testing.T) {
	r := Registration{Name: " Dana ", Email: " Dana@Example.COM ", Password: "secret1"}
	r.Normalize()
	assert.Equal(t, "Dana", r.Name)
	assert.Equal(t, "dana@example.com", r.Email)
	assert.NoError(t, r.Validate())

	bad := []struct {
		r     Registration
		field string
	}{
		{Registration{Email: "a@b.co", Password: "secret1"}, "name"},
		{Registration{Name: "x", Email: "not-an-email", Password: "secret1"}, "email"},
		{Registration{Name: "x", Email: "a@b.co", Password: "12345"}, "password"},
	}
	for _, tc := range bad {
		assert.Equal(t, tc.field, apperr.From(tc.r.Validate()).Field)
	}
}

func TestProfilePatch(t *testing.T) {
	u := User{Name: "Dana", Preferences: DefaultPreferences()}
	currency := "usd"
	income := 1234.567
	ProfilePatch{Currency: &currency, Income: &income}.Apply(&u)

	assert.Equal(t, "USD", u.Preferences.Currency)
	assert.Equal(t, 1234.57, u.Income)
	assert.Equal(t, "he", u.Preferences.Language)
	assert.NoError(t, ValidateUser(&u))

	theme := "blue"
	ProfilePatch{Theme: &theme}.Apply(&u)
	assert.Equal(t, "theme", apperr.From(ValidateUser(&u)).Field)

	u.Preferences.Theme = "dark"
	u.Income = -1
	assert.Equal(t, "income", apperr.From(ValidateUser(&u)).Field)
}
