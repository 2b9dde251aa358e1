package models

import (
	"math"
	"slices"
	"strings"
	"time"

	"expense-tracker/api/apperr"
)

// GoalCategories is the fixed goal category set.
var GoalCategories = []string{"חיסכון", "השקעות", "קניות", "חופשה"}

type ContributionType string

const (
	Deposit    ContributionType = "deposit"
	Withdrawal ContributionType = "withdrawal"
)

// Contribution is one entry in a goal's progress ledger. Amount is the
// effective change after clamping, so the ledger always sums to the
// current amount of goals that started at zero.
type Contribution struct {
	Amount float64          `bson:"amount" json:"amount"`
	Type   ContributionType `bson:"type" json:"type"`
	Date   time.Time        `bson:"date" json:"date"`
	Note   string           `bson:"note,omitempty" json:"note,omitempty"`
}

type Goal struct {
	ID            string         `bson:"_id,omitempty" json:"id"`
	UserID        string         `bson:"user" json:"user"`
	Title         string         `bson:"title" json:"title"`
	TargetAmount  float64        `bson:"targetAmount" json:"targetAmount"`
	CurrentAmount float64        `bson:"currentAmount" json:"currentAmount"`
	Category      string         `bson:"category" json:"category"`
	Deadline      time.Time      `bson:"deadline" json:"deadline"`
	Description   string         `bson:"description" json:"description"`
	Transactions  []Contribution `bson:"transactions" json:"transactions"`
	CreatedAt     time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// GoalPatch carries the fields supplied to an update. Nil fields are left
// untouched.
type GoalPatch struct {
	Title         *string
	TargetAmount  *float64
	CurrentAmount *float64
	Category      *string
	Deadline      *time.Time
	Description   *string
}

// NormalizeGoal rounds amounts, trims text and clamps the current amount
// into [0, target].
func NormalizeGoal(g *Goal) {
	g.Title = strings.TrimSpace(g.Title)
	g.Category = strings.TrimSpace(g.Category)
	g.Description = strings.TrimSpace(g.Description)
	g.TargetAmount = RoundAmount(g.TargetAmount)
	g.CurrentAmount = RoundAmount(g.CurrentAmount)
	if g.TargetAmount > 0 && g.CurrentAmount > g.TargetAmount {
		g.CurrentAmount = g.TargetAmount
	}
	if g.Transactions == nil {
		g.Transactions = []Contribution{}
	}
}

// ValidateGoal checks a goal. A negative current amount is rejected rather
// than clamped, because it can only come from direct input.
func ValidateGoal(g *Goal) error {
	if g.Title == "" {
		return apperr.Validation("title", apperr.CodeTitleRequired)
	}
	if g.TargetAmount <= 0 {
		return apperr.Validation("targetAmount", apperr.CodeTargetPositive)
	}
	if !AmountInRange(g.TargetAmount) {
		return apperr.Validation("targetAmount", apperr.CodeAmountTooLarge)
	}
	if g.CurrentAmount < 0 {
		return apperr.Validation("currentAmount", apperr.CodeCurrentNegative)
	}
	if !AmountInRange(g.CurrentAmount) {
		return apperr.Validation("currentAmount", apperr.CodeAmountTooLarge)
	}
	if !slices.Contains(GoalCategories, g.Category) {
		return apperr.Validationf("category", apperr.CodeCategoryInvalid, "category %q", g.Category)
	}
	if g.Deadline.IsZero() {
		return apperr.Validation("deadline", apperr.CodeDeadlineRequired)
	}
	if !DateInRange(g.Deadline) {
		return apperr.Validation("deadline", apperr.CodeInvalidDate)
	}
	return nil
}

func (p GoalPatch) Apply(g *Goal) {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
	if p.Category != nil {
		g.Category = *p.Category
	}
	if p.Deadline != nil {
		g.Deadline = *p.Deadline
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
}

// ClampProgress returns current+delta limited to [0, target].
func ClampProgress(current, delta, target float64) float64 {
	next := SumAmounts(current, delta)
	if next > target {
		next = target
	}
	if next < 0 {
		next = 0
	}
	return next
}

// ApplyProgress adds delta to the current amount, clamped to [0, target],
// and records the effective change in the ledger. It returns the effective
// change; a change of zero is not recorded.
func (g *Goal) ApplyProgress(delta float64, at time.Time, note string) float64 {
	next := ClampProgress(g.CurrentAmount, delta, g.TargetAmount)
	effective := SumAmounts(next, -g.CurrentAmount)
	g.CurrentAmount = next
	if effective == 0 {
		return 0
	}

	entry := Contribution{Amount: math.Abs(effective), Type: Deposit, Date: at, Note: strings.TrimSpace(note)}
	if effective < 0 {
		entry.Type = Withdrawal
	}
	g.Transactions = append(g.Transactions, entry)
	return effective
}

// GoalView is a goal with its computed fields, produced on read.
type GoalView struct {
	Goal
	Progress            float64 `json:"progress"`
	RemainingAmount     float64 `json:"remainingAmount"`
	DaysRemaining       int     `json:"daysRemaining"`
	MonthlyTargetSaving float64 `json:"monthlyTargetSaving"`
}

// RemainingAmount is target minus current.
func (g Goal) RemainingAmount() float64 {
	return SumAmounts(g.TargetAmount, -g.CurrentAmount)
}

// ProgressPercent is current as a percentage of target.
func (g Goal) ProgressPercent() float64 {
	return Percent(g.CurrentAmount, g.TargetAmount)
}

// DaysRemaining is the number of days until the deadline, rounded up.
// It is negative once the deadline has passed.
func (g Goal) DaysRemaining(now time.Time) int {
	return int(math.Ceil(g.Deadline.Sub(now).Hours() / 24))
}

// MonthlyTargetSaving is the saving needed per 30-day month to reach the
// target by the deadline. It is zero when nothing remains or when the
// deadline has passed.
func (g Goal) MonthlyTargetSaving(now time.Time) float64 {
	remaining := g.RemainingAmount()
	days := g.DaysRemaining(now)
	if remaining <= 0 || days <= 0 {
		return 0
	}
	return RoundAmount(remaining / (float64(days) / 30))
}

func (g Goal) View(now time.Time) GoalView {
	return GoalView{
		Goal:                g,
		Progress:            g.ProgressPercent(),
		RemainingAmount:     g.RemainingAmount(),
		DaysRemaining:       g.DaysRemaining(now),
		MonthlyTargetSaving: g.MonthlyTargetSaving(now),
	}
}

func GoalViews(goals []Goal, now time.Time) []GoalView {
	views := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, g.View(now))
	}
	return views
}
