package models

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"expense-tracker/api/apperr"
)

const MaxDescriptionLength = 200

// Stored dates must fall in this range so they can be written as JSON
// timestamps.
var (
	MinDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxDate = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
)

// DateInRange reports whether t lies within [MinDate, MaxDate].
func DateInRange(t time.Time) bool {
	return !t.Before(MinDate) && !t.After(MaxDate)
}

// ExpenseCategories is the fixed category set, in display order.
var ExpenseCategories = []string{"מזון", "תחבורה", "דיור", "בילויים", "קניות", "חשבונות", "אחר"}

type Interval string

const (
	Weekly  Interval = "weekly"
	Monthly Interval = "monthly"
	Yearly  Interval = "yearly"
)

func (i Interval) Valid() bool {
	switch i {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Next returns the occurrence one interval after t.
func (i Interval) Next(t time.Time) time.Time {
	switch i {
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Yearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

type Expense struct {
	ID                string     `bson:"_id,omitempty" json:"id"`
	UserID            string     `bson:"user" json:"user"`
	Amount            float64    `bson:"amount" json:"amount"`
	Category          string     `bson:"category" json:"category"`
	Description       string     `bson:"description" json:"description"`
	Date              time.Time  `bson:"date" json:"date"`
	IsRecurring       bool       `bson:"isRecurring" json:"isRecurring"`
	RecurringInterval Interval   `bson:"recurringInterval" json:"recurringInterval"`
	NextOccurrence    *time.Time `bson:"nextOccurrence,omitempty" json:"nextOccurrence,omitempty"`
	RecurringSourceID string     `bson:"recurringSourceId,omitempty" json:"recurringSourceId,omitempty"`
	CreatedAt         time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// ExpensePatch carries the fields supplied to an update. Nil fields are
// left untouched.
type ExpensePatch struct {
	Amount            *float64
	Category          *string
	Description       *string
	Date              *time.Time
	IsRecurring       *bool
	RecurringInterval *Interval
}

// ExpenseFilter narrows an owner's expense listing.
type ExpenseFilter struct {
	Category string
	From     *time.Time
	To       *time.Time
}

// Matches reports whether e passes the filter.
func (f ExpenseFilter) Matches(e Expense) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Date.After(*f.To) {
		return false
	}
	return true
}

// NormalizeExpense fills defaults and rounds the amount. A missing date
// becomes now; a missing interval becomes monthly.
func NormalizeExpense(e *Expense, now time.Time) {
	e.Amount = RoundAmount(e.Amount)
	e.Category = strings.TrimSpace(e.Category)
	e.Description = strings.TrimSpace(e.Description)
	if e.Date.IsZero() {
		e.Date = now
	}
	if e.RecurringInterval == "" {
		e.RecurringInterval = Monthly
	}
	if !e.IsRecurring {
		e.NextOccurrence = nil
	} else if e.NextOccurrence == nil && e.RecurringInterval.Valid() {
		next := e.RecurringInterval.Next(e.Date)
		e.NextOccurrence = &next
	}
}

// ValidateExpense checks a normalized expense.
func ValidateExpense(e *Expense) error {
	if e.Amount <= 0 {
		return apperr.Validation("amount", apperr.CodeAmountPositive)
	}
	if !AmountInRange(e.Amount) {
		return apperr.Validation("amount", apperr.CodeAmountTooLarge)
	}
	if !slices.Contains(ExpenseCategories, e.Category) {
		return apperr.Validationf("category", apperr.CodeCategoryInvalid, "category %q", e.Category)
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return apperr.Validation("description", apperr.CodeDescriptionTooLong)
	}
	if e.Date.IsZero() || !DateInRange(e.Date) {
		return apperr.Validation("date", apperr.CodeInvalidDate)
	}
	if e.NextOccurrence != nil && !DateInRange(*e.NextOccurrence) {
		return apperr.Validation("date", apperr.CodeInvalidDate)
	}
	if !e.RecurringInterval.Valid() {
		return apperr.Validationf("recurringInterval", apperr.CodeIntervalInvalid, "interval %q", e.RecurringInterval)
	}
	return nil
}

// Apply merges the patch into e. A change to the schedule (date, interval
// or recurrence flag) resets the next occurrence so NormalizeExpense
// recomputes it.
func (p ExpensePatch) Apply(e *Expense) {
	rescheduled := false
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
		rescheduled = true
	}
	if p.IsRecurring != nil {
		rescheduled = rescheduled || *p.IsRecurring != e.IsRecurring
		e.IsRecurring = *p.IsRecurring
	}
	if p.RecurringInterval != nil {
		rescheduled = rescheduled || *p.RecurringInterval != e.RecurringInterval
		e.RecurringInterval = *p.RecurringInterval
	}
	if rescheduled {
		e.NextOccurrence = nil
	}
}

// Occurrence returns the concrete expense materialised from a recurring
// template for the given date.
func (e Expense) Occurrence(at, now time.Time) Expense {
	return Expense{
		UserID:            e.UserID,
		Amount:            e.Amount,
		Category:          e.Category,
		Description:       e.Description,
		Date:              at,
		RecurringInterval: e.RecurringInterval,
		RecurringSourceID: e.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
