package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expense-tracker/api/models"
)

// MaxCatchUp bounds how many missed occurrences one run materialises for a
// single recurring expense.
const MaxCatchUp = 12

// Recurring materialises due occurrences of recurring expenses.
type Recurring struct {
	store ExpenseStore
	now   func() time.Time
}

func NewRecurring(store ExpenseStore, clock func() time.Time) *Recurring {
	if clock == nil {
		clock = time.Now
	}
	return &Recurring{store: store, now: clock}
}

// Due lists recurring expenses whose next occurrence has arrived.
func (r *Recurring) Due(ctx context.Context, limit int) ([]models.Expense, error) {
	due, err := r.store.DueRecurringExpenses(ctx, r.now(), limit)
	if err != nil {
		return nil, storeError(err, nil)
	}
	return due, nil
}

// Materialize inserts the due occurrences of template and advances its
// next occurrence. The schedule is claimed before inserting, so a template
// changed or processed concurrently yields zero occurrences rather than
// duplicates.
func (r *Recurring) Materialize(ctx context.Context, template models.Expense) ([]models.Expense, error) {
	if !template.IsRecurring || template.NextOccurrence == nil || !template.RecurringInterval.Valid() {
		return nil, nil
	}

	now := r.now()
	var dates []time.Time
	next := *template.NextOccurrence
	for !next.After(now) && len(dates) < MaxCatchUp {
		dates = append(dates, next)
		next = template.RecurringInterval.Next(next)
	}
	if len(dates) == 0 {
		return nil, nil
	}

	err := r.store.AdvanceNextOccurrence(ctx, template.ID, template.UserID, *template.NextOccurrence, next)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, nil)
	}

	created := make([]models.Expense, 0, len(dates))
	for _, at := range dates {
		occurrence := template.Occurrence(at, now)
		if err := r.store.InsertExpense(ctx, &occurrence); err != nil {
			return created, storeError(fmt.Errorf("inserting occurrence of %s: %w", template.ID, err), nil)
		}
		created = append(created, occurrence)
	}
	return created, nil
}
