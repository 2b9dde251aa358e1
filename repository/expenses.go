package repository

import (
	"context"
	"time"

	"expense-tracker/api/apperr"
	"expense-tracker/api/auth"
	"expense-tracker/api/models"
)

// Expenses is the owner-scoped expense repository.
type Expenses struct {
	store ExpenseStore
	now   func() time.Time
}

func NewExpenses(store ExpenseStore, clock func() time.Time) *Expenses {
	if clock == nil {
		clock = time.Now
	}
	return &Expenses{store: store, now: clock}
}

func (r *Expenses) List(ctx context.Context, p auth.Principal, filter models.ExpenseFilter) ([]models.Expense, error) {
	owner, err := ownerID(p)
	if err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, apperr.Validation("from", apperr.CodeInvalidDate)
	}
	expenses, err := r.store.FindExpenses(ctx, owner, filter)
	if err != nil {
		return nil, storeError(err, nil)
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	return expenses, nil
}

func (r *Expenses) Get(ctx context.Context, p auth.Principal, id string) (*models.Expense, error) {
	owner, err := ownerID(p)
	if err != nil {
		return nil, err
	}
	e, err := r.store.FindExpense(ctx, id, owner)
	if err != nil {
		return nil, storeError(err, apperr.ErrExpenseNotFound)
	}
	return e, nil
}

// Create stores e for the principal. Any owner, id or schedule state in e
// is discarded.
func (r *Expenses) Create(ctx context.Context, p auth.Principal, e models.Expense) (*models.Expense, error) {
	owner, err := ownerID(p)
	if err != nil {
		return nil, err
	}

	now := r.now()
	e.ID = ""
	e.UserID = owner
	e.NextOccurrence = nil
	e.RecurringSourceID = ""
	e.CreatedAt = now
	e.UpdatedAt = now
	models.NormalizeExpense(&e, now)
	if err := models.ValidateExpense(&e); err != nil {
		return nil, err
	}

	if err := r.store.InsertExpense(ctx, &e); err != nil {
		return nil, storeError(err, nil)
	}
	return &e, nil
}

// Update merges patch into the principal's expense id.
func (r *Expenses) Update(ctx context.Context, p auth.Principal, id string, patch models.ExpensePatch) (*models.Expense, error) {
	e, err := r.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	now := r.now()
	patch.Apply(e)
	models.NormalizeExpense(e, now)
	if err := models.ValidateExpense(e); err != nil {
		return nil, err
	}
	e.UpdatedAt = now

	if err := r.store.ReplaceExpense(ctx, e); err != nil {
		return nil, storeError(err, apperr.ErrExpenseNotFound)
	}
	return e, nil
}

func (r *Expenses) Delete(ctx context.Context, p auth.Principal, id string) error {
	owner, err := ownerID(p)
	if err != nil {
		return err
	}
	return storeError(r.store.DeleteExpense(ctx, id, owner), apperr.ErrExpenseNotFound)
}
