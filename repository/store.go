// Package repository scopes every expense and goal operation to the
// authenticated owner and manages user accounts on top of a document store.
package repository

import (
	"context"
	"errors"
	"time"

	"expense-tracker/api/models"
)

// Store errors. Implementations wrap driver errors with these so the
// repository can classify them without importing a driver.
var (
	ErrNotFound    = errors.New("document not found")
	ErrDuplicate   = errors.New("duplicate key")
	ErrUnavailable = errors.New("store unavailable")
)

type UserStore interface {
	// InsertUser assigns u.ID. A taken email yields ErrDuplicate.
	InsertUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	ReplaceUser(ctx context.Context, u *models.User) error
}

// ExpenseStore lookups and writes are keyed by (id, owner); a document
// owned by someone else is reported as ErrNotFound.
type ExpenseStore interface {
	InsertExpense(ctx context.Context, e *models.Expense) error
	// FindExpenses returns the owner's expenses, newest date first.
	FindExpenses(ctx context.Context, owner string, filter models.ExpenseFilter) ([]models.Expense, error)
	FindExpense(ctx context.Context, id, owner string) (*models.Expense, error)
	ReplaceExpense(ctx context.Context, e *models.Expense) error
	DeleteExpense(ctx context.Context, id, owner string) error

	// DueRecurringExpenses returns recurring expenses whose next occurrence
	// is at or before now, oldest first.
	DueRecurringExpenses(ctx context.Context, now time.Time, limit int) ([]models.Expense, error)
	// AdvanceNextOccurrence moves the next occurrence from expected to next.
	// It returns ErrNotFound when the stored value is no longer expected.
	AdvanceNextOccurrence(ctx context.Context, id, owner string, expected, next time.Time) error
}

// GoalStore follows the same (id, owner) keying as ExpenseStore.
type GoalStore interface {
	InsertGoal(ctx context.Context, g *models.Goal) error
	// FindGoals returns the owner's goals, most recently created first.
	FindGoals(ctx context.Context, owner string) ([]models.Goal, error)
	FindGoal(ctx context.Context, id, owner string) (*models.Goal, error)
	ReplaceGoal(ctx context.Context, g *models.Goal) error
	DeleteGoal(ctx context.Context, id, owner string) error
	// AddGoalProgress adds delta to the current amount, clamped to
	// [0, target], and appends the effective change to the ledger in one
	// atomic write. It returns the updated goal.
	AddGoalProgress(ctx context.Context, id, owner string, delta float64, at time.Time, note string) (*models.Goal, error)
}

// Store is a complete backend.
type Store interface {
	UserStore
	ExpenseStore
	GoalStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
