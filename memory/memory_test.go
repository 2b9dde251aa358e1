package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expense-tracker/api/models"
	"expense-tracker/api/repository"
)

func TestExpensesAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	s := New()

	e := &models.Expense{UserID: "alice", Amount: 10, Date: time.Now()}
	require.NoError(t, s.InsertExpense(ctx, e))
	require.NotEmpty(t, e.ID)

	_, err := s.FindExpense(ctx, e.ID, "bob")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.DeleteExpense(ctx, e.ID, "bob"), repository.ErrNotFound)

	stolen := *e
	stolen.UserID = "bob"
	assert.ErrorIs(t, s.ReplaceExpense(ctx, &stolen), repository.ErrNotFound)

	list, err := s.FindExpenses(ctx, "bob", models.ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.DeleteExpense(ctx, e.ID, "alice"))
	assert.ErrorIs(t, s.DeleteExpense(ctx, e.ID, "alice"), repository.ErrNotFound)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	g := &models.Goal{UserID: "alice", Transactions: []models.Contribution{{Amount: 5}}}
	require.NoError(t, s.InsertGoal(ctx, g))

	got, err := s.FindGoal(ctx, g.ID, "alice")
	require.NoError(t, err)
	got.Transactions[0].Amount = 99
	got.CurrentAmount = 42

	again, err := s.FindGoal(ctx, g.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 5.0, again.Transactions[0].Amount)
	assert.Equal(t, 0.0, again.CurrentAmount)
}

func TestUniqueEmail(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.InsertUser(ctx, &models.User{Email: "a@b.co"}))
	assert.ErrorIs(t, s.InsertUser(ctx, &models.User{Email: "a@b.co"}), repository.ErrDuplicate)

	_, err := s.FindUserByEmail(ctx, "missing@b.co")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAdvanceNextOccurrenceComparesAndSets(t *testing.T) {
	ctx := context.Background()
	s := New()
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.AddDate(0, 1, 0)

	e := &models.Expense{UserID: "alice", IsRecurring: true, NextOccurrence: &first}
	require.NoError(t, s.InsertExpense(ctx, e))

	due, err := s.DueRecurringExpenses(ctx, first, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.NoError(t, s.AdvanceNextOccurrence(ctx, e.ID, "alice", first, second))
	assert.ErrorIs(t, s.AdvanceNextOccurrence(ctx, e.ID, "alice", first, second), repository.ErrNotFound)

	due, err = s.DueRecurringExpenses(ctx, first, 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New()

	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
	_, err := s.FindGoals(ctx, "alice")
	assert.ErrorIs(t, err, context.Canceled)
}
