// Package memory is an in-process document store for tests and local
// development. Data is lost when the process exits.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"expense-tracker/api/models"
	"expense-tracker/api/repository"
)

// Store keeps users, expenses and goals in maps guarded by one lock.
// Values are copied on the way in and out so callers never share state
// with the store.
type Store struct {
	mu       sync.RWMutex
	users    map[string]models.User
	expenses map[string]models.Expense
	goals    map[string]models.Goal
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[string]models.User),
		expenses: make(map[string]models.Expense),
		goals:    make(map[string]models.Goal),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close(context.Context) error {
	return nil
}

func (s *Store) InsertUser(ctx context.Context, u *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = uuid.NewString()
	s.users[u.ID] = *u
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) ReplaceUser(ctx context.Context, u *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) InsertExpense(ctx context.Context, e *models.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = uuid.NewString()
	s.expenses[e.ID] = copyExpense(*e)
	return nil
}

func (s *Store) FindExpenses(ctx context.Context, owner string, filter models.ExpenseFilter) ([]models.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Expense{}
	for _, e := range s.expenses {
		if e.UserID == owner && filter.Matches(e) {
			out = append(out, copyExpense(e))
		}
	}
	slices.SortStableFunc(out, func(a, b models.Expense) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *Store) FindExpense(ctx context.Context, id, owner string) (*models.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[id]
	if !ok || e.UserID != owner {
		return nil, repository.ErrNotFound
	}
	e = copyExpense(e)
	return &e, nil
}

func (s *Store) ReplaceExpense(ctx context.Context, e *models.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.expenses[e.ID]
	if !ok || current.UserID != e.UserID {
		return repository.ErrNotFound
	}
	s.expenses[e.ID] = copyExpense(*e)
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, id, owner string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[id]
	if !ok || e.UserID != owner {
		return repository.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) DueRecurringExpenses(ctx context.Context, now time.Time, limit int) ([]models.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []models.Expense
	for _, e := range s.expenses {
		if e.IsRecurring && e.NextOccurrence != nil && !e.NextOccurrence.After(now) {
			due = append(due, copyExpense(e))
		}
	}
	slices.SortFunc(due, func(a, b models.Expense) int {
		return a.NextOccurrence.Compare(*b.NextOccurrence)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *Store) AdvanceNextOccurrence(ctx context.Context, id, owner string, expected, next time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[id]
	if !ok || e.UserID != owner || !e.IsRecurring || e.NextOccurrence == nil || !e.NextOccurrence.Equal(expected) {
		return repository.ErrNotFound
	}
	e.NextOccurrence = &next
	s.expenses[id] = e
	return nil
}

func (s *Store) InsertGoal(ctx context.Context, g *models.Goal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g.ID = uuid.NewString()
	s.goals[g.ID] = copyGoal(*g)
	return nil
}

func (s *Store) FindGoals(ctx context.Context, owner string) ([]models.Goal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Goal{}
	for _, g := range s.goals {
		if g.UserID == owner {
			out = append(out, copyGoal(g))
		}
	}
	slices.SortStableFunc(out, func(a, b models.Goal) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *Store) FindGoal(ctx context.Context, id, owner string) (*models.Goal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[id]
	if !ok || g.UserID != owner {
		return nil, repository.ErrNotFound
	}
	g = copyGoal(g)
	return &g, nil
}

func (s *Store) ReplaceGoal(ctx context.Context, g *models.Goal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.goals[g.ID]
	if !ok || current.UserID != g.UserID {
		return repository.ErrNotFound
	}
	s.goals[g.ID] = copyGoal(*g)
	return nil
}

func (s *Store) AddGoalProgress(ctx context.Context, id, owner string, delta float64, at time.Time, note string) (*models.Goal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[id]
	if !ok || g.UserID != owner {
		return nil, repository.ErrNotFound
	}
	g = copyGoal(g)
	g.ApplyProgress(delta, at, note)
	g.UpdatedAt = at
	s.goals[id] = g

	out := copyGoal(g)
	return &out, nil
}

func (s *Store) DeleteGoal(ctx context.Context, id, owner string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[id]
	if !ok || g.UserID != owner {
		return repository.ErrNotFound
	}
	delete(s.goals, id)
	return nil
}

func copyExpense(e models.Expense) models.Expense {
	if e.NextOccurrence != nil {
		next := *e.NextOccurrence
		e.NextOccurrence = &next
	}
	return e
}

func copyGoal(g models.Goal) models.Goal {
	g.Transactions = slices.Clone(g.Transactions)
	if g.Transactions == nil {
		g.Transactions = []models.Contribution{}
	}
	return g
}
