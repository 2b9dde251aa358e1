package repository

import (
	"context"
	"math"
	"strings"
	"time"

	"expense-tracker/api/apperr"
	"expense-tracker/api/auth"
	"expense-tracker/api/models"
)

// Goals is the owner-scoped goal repository.
type Goals struct {
	store GoalStore
	now   func() time.Time
}

func NewGoals(store GoalStore, clock func() time.Time) *Goals {
	if clock == nil {
		clock = time.Now
	}
	return &Goals{store: store, now: clock}
}

// Now is the repository clock, used by callers computing goal views.
func (r *Goals) Now() time.Time {
	return r.now()
}

func (r *Goals) List(ctx context.Context, p auth.Principal) ([]models.Goal, error) {
	owner, err := ownerID(p)
	if err != nil {
		return nil, err
	}
	goals, err := r.store.FindGoals(ctx, owner)
	if err != nil {
		return nil, storeError(err, nil)
	}
	if goals == nil {
		goals = []models.Goal{}
	}
	return goals, nil
}

func (r *Goals) Get(ctx context.Context, p auth.Principal, id string) (*models.Goal, error) {
	owner, err := ownerID(p)
	if err != nil {
		return nil, err
	}
	g, err := r.store.FindGoal(ctx, id, owner)
	if err != nil {
		return nil, storeError(err, apperr.ErrGoalNotFound)
	}
	return g, nil
}

// Create stores g for the principal. The ledger always starts empty.
func (r *Goals) Create(ctx context.Context, p auth.Principal, g models.Goal) (*models.Goal, error) {
	owner, err := ownerID(p)
	if err != nil {
		return nil, err
	}

	now := r.now()
	g.ID = ""
	g.UserID = owner
	g.Transactions = nil
	g.CreatedAt = now
	g.UpdatedAt = now
	models.NormalizeGoal(&g)
	if err := models.ValidateGoal(&g); err != nil {
		return nil, err
	}

	if err := r.store.InsertGoal(ctx, &g); err != nil {
		return nil, storeError(err, nil)
	}
	return &g, nil
}

func (r *Goals) Update(ctx context.Context, p auth.Principal, id string, patch models.GoalPatch) (*models.Goal, error) {
	g, err := r.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(g)
	models.NormalizeGoal(g)
	if err := models.ValidateGoal(g); err != nil {
		return nil, err
	}
	g.UpdatedAt = r.now()

	if err := r.store.ReplaceGoal(ctx, g); err != nil {
		return nil, storeError(err, apperr.ErrGoalNotFound)
	}
	return g, nil
}

func (r *Goals) Delete(ctx context.Context, p auth.Principal, id string) error {
	owner, err := ownerID(p)
	if err != nil {
		return err
	}
	return storeError(r.store.DeleteGoal(ctx, id, owner), apperr.ErrGoalNotFound)
}

// Progress adds delta to the goal's current amount, clamped to
// [0, target], and records the effective change in the goal's ledger.
func (r *Goals) Progress(ctx context.Context, p auth.Principal, id string, delta float64, note string) (*models.Goal, error) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return nil, apperr.Validation("amount", apperr.CodeInvalidNumber)
	}
	if !models.AmountInRange(delta) {
		return nil, apperr.Validation("amount", apperr.CodeAmountTooLarge)
	}
	owner, err := ownerID(p)
	if err != nil {
		return nil, err
	}

	g, err := r.store.AddGoalProgress(ctx, id, owner, models.RoundAmount(delta), r.now(), strings.TrimSpace(note))
	if err != nil {
		return nil, storeError(err, apperr.ErrGoalNotFound)
	}
	return g, nil
}
