package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"expense-tracker/api/models"
)

// ExpenseInput is the body of an expense create or update. Nil fields are
// omitted, so an update only changes what is set.
type ExpenseInput struct {
	Amount            *float64         `json:"amount,omitempty"`
	Category          *string          `json:"category,omitempty"`
	Description       *string          `json:"description,omitempty"`
	Date              *time.Time       `json:"date,omitempty"`
	IsRecurring       *bool            `json:"isRecurring,omitempty"`
	RecurringInterval *models.Interval `json:"recurringInterval,omitempty"`
}

// ExpenseQuery narrows an expense listing or summary.
type ExpenseQuery struct {
	Category string
	From     time.Time
	To       time.Time
}

func (q ExpenseQuery) values() url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if !q.From.IsZero() {
		v.Set("from", q.From.Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		v.Set("to", q.To.Format(time.RFC3339))
	}
	return v
}

// GoalInput is the body of a goal create or update.
type GoalInput struct {
	Title         *string    `json:"title,omitempty"`
	TargetAmount  *float64   `json:"targetAmount,omitempty"`
	CurrentAmount *float64   `json:"currentAmount,omitempty"`
	Category      *string    `json:"category,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Description   *string    `json:"description,omitempty"`
}

// ProfileUpdate is the body of a profile update.
type ProfileUpdate struct {
	Name     *string  `json:"name,omitempty"`
	Income   *float64 `json:"income,omitempty"`
	Language *string  `json:"language,omitempty"`
	Currency *string  `json:"currency,omitempty"`
	Theme    *string  `json:"theme,omitempty"`
}

type deleteResponse struct {
	Message string `json:"message"`
}

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/api/users/profile", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateIncome(ctx context.Context, income float64) (*models.User, error) {
	var out models.User
	in := map[string]float64{"income": income}
	if err := c.do(ctx, http.MethodPut, "/api/users/income", nil, in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPut, "/api/users/profile", nil, in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListExpenses(ctx context.Context, q ExpenseQuery) ([]models.Expense, error) {
	var out []models.Expense
	if err := c.do(ctx, http.MethodGet, "/api/expenses", q.values(), nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateExpense(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	var out models.Expense
	if err := c.do(ctx, http.MethodPost, "/api/expenses", nil, in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	var out models.Expense
	if err := c.do(ctx, http.MethodGet, "/api/expenses/"+url.PathEscape(id), nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateExpense(ctx context.Context, id string, in ExpenseInput) (*models.Expense, error) {
	var out models.Expense
	if err := c.do(ctx, http.MethodPut, "/api/expenses/"+url.PathEscape(id), nil, in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteExpense deletes the expense and returns the server's confirmation.
func (c *Client) DeleteExpense(ctx context.Context, id string) (string, error) {
	var out deleteResponse
	if err := c.do(ctx, http.MethodDelete, "/api/expenses/"+url.PathEscape(id), nil, nil, &out, true); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) ListGoals(ctx context.Context) ([]models.GoalView, error) {
	var out []models.GoalView
	if err := c.do(ctx, http.MethodGet, "/api/goals", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateGoal(ctx context.Context, in GoalInput) (*models.GoalView, error) {
	var out models.GoalView
	if err := c.do(ctx, http.MethodPost, "/api/goals", nil, in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetGoal(ctx context.Context, id string) (*models.GoalView, error) {
	var out models.GoalView
	if err := c.do(ctx, http.MethodGet, "/api/goals/"+url.PathEscape(id), nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateGoal(ctx context.Context, id string, in GoalInput) (*models.GoalView, error) {
	var out models.GoalView
	if err := c.do(ctx, http.MethodPut, "/api/goals/"+url.PathEscape(id), nil, in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteGoal(ctx context.Context, id string) (string, error) {
	var out deleteResponse
	if err := c.do(ctx, http.MethodDelete, "/api/goals/"+url.PathEscape(id), nil, nil, &out, true); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Progress adds amount (negative to withdraw) to the goal's current amount.
func (c *Client) Progress(ctx context.Context, id string, amount float64, note string) (*models.GoalView, error) {
	var out models.GoalView
	in := map[string]any{"amount": amount}
	if note != "" {
		in["note"] = note
	}
	path := "/api/goals/" + url.PathEscape(id) + "/progress"
	if err := c.do(ctx, http.MethodPatch, path, nil, in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}
