package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"expense-tracker/api/apperr"
	"expense-tracker/api/auth"
	"expense-tracker/api/handlers"
	"expense-tracker/api/memory"
	"expense-tracker/api/models"
	"expense-tracker/api/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func ptr[T any](v T) *T { return &v }

func newServer(t *testing.T) (*httptest.Server, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}
	store := memory.New()

	issuer, err := auth.NewIssuer("client-test-secret", time.Hour, clk.Now)
	require.NoError(t, err)
	verifier, err := auth.NewVerifier("client-test-secret", clk.Now)
	require.NoError(t, err)
	accounts, err := repository.NewAccounts(store, auth.NewPasswordHasher(bcrypt.MinCost), issuer, clk.Now)
	require.NoError(t, err)

	srv := httptest.NewServer(handlers.NewRouter(handlers.Dependencies{
		Accounts: accounts,
		Expenses: repository.NewExpenses(store, clk.Now),
		Goals:    repository.NewGoals(store, clk.Now),
		Verifier: verifier,
		Store:    store,
		Clock:    clk.Now,
	}))
	t.Cleanup(srv.Close)
	return srv, clk
}

func newClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(srv.URL, WithLanguage(apperr.LangEnglish), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)
	_, err = New("://nope")
	assert.Error(t, err)
}

func TestCallsBeforeLoginFail(t *testing.T) {
	srv, _ := newServer(t)
	c := newClient(t, srv)

	_, err := c.ListExpenses(context.Background(), ExpenseQuery{})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionLifecycle(t *testing.T) {
	srv, clk := newServer(t)
	c := newClient(t, srv)
	ctx := context.Background()

	user, err := c.Register(ctx, "Dana", "dana@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", user.Email)
	assert.True(t, c.Session().Active(clk.Now()))
	assert.Equal(t, user.ID, c.Session().User().ID)

	c.Logout()
	assert.False(t, c.Session().Active(clk.Now()))
	assert.Empty(t, c.Session().Token())

	_, err = c.Login(ctx, "dana@example.com", "wrong-password")
	require.Error(t, err)
	assert.True(t, IsKind(err, apperr.KindInvalidCredential))

	_, err = c.Login(ctx, "DANA@example.com", "secret123")
	require.NoError(t, err)
	assert.True(t, c.Session().Active(clk.Now()))

	clk.Advance(2 * time.Hour)
	_, err = c.Profile(ctx)
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, apperr.KindExpiredCredential, apiErr.Kind)
	assert.Equal(t, "Session expired, please log in again", apiErr.Message)
	assert.Empty(t, c.Session().Token())
}

func TestValidationErrorKeepsSession(t *testing.T) {
	srv, clk := newServer(t)
	c := newClient(t, srv)
	ctx := context.Background()

	_, err := c.Register(ctx, "Dana", "dana@example.com", "secret123")
	require.NoError(t, err)

	_, err = c.CreateExpense(ctx, ExpenseInput{Amount: ptr(-5.0), Category: ptr("מזון")})
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apperr.KindValidationFailed, apiErr.Kind)
	assert.Equal(t, "amount", apiErr.Field)
	assert.True(t, c.Session().Active(clk.Now()))
}

func TestExpensesAndGoals(t *testing.T) {
	srv, _ := newServer(t)
	ctx := context.Background()

	alice := newClient(t, srv)
	_, err := alice.Register(ctx, "Alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	bob := newClient(t, srv)
	_, err = bob.Register(ctx, "Bob", "bob@example.com", "secret123")
	require.NoError(t, err)

	created, err := alice.CreateExpense(ctx, ExpenseInput{Amount: ptr(45.5), Category: ptr("מזון")})
	require.NoError(t, err)
	assert.Equal(t, 45.5, created.Amount)

	list, err := bob.ListExpenses(ctx, ExpenseQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = bob.GetExpense(ctx, created.ID)
	assert.True(t, IsKind(err, apperr.KindNotFound))

	updated, err := alice.UpdateExpense(ctx, created.ID, ExpenseInput{Description: ptr("groceries")})
	require.NoError(t, err)
	assert.Equal(t, "groceries", updated.Description)
	assert.Equal(t, 45.5, updated.Amount)

	list, err = alice.ListExpenses(ctx, ExpenseQuery{Category: "מזון"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	msg, err := alice.DeleteExpense(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Expense deleted", msg)

	goal, err := alice.CreateGoal(ctx, GoalInput{
		Title:        ptr("Car"),
		TargetAmount: ptr(1000.0),
		Category:     ptr("קניות"),
		Deadline:     ptr(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	goal, err = alice.Progress(ctx, goal.ID, 1500, "bonus")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, goal.CurrentAmount)
	assert.Equal(t, 100.0, goal.Progress)

	goal, err = alice.Progress(ctx, goal.ID, -200, "")
	require.NoError(t, err)
	assert.Equal(t, 800.0, goal.CurrentAmount)
	require.Len(t, goal.Transactions, 2)
	assert.Equal(t, models.Withdrawal, goal.Transactions[1].Type)

	goals, err := bob.ListGoals(ctx)
	require.NoError(t, err)
	assert.Empty(t, goals)

	msg, err = alice.DeleteGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Goal deleted", msg)
}

func TestProfileAndSummary(t *testing.T) {
	srv, _ := newServer(t)
	ctx := context.Background()
	c := newClient(t, srv)
	_, err := c.Register(ctx, "Alice", "alice@example.com", "secret123")
	require.NoError(t, err)

	u, err := c.UpdateIncome(ctx, 8000)
	require.NoError(t, err)
	assert.Equal(t, 8000.0, u.Income)

	u, err = c.UpdateProfile(ctx, ProfileUpdate{Theme: ptr("dark")})
	require.NoError(t, err)
	assert.Equal(t, "dark", u.Preferences.Theme)

	_, err = c.CreateExpense(ctx, ExpenseInput{Amount: ptr(7000.0), Category: ptr("דיור")})
	require.NoError(t, err)

	summary, err := c.Summary(ctx, ExpenseQuery{})
	require.NoError(t, err)
	assert.Equal(t, 7000.0, summary.TotalExpenses)
	assert.Equal(t, 1000.0, summary.Remaining)
	assert.True(t, summary.LowBudget)
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newClient(t, srv)
	_, err := c.Login(context.Background(), "a@example.com", "secret123")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, apperr.KindUnexpected, apiErr.Kind)
	assert.Equal(t, "bad gateway", apiErr.Message)
}
