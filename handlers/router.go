package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"expense-tracker/api/apperr"
	"expense-tracker/api/auth"
	"expense-tracker/api/logger"
	"expense-tracker/api/middleware"
	"expense-tracker/api/repository"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators the router is built from.
type Dependencies struct {
	Accounts *repository.Accounts
	Expenses *repository.Expenses
	Goals    *repository.Goals
	Verifier middleware.RequestVerifier
	Store    Pinger

	// WorkerStats is served on /internal/worker when set.
	WorkerStats http.Handler

	CORSOrigin     string
	InternalAPIKey string
	RequestTimeout time.Duration
	Clock          func() time.Time
}

// Handler serves the REST API.
type Handler struct {
	accounts *repository.Accounts
	expenses *repository.Expenses
	goals    *repository.Goals
	store    Pinger
	now      func() time.Time
}

func New(deps Dependencies) *Handler {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Handler{
		accounts: deps.Accounts,
		expenses: deps.Expenses,
		goals:    deps.Goals,
		store:    deps.Store,
		now:      clock,
	}
}

// NewRouter builds the gin engine with every route and middleware mounted.
func NewRouter(deps Dependencies) *gin.Engine {
	h := New(deps)

	r := gin.New()
	r.Use(
		middleware.RequestIDMiddleware,
		middleware.AccessLogMiddleware,
		middleware.MetricsMiddleware,
		middleware.RecoveryMiddleware,
		middleware.CorsMiddleware(deps.CORSOrigin),
		middleware.TimeoutMiddleware(deps.RequestTimeout),
	)
	r.NoRoute(func(c *gin.Context) {
		middleware.RespondError(c, apperr.New(apperr.KindNotFound, apperr.CodeRouteNotFound))
	})

	r.GET("/healthz", h.Health)
	r.GET("/readyz", h.Ready)

	internal := r.Group("/", middleware.InternalKeyMiddleware(deps.InternalAPIKey))
	internal.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if deps.WorkerStats != nil {
		internal.GET("/internal/worker", gin.WrapH(deps.WorkerStats))
	}

	api := r.Group("/api")
	requireAuth := middleware.AuthMiddleware(deps.Verifier)

	users := api.Group("/users")
	users.POST("/register", h.Register)
	users.POST("/login", h.Login)
	users.GET("/profile", requireAuth, h.Profile)
	users.PUT("/income", requireAuth, h.UpdateIncome)
	users.PUT("/profile", requireAuth, h.UpdateProfile)

	expenses := api.Group("/expenses", requireAuth)
	expenses.GET("", h.ListExpenses)
	expenses.POST("", h.CreateExpense)
	expenses.GET("/summary", h.Summary)
	expenses.GET("/:id", h.GetExpense)
	expenses.PUT("/:id", h.UpdateExpense)
	expenses.DELETE("/:id", h.DeleteExpense)

	goals := api.Group("/goals", requireAuth)
	goals.GET("", h.ListGoals)
	goals.POST("", h.CreateGoal)
	goals.GET("/:id", h.GetGoal)
	goals.PUT("/:id", h.UpdateGoal)
	goals.DELETE("/:id", h.DeleteGoal)
	goals.PATCH("/:id/progress", h.GoalProgress)

	return r
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Ready(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	if err := h.store.Ping(c.Request.Context()); err != nil {
		logger.Get().Warn("readiness check failed", zap.Error(err))
		middleware.RespondError(c, apperr.Wrap(apperr.KindUpstreamUnavailable, apperr.CodeUpstream, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// principal returns the authenticated caller, writing the error response
// when there is none.
func principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := middleware.Principal(c)
	if !ok {
		logger.Get().Error("user not authenticated")
		middleware.RespondError(c, apperr.ErrNoCredential)
		return auth.Principal{}, false
	}
	return p, true
}

// deleted writes the confirmation body for a successful delete.
func deleted(c *gin.Context, code string) {
	msg := apperr.Message(code, apperr.Language(c.GetHeader("Accept-Language")))
	c.JSON(http.StatusOK, gin.H{"message": msg})
}
