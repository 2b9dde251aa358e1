package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"expense-tracker/api/analytics"
	"expense-tracker/api/apperr"
	"expense-tracker/api/logger"
	"expense-tracker/api/middleware"
	"expense-tracker/api/models"
)

func readExpensePatch(b body) (models.ExpensePatch, error) {
	r := b.reader()
	patch := models.ExpensePatch{
		Amount:      r.number("amount"),
		Category:    r.str("category"),
		Description: r.str("description"),
		Date:        r.date("date"),
		IsRecurring: r.boolean("isRecurring"),
	}
	if interval := r.str("recurringInterval"); interval != nil {
		i := models.Interval(strings.TrimSpace(*interval))
		patch.RecurringInterval = &i
	}
	return patch, r.Err()
}

func (h *Handler) ListExpenses(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	filter, err := expenseFilter(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	expenses, err := h.expenses.List(c.Request.Context(), p, filter)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expenses)
}

func (h *Handler) CreateExpense(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	b, err := bindBody(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	patch, err := readExpensePatch(b)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	var e models.Expense
	patch.Apply(&e)

	created, err := h.expenses.Create(c.Request.Context(), p, e)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	logger.Get().Info("expense created",
		zap.String("user_id", p.UserID),
		zap.String("expense_id", created.ID))
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetExpense(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	e, err := h.expenses.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) UpdateExpense(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	b, err := bindBody(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	patch, err := readExpensePatch(b)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	updated, err := h.expenses.Update(c.Request.Context(), p, c.Param("id"), patch)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	logger.Get().Info("expense updated",
		zap.String("user_id", p.UserID),
		zap.String("expense_id", updated.ID))
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteExpense(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.expenses.Delete(c.Request.Context(), p, id); err != nil {
		middleware.RespondError(c, err)
		return
	}

	logger.Get().Info("expense deleted",
		zap.String("user_id", p.UserID),
		zap.String("expense_id", id))
	deleted(c, apperr.CodeExpenseDeleted)
}

// Summary reports the caller's budget position over the filtered expenses.
func (h *Handler) Summary(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	filter, err := expenseFilter(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.accounts.Profile(ctx, p)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	expenses, err := h.expenses.List(ctx, p, filter)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	goals, err := h.goals.List(ctx, p)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics.Summarize(expenses, goals, user.Income, h.now()))
}

func expenseFilter(c *gin.Context) (models.ExpenseFilter, error) {
	from, err := queryDate(c, "from")
	if err != nil {
		return models.ExpenseFilter{}, err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return models.ExpenseFilter{}, err
	}
	return models.ExpenseFilter{
		Category: strings.TrimSpace(c.Query("category")),
		From:     from,
		To:       to,
	}, nil
}
