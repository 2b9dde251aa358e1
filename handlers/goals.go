package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"expense-tracker/api/apperr"
	"expense-tracker/api/logger"
	"expense-tracker/api/middleware"
	"expense-tracker/api/models"
)

func readGoalPatch(b body) (models.GoalPatch, error) {
	r := b.reader()
	patch := models.GoalPatch{
		Title:         r.str("title"),
		TargetAmount:  r.number("targetAmount"),
		CurrentAmount: r.number("currentAmount"),
		Category:      r.str("category"),
		Deadline:      r.date("deadline"),
		Description:   r.str("description"),
	}
	return patch, r.Err()
}

// ListGoals returns the caller's goals with their computed fields.
func (h *Handler) ListGoals(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	goals, err := h.goals.List(c.Request.Context(), p)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.GoalViews(goals, h.goals.Now()))
}

func (h *Handler) CreateGoal(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	b, err := bindBody(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	patch, err := readGoalPatch(b)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	var g models.Goal
	patch.Apply(&g)

	created, err := h.goals.Create(c.Request.Context(), p, g)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	logger.Get().Info("goal created",
		zap.String("user_id", p.UserID),
		zap.String("goal_id", created.ID))
	c.JSON(http.StatusCreated, created.View(h.goals.Now()))
}

func (h *Handler) GetGoal(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	g, err := h.goals.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g.View(h.goals.Now()))
}

func (h *Handler) UpdateGoal(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	b, err := bindBody(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	patch, err := readGoalPatch(b)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	updated, err := h.goals.Update(c.Request.Context(), p, c.Param("id"), patch)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	logger.Get().Info("goal updated",
		zap.String("user_id", p.UserID),
		zap.String("goal_id", updated.ID))
	c.JSON(http.StatusOK, updated.View(h.goals.Now()))
}

func (h *Handler) DeleteGoal(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.goals.Delete(c.Request.Context(), p, id); err != nil {
		middleware.RespondError(c, err)
		return
	}

	logger.Get().Info("goal deleted",
		zap.String("user_id", p.UserID),
		zap.String("goal_id", id))
	deleted(c, apperr.CodeGoalDeleted)
}

// GoalProgress applies {"amount": delta, "note": "..."} to the goal.
func (h *Handler) GoalProgress(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	b, err := bindBody(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	r := b.reader()
	amount := r.number("amount")
	note := deref(r.str("note"))
	if err := r.Err(); err != nil {
		middleware.RespondError(c, err)
		return
	}
	if amount == nil {
		middleware.RespondError(c, apperr.Validation("amount", apperr.CodeDeltaRequired))
		return
	}

	g, err := h.goals.Progress(c.Request.Context(), p, c.Param("id"), *amount, note)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	logger.Get().Info("goal progress recorded",
		zap.String("user_id", p.UserID),
		zap.String("goal_id", g.ID),
		zap.Float64("current_amount", g.CurrentAmount))
	c.JSON(http.StatusOK, g.View(h.goals.Now()))
}
