package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"expense-tracker/api/apperr"
	"expense-tracker/api/logger"
	"expense-tracker/api/middleware"
	"expense-tracker/api/models"
	"expense-tracker/api/repository"
)

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func newSessionResponse(s *repository.Session) sessionResponse {
	return sessionResponse{Token: s.Token, ExpiresAt: s.ExpiresAt, User: s.User}
}

func (h *Handler) Register(c *gin.Context) {
	b, err := bindBody(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	r := b.reader()
	reg := models.Registration{
		Name:     deref(r.str("name")),
		Email:    deref(r.str("email")),
		Password: deref(r.str("password")),
	}
	if err := r.Err(); err != nil {
		middleware.RespondError(c, err)
		return
	}

	session, err := h.accounts.Register(c.Request.Context(), reg)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	logger.Get().Info("user registered", zap.String("user_id", session.User.ID))
	c.JSON(http.StatusCreated, newSessionResponse(session))
}

func (h *Handler) Login(c *gin.Context) {
	b, err := bindBody(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	r := b.reader()
	email := deref(r.str("email"))
	password := deref(r.str("password"))
	if err := r.Err(); err != nil {
		middleware.RespondError(c, err)
		return
	}

	session, err := h.accounts.Login(c.Request.Context(), email, password)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	logger.Get().Info("user logged in", zap.String("user_id", session.User.ID))
	c.JSON(http.StatusOK, newSessionResponse(session))
}

func (h *Handler) Profile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	user, err := h.accounts.Profile(c.Request.Context(), p)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateIncome(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	b, err := bindBody(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	income, err := b.number("income")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if income == nil {
		middleware.RespondError(c, apperr.Validation("income", apperr.CodeInvalidNumber))
		return
	}

	user, err := h.accounts.UpdateIncome(c.Request.Context(), p, *income)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	logger.Get().Info("income updated", zap.String("user_id", p.UserID))
	c.JSON(http.StatusOK, user)
}

// UpdateProfile accepts name and preferences either at the top level or
// nested under "preferences".
func (h *Handler) UpdateProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	b, err := bindBody(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	prefs := b
	if raw, ok := b.raw("preferences"); ok {
		var nested body
		if err := json.Unmarshal(raw, &nested); err != nil {
			middleware.RespondError(c, apperr.Validationf("preferences", apperr.CodeInvalidBody, "decoding preferences: %v", err))
			return
		}
		prefs = nested
	}

	r := b.reader()
	pr := prefs.reader()
	patch := models.ProfilePatch{
		Name:     r.str("name"),
		Income:   r.number("income"),
		Language: pr.str("language"),
		Currency: pr.str("currency"),
		Theme:    pr.str("theme"),
	}
	if err := errors.Join(r.Err(), pr.Err()); err != nil {
		middleware.RespondError(c, err)
		return
	}

	user, err := h.accounts.UpdateProfile(c.Request.Context(), p, patch)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	logger.Get().Info("profile updated", zap.String("user_id", p.UserID))
	c.JSON(http.StatusOK, user)
}
