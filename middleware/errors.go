package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"expense-tracker/api/apperr"
	"expense-tracker/api/logger"
	"expense-tracker/api/observability"
)

// RespondError writes err as the stable error body in the client's
// language. Server-side failures are logged with their cause; the cause is
// never sent to the client.
func RespondError(c *gin.Context, err error) {
	e := apperr.From(err)
	status, body := apperr.ToResponse(e, apperr.Language(c.GetHeader("Accept-Language")))

	observability.ErrorsTotal.WithLabelValues(string(e.Kind)).Inc()

	fields := []zap.Field{
		zap.String("kind", string(e.Kind)),
		zap.String("code", e.Code),
		zap.String("request_id", RequestID(c)),
		zap.String("path", c.Request.URL.Path),
	}
	if p, ok := Principal(c); ok {
		fields = append(fields, zap.String("user_id", p.UserID))
	}
	switch e.Kind {
	case apperr.KindUnexpected, apperr.KindUpstreamUnavailable:
		logger.Get().Error("request failed", append(fields, zap.Error(e.Err))...)
	default:
		logger.Get().Debug("request rejected", fields...)
	}

	c.JSON(status, body)
}
