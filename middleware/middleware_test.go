package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"expense-tracker/api/apperr"
	"expense-tracker/api/auth"
	"expense-tracker/api/logger"
	"expense-tracker/api/observability"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const secret = "middleware-test-secret"

var issued = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func token(t *testing.T) string {
	t.Helper()
	issuer, err := auth.NewIssuer(secret, time.Hour, func() time.Time { return issued })
	require.NoError(t, err)
	tok, _, err := issuer.Issue("user-42")
	require.NoError(t, err)
	return tok
}

func protectedRouter(t *testing.T, now time.Time) *gin.Engine {
	t.Helper()
	verifier, err := auth.NewVerifier(secret, func() time.Time { return now })
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestIDMiddleware, AuthMiddleware(verifier))
	r.GET("/me", func(c *gin.Context) {
		p, ok := Principal(c)
		require.True(t, ok)
		fromCtx, ok := auth.PrincipalFromContext(c.Request.Context())
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user": p.UserID, "ctx": fromCtx.UserID})
	})
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperr.Response {
	t.Helper()
	var body apperr.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthMiddlewareAttachesPrincipal(t *testing.T) {
	r := protectedRouter(t, issued.Add(time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"user-42","ctx":"user-42"}`, w.Body.String())
}

func TestAuthMiddlewareRejects(t *testing.T) {
	cases := []struct {
		name   string
		header string
		now    time.Time
		kind   apperr.Kind
	}{
		{"missing", "", issued, apperr.KindUnauthenticated},
		{"garbled", "Bearer garbage", issued, apperr.KindUnauthenticated},
		{"expired", "Bearer " + token(t), issued.Add(2 * time.Hour), apperr.KindExpiredCredential},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := protectedRouter(t, tc.now)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			req.Header.Set("Accept-Language", "en")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tc.kind, body.Error)
			assert.NotContains(t, w.Body.String(), "token is expired")
			assert.NotContains(t, w.Body.String(), "segments")
		})
	}
}

func TestCorsPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CorsMiddleware("http://localhost:3000"))
	r.PATCH("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/x", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestInternalKey(t *testing.T) {
	r := gin.New()
	r.GET("/metrics", InternalKeyMiddleware("k3y"), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/open", InternalKeyMiddleware(""), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-API-Key", "wrong")
	req.Header.Set("Accept-Language", "en")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, apperr.KindUnauthenticated, body.Error)
	assert.Equal(t, "Authentication required", body.Message)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-API-Key", "k3y")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware)
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRecoveryHidesPanic(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })

	r := gin.New()
	r.Use(RequestIDMiddleware, AccessLogMiddleware, MetricsMiddleware, RecoveryMiddleware)
	r.GET("/boom", func(c *gin.Context) { panic("database password is hunter2") })
	counted := observability.RequestsTotal.WithLabelValues(http.MethodGet, "/boom", "500")
	before := testutil.ToFloat64(counted)

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("Accept-Language", "en")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, apperr.KindUnexpected, body.Error)
	assert.Equal(t, "Internal server error", body.Message)
	assert.NotContains(t, w.Body.String(), "hunter2")

	assert.Equal(t, before+1, testutil.ToFloat64(counted))
	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	assert.Equal(t, int64(http.StatusInternalServerError), completed[0].ContextMap()["status"])
}

func TestTimeoutSetsDeadline(t *testing.T) {
	r := gin.New()
	r.Use(TimeoutMiddleware(time.Second))
	r.GET("/x", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
