package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"expense-tracker/api/apperr"
)

const (
	bearerScheme = "Bearer"
	tokenField   = "token"

	// maxTokenBody bounds how much of a request body is buffered while
	// looking for a token field.
	maxTokenBody = 1 << 20
)

// Verify authenticates r against secret at time now.
//
// The credential is taken from the Authorization header, then the JSON body
// field "token", then the "token" query parameter. A body that is read is
// restored so later handlers can bind it.
func Verify(r *http.Request, secret []byte, now time.Time) (Principal, error) {
	raw := ExtractToken(r)
	if raw == "" {
		return Principal{}, apperr.ErrNoCredential
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return Principal{}, apperr.Wrap(apperr.KindUnauthenticated, apperr.CodeAuthMissing, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return Principal{}, apperr.Wrap(apperr.KindExpiredCredential, apperr.CodeAuthExpired, err)
	default:
		return Principal{}, apperr.Wrap(apperr.KindInvalidCredential, apperr.CodeAuthInvalid, err)
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return Principal{}, apperr.ErrNoSubject
	}
	return Principal{UserID: subject}, nil
}

// ExtractToken returns the cleaned credential from r, or "" when none is
// present.
func ExtractToken(r *http.Request) string {
	if token := cleanToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if token := cleanToken(bodyToken(r)); token != "" {
		return token
	}
	return cleanToken(r.URL.Query().Get(tokenField))
}

// cleanToken trims whitespace and the bearer scheme, which some clients
// send twice.
func cleanToken(raw string) string {
	token := strings.TrimSpace(raw)
	for range 2 {
		scheme, rest, found := strings.Cut(token, " ")
		if !strings.EqualFold(scheme, bearerScheme) {
			break
		}
		if !found {
			return ""
		}
		token = strings.TrimSpace(rest)
	}
	return token
}

func bodyToken(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxTokenBody+1))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
	if err != nil || len(body) > maxTokenBody {
		return ""
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	token, _ := payload[tokenField].(string)
	return token
}

// Verifier holds the secret and clock used to authenticate requests.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier returns a verifier for secret. A nil clock means time.Now.
func NewVerifier(secret string, clock func() time.Time) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("auth: empty signing secret")
	}
	if clock == nil {
		clock = time.Now
	}
	return &Verifier{secret: []byte(secret), now: clock}, nil
}

func (v *Verifier) Verify(r *http.Request) (Principal, error) {
	return Verify(r, v.secret, v.now())
}
