// Package auth verifies bearer credentials, issues them at login, and
// hashes passwords.
package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"expense-tracker/api/apperr"
)

// Principal is the authenticated user a request acts for.
type Principal struct {
	UserID string
}

type principalKey struct{}

// WithPrincipal stores p in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.UserID != ""
}

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// PasswordHasher hashes and checks passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return PasswordHasher{cost: cost}
}

func (h PasswordHasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", apperr.Validation("password", apperr.CodePasswordTooLong)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnexpected, apperr.CodeUnexpected, err)
	}
	return string(hash), nil
}

// Compare returns apperr.ErrBadLogin when password does not match hash.
func (h PasswordHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrHashTooShort):
		return apperr.ErrBadLogin
	default:
		return apperr.Wrap(apperr.KindUnexpected, apperr.CodeUnexpected, err)
	}
}
