package repository

import (
	"context"
	"errors"

	"expense-tracker/api/apperr"
	"expense-tracker/api/auth"
)

// storeError classifies a store error. notFound is returned for
// ErrNotFound so each resource reports its own message.
func storeError(err error, notFound *apperr.Error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.KindUpstreamUnavailable, apperr.CodeUpstream, err)
	default:
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperr.Wrap(apperr.KindUnexpected, apperr.CodeUnexpected, err)
	}
}

func ownerID(p auth.Principal) (string, error) {
	if p.UserID == "" {
		return "", apperr.ErrNoCredential
	}
	return p.UserID, nil
}
