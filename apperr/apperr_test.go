package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryKindHasAStatus(t *testing.T) {
	want := map[Kind]int{
		KindUnauthenticated:     http.StatusUnauthorized,
		KindInvalidCredential:   http.StatusUnauthorized,
		KindExpiredCredential:   http.StatusUnauthorized,
		KindMalformedCredential: http.StatusUnauthorized,
		KindValidationFailed:    http.StatusBadRequest,
		KindNotFound:            http.StatusNotFound,
		KindConflict:            http.StatusConflict,
		KindUpstreamUnavailable: http.StatusServiceUnavailable,
		KindUnexpected:          http.StatusInternalServerError,
	}
	require.Len(t, Kinds, len(want))
	for _, k := range Kinds {
		assert.Equal(t, want[k], HTTPStatus(k), "kind %s", k)
	}
}

func TestFromUntaggedIsUnexpected(t *testing.T) {
	e := From(errors.New("connection reset by peer"))
	assert.Equal(t, KindUnexpected, e.Kind)
	assert.Equal(t, CodeUnexpected, e.Code)
	assert.Nil(t, From(nil))
}

func TestFromFindsWrappedError(t *testing.T) {
	inner := Validation("amount", CodeAmountPositive)
	wrapped := fmt.Errorf("creating expense: %w", inner)

	assert.Equal(t, KindValidationFailed, KindOf(wrapped))
	assert.Equal(t, "amount", From(wrapped).Field)
}

func TestSentinelMatching(t *testing.T) {
	err := Wrap(KindExpiredCredential, CodeAuthExpired, errors.New("token has invalid claims: token is expired"))
	assert.ErrorIs(t, err, ErrExpiredCredential)
	assert.NotErrorIs(t, err, ErrInvalidCredential)

	notFound := fmt.Errorf("lookup: %w", New(KindNotFound, CodeGoalNotFound))
	assert.ErrorIs(t, notFound, ErrGoalNotFound)
	assert.NotErrorIs(t, notFound, ErrExpenseNotFound)
}

func TestToResponseHidesCause(t *testing.T) {
	err := Wrap(KindUnexpected, CodeUnexpected, errors.New("mongo: server selection error: secret-host:27017"))

	status, body := ToResponse(err, LangEnglish)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, KindUnexpected, body.Error)
	assert.Equal(t, "Internal server error", body.Message)
	assert.NotContains(t, body.Message, "secret-host")
}

func TestToResponseCarriesField(t *testing.T) {
	status, body := ToResponse(Validation("category", CodeCategoryInvalid), LangHebrew)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "category", body.Field)
	assert.Equal(t, "קטגוריה אינה חוקית", body.Message)
}

func TestMessageFallbacks(t *testing.T) {
	assert.Equal(t, Message(CodeGoalNotFound, LangHebrew), Message(CodeGoalNotFound, "fr"))
	assert.Equal(t, Message(CodeUnexpected, LangEnglish), Message("no.such.code", LangEnglish))
}

func TestAllCodesTranslated(t *testing.T) {
	for code, entry := range catalog {
		assert.NotEmpty(t, entry[LangHebrew], "missing he for %s", code)
		assert.NotEmpty(t, entry[LangEnglish], "missing en for %s", code)
	}
}

func TestLanguage(t *testing.T) {
	cases := map[string]string{
		"":                       LangHebrew,
		"en-US,en;q=0.9":         LangEnglish,
		"he-IL":                  LangHebrew,
		"fr-FR, en;q=0.5":        LangEnglish,
		"de":                     LangHebrew,
		"iw":                     LangHebrew,
		" EN ;q=0.8 , he;q=0.9 ": LangEnglish,
	}
	for header, want := range cases {
		assert.Equal(t, want, Language(header), "header %q", header)
	}
}
