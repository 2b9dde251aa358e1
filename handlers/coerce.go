package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"expense-tracker/api/apperr"
	"expense-tracker/api/logger"
	"expense-tracker/api/models"
)

// dateLayouts are tried in order for date fields and query parameters.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// body is a decoded JSON object whose fields are coerced one at a time, so
// every failure names the field that caused it and absent fields can be
// told apart from zero values.
type body map[string]json.RawMessage

func bindBody(c *gin.Context) (body, error) {
	var b body
	if err := c.ShouldBindJSON(&b); err != nil {
		logger.Get().Debug("error binding JSON", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindValidationFailed, apperr.CodeInvalidBody, err)
	}
	if b == nil {
		b = body{}
	}
	return b, nil
}

func (b body) raw(key string) (json.RawMessage, bool) {
	v, ok := b[key]
	if !ok {
		return nil, false
	}
	v = bytes.TrimSpace(v)
	if len(v) == 0 || string(v) == "null" {
		return nil, false
	}
	return v, true
}

// number accepts a JSON number or a numeric string. Blank strings count as
// absent.
func (b body) number(key string) (*float64, error) {
	v, ok := b.raw(key)
	if !ok {
		return nil, nil
	}

	var f float64
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, apperr.Validationf(key, apperr.CodeInvalidNumber, "decoding %s: %v", key, err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, apperr.Validationf(key, apperr.CodeInvalidNumber, "parsing %s: %v", key, err)
		}
		f = parsed
	} else if err := json.Unmarshal(v, &f); err != nil {
		return nil, apperr.Validationf(key, apperr.CodeInvalidNumber, "decoding %s: %v", key, err)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, apperr.Validation(key, apperr.CodeInvalidNumber)
	}
	return &f, nil
}

// str accepts a JSON string. Numbers and booleans are taken verbatim.
func (b body) str(key string) (*string, error) {
	v, ok := b.raw(key)
	if !ok {
		return nil, nil
	}

	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, apperr.Validationf(key, apperr.CodeInvalidBody, "decoding %s: %v", key, err)
		}
		return &s, nil
	case '{', '[':
		return nil, apperr.Validation(key, apperr.CodeInvalidBody)
	default:
		s := string(v)
		return &s, nil
	}
}

// boolean accepts true/false or their string forms.
func (b body) boolean(key string) (*bool, error) {
	v, ok := b.raw(key)
	if !ok {
		return nil, nil
	}

	s := strings.Trim(string(v), `"`)
	parsed, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return nil, apperr.Validationf(key, apperr.CodeInvalidBody, "parsing %s: %v", key, err)
	}
	return &parsed, nil
}

// date accepts RFC 3339, YYYY-MM-DD or epoch milliseconds.
func (b body) date(key string) (*time.Time, error) {
	v, ok := b.raw(key)
	if !ok {
		return nil, nil
	}

	if v[0] != '"' {
		var ms float64
		if err := json.Unmarshal(v, &ms); err != nil || math.IsNaN(ms) || math.IsInf(ms, 0) {
			return nil, apperr.Validation(key, apperr.CodeInvalidDate)
		}
		if ms < float64(models.MinDate.UnixMilli()) || ms > float64(models.MaxDate.UnixMilli()) {
			return nil, apperr.Validationf(key, apperr.CodeInvalidDate, "epoch %v out of range", ms)
		}
		t := time.UnixMilli(int64(ms)).UTC()
		return &t, nil
	}

	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, apperr.Validationf(key, apperr.CodeInvalidDate, "decoding %s: %v", key, err)
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(key, s)
	if err != nil {
		return nil, err
	}
	if !models.DateInRange(t) {
		return nil, apperr.Validationf(key, apperr.CodeInvalidDate, "date %q out of range", s)
	}
	return &t, nil
}

func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.Validationf(field, apperr.CodeInvalidDate, "unrecognised date %q", s)
}

// queryDate parses an optional date query parameter.
func queryDate(c *gin.Context, key string) (*time.Time, error) {
	s := strings.TrimSpace(c.Query(key))
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(key, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// fieldReader coerces several fields and keeps the first failure.
type fieldReader struct {
	b   body
	err error
}

func (b body) reader() *fieldReader {
	return &fieldReader{b: b}
}

func (r *fieldReader) number(key string) *float64 {
	if r.err != nil {
		return nil
	}
	v, err := r.b.number(key)
	r.err = err
	return v
}

func (r *fieldReader) str(key string) *string {
	if r.err != nil {
		return nil
	}
	v, err := r.b.str(key)
	r.err = err
	return v
}

func (r *fieldReader) boolean(key string) *bool {
	if r.err != nil {
		return nil
	}
	v, err := r.b.boolean(key)
	r.err = err
	return v
}

func (r *fieldReader) date(key string) *time.Time {
	if r.err != nil {
		return nil
	}
	v, err := r.b.date(key)
	r.err = err
	return v
}

func (r *fieldReader) Err() error {
	return r.err
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
