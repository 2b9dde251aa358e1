// Package client is a Go client for the expense tracker API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"expense-tracker/api/analytics"
	"expense-tracker/api/apperr"
	"expense-tracker/api/models"
)

const defaultTimeout = 30 * time.Second

// ErrNoSession is returned by authenticated calls made before Login or
// Register, or after the session was cleared.
var ErrNoSession = errors.New("client: not logged in")

// APIError is a failed response decoded from the server's error body.
type APIError struct {
	Status  int
	Kind    apperr.Kind
	Message string
	Field   string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api error %d (%s): %s", e.Status, e.Kind, e.Message)
	if e.Field != "" {
		msg += " [field " + e.Field + "]"
	}
	return msg
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind apperr.Kind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	language   string
	session    *Session
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLanguage sets the Accept-Language sent with every request.
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		language:   apperr.DefaultLanguage,
		session:    &Session{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Session() *Session {
	return c.session
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	in := map[string]string{"name": name, "email": email, "password": password}
	return c.openSession(ctx, "/api/users/register", in)
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	in := map[string]string{"email": email, "password": password}
	return c.openSession(ctx, "/api/users/login", in)
}

// Logout forgets the credential. Tokens are stateless, so nothing is sent
// to the server.
func (c *Client) Logout() {
	c.session.Clear()
}

func (c *Client) openSession(ctx context.Context, path string, in any) (*models.User, error) {
	var out sessionResponse
	if err := c.do(ctx, http.MethodPost, path, nil, in, &out, false); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("response from %s carried no token", path)
	}
	c.session.set(out.Token, out.ExpiresAt, out.User)
	return out.User, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any, authenticated bool) error {
	var token string
	if authenticated {
		token = c.session.Token()
		if token == "" {
			return ErrNoSession
		}
	}

	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeError(resp)
		if authenticated && credentialRejected(apiErr.Kind) {
			c.session.Clear()
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var body apperr.Response
	if err == nil && json.Unmarshal(raw, &body) == nil && body.Error != "" {
		apiErr.Kind = body.Error
		apiErr.Message = body.Message
		apiErr.Field = body.Field
		return apiErr
	}

	apiErr.Kind = apperr.KindUnexpected
	apiErr.Message = strings.TrimSpace(string(raw))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func credentialRejected(kind apperr.Kind) bool {
	switch kind {
	case apperr.KindExpiredCredential, apperr.KindInvalidCredential, apperr.KindMalformedCredential:
		return true
	}
	return false
}

// Summary fetches the budget summary.
func (c *Client) Summary(ctx context.Context, q ExpenseQuery) (*analytics.Summary, error) {
	var out analytics.Summary
	if err := c.do(ctx, http.MethodGet, "/api/expenses/summary", q.values(), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}
