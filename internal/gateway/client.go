// Package gateway provides the HTTP client for the remote budget service.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL is where the budget service listens in local development.
	DefaultBaseURL = "http://localhost:1430"

	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	userAgent      = "github.com/theirongolddev/budgetplanner/1.0"
)

// ErrUnauthorized indicates the token is expired, revoked, or was never valid.
var ErrUnauthorized = errors.New("gateway: unauthorized (token expired or invalid)")

// Error is a non-2xx response from the budget service.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("API call failed: %d - %s", e.StatusCode, e.Body)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 and 403 responses.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// Client talks to the budget service REST API.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	token   func() string
	log     log.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTokenSource supplies the bearer token for each request.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) { c.token = fn }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l log.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client for the service at baseURL.
// An empty baseURL falls back to DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: defaultTimeout,
		token:   func() string { return "" },
		log:     log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ─── Auth ───────────────────────────────────────────────────────

// Login exchanges credentials for the user record and token.
func (c *Client) Login(ctx context.Context, username, password string) (AuthResponse, error) {
	var resp AuthResponse
	path := fmt.Sprintf("/user-api/login/%s/%s", url.PathEscape(username), url.PathEscape(password))
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp, err
}

// Register creates an account and returns the new user record and token.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/user-api/register", req, &resp)
	return resp, err
}

// ─── Income ─────────────────────────────────────────────────────

// GetIncomes lists all income entries for the user. A null body yields nil.
func (c *Client) GetIncomes(ctx context.Context, userID int64) ([]IncomeRecord, error) {
	var out []IncomeRecord
	err := c.do(ctx, http.MethodGet, "/income-api/getAll/"+id(userID), nil, &out)
	return out, err
}

// CreateIncome stores a new income entry and returns it with its assigned id.
func (c *Client) CreateIncome(ctx context.Context, rec IncomeRecord) (IncomeRecord, error) {
	var out IncomeRecord
	err := c.do(ctx, http.MethodPost, "/income-api/create", rec, &out)
	return out, err
}

// DeleteIncome removes an income entry.
func (c *Client) DeleteIncome(ctx context.Context, userID, incomeID int64) error {
	return c.do(ctx, http.MethodDelete,
		fmt.Sprintf("/income-api/user/%d/income/%d", userID, incomeID), nil, nil)
}

// ─── Expenses ───────────────────────────────────────────────────

// GetExpenses lists all expense entries for the user.
func (c *Client) GetExpenses(ctx context.Context, userID int64) ([]ExpenseRecord, error) {
	var out []ExpenseRecord
	err := c.do(ctx, http.MethodGet, "/expense-api/getAll/user/"+id(userID), nil, &out)
	return out, err
}

// CreateExpense stores a new expense entry.
func (c *Client) CreateExpense(ctx context.Context, rec ExpenseRecord) (ExpenseRecord, error) {
	var out ExpenseRecord
	err := c.do(ctx, http.MethodPost, "/expense-api/create", rec, &out)
	return out, err
}

// DeleteExpense removes an expense entry.
func (c *Client) DeleteExpense(ctx context.Context, userID, expenseID int64) error {
	return c.do(ctx, http.MethodDelete,
		fmt.Sprintf("/expense-api/user/%d/expense/%d", userID, expenseID), nil, nil)
}

// ─── Savings goals ──────────────────────────────────────────────

// GetSavingsGoals lists all savings goals for the user.
func (c *Client) GetSavingsGoals(ctx context.Context, userID int64) ([]GoalRecord, error) {
	var out []GoalRecord
	err := c.do(ctx, http.MethodGet, "/goal-api/getAll/"+id(userID), nil, &out)
	return out, err
}

// CreateSavingsGoal stores a new savings goal.
func (c *Client) CreateSavingsGoal(ctx context.Context, rec GoalRecord) (GoalRecord, error) {
	var out GoalRecord
	err := c.do(ctx, http.MethodPost, "/goal-api/create", rec, &out)
	return out, err
}

// AddAmountToGoal asks the service to add amount (any sign) to the goal's current amount.
func (c *Client) AddAmountToGoal(ctx context.Context, userID, goalID int64, amount decimal.Decimal) error {
	return c.do(ctx, http.MethodPut,
		fmt.Sprintf("/goal-api/addamount/user/%d/goal/%d/amount/%s", userID, goalID, url.PathEscape(amount.String())),
		nil, nil)
}

// DeleteSavingsGoal removes a savings goal.
func (c *Client) DeleteSavingsGoal(ctx context.Context, userID, goalID int64) error {
	return c.do(ctx, http.MethodDelete,
		fmt.Sprintf("/goal-api/user/%d/goal/%d", userID, goalID), nil, nil)
}

// ─── Transport ──────────────────────────────────────────────────

// do sends one request. in is JSON-encoded when non-nil; the response body is
// decoded into out when out is non-nil and the body is not empty or null.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("gateway: encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("gateway: creating request: %w", err)
	}

	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-Id", reqID)
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	logger := c.log.WithFields(log.Fields{
		"request_id": reqID,
		"method":     method,
		"path":       redact(path),
	})

	start := time.Now()
	//nolint:gosec // URL is built from the configured base URL
	resp, err := c.http.Do(req)
	if err != nil {
		logger.WithError(err).Debug("gateway request failed")
		return fmt.Errorf("gateway: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("gateway: reading response: %w", err)
	}

	logger.WithFields(log.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("gateway request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gwErr := &Error{
			Method:     method,
			Path:       redact(path),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
		logger.WithField("status", resp.StatusCode).Warn(gwErr.Error())
		return gwErr
	}

	if out == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("gateway: parsing %s %s: %w", method, redact(path), err)
	}
	return nil
}

func id(n int64) string {
	return strconv.FormatInt(n, 10)
}

// redact hides the password segment of login paths from logs and errors.
func redact(path string) string {
	const prefix = "/user-api/login/"
	if !strings.HasPrefix(path, prefix) {
		return path
	}
	rest := strings.TrimPrefix(path, prefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return prefix + rest[:i] + "/***"
	}
	return path
}
