package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"time"

	"github.com/quotachat/quotachat/internal/metrics"
	"github.com/quotachat/quotachat/internal/models"
)

// Client is the HTTP gateway to the QuotaChat backend. It owns wire-shape
// translation and error normalization; it never retries the billable
// operations (SendChatTurn, Recharge) on its own.
type Client struct {
	baseURL    string
	httpClient *http.Client
	collector  *metrics.Collector
}

// Option configures a Client.
type Option func(*Client)

// WithCollector attaches a metrics collector that records per-call timings.
func WithCollector(c *metrics.Collector) Option {
	return func(cl *Client) { cl.collector = c }
}

// WithTimeout overrides the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.httpClient.Timeout = d }
}

// New creates a new gateway client.
// If baseURL is empty, uses the QUOTACHAT_SERVER_URL env var or defaults to
// localhost:8000. The backend authenticates via session cookie, so the
// client carries a cookie jar for the lifetime of the process.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("QUOTACHAT_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Jar:     jar,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// chatTurnRequest is the wire shape for a chat completion call.
type chatTurnRequest struct {
	UserID    string `json:"user_id"`
	InputText string `json:"input_text"`
}

// ChatTurnResult is the backend's answer to a chat turn, including the
// authoritative post-turn balance and quota.
type ChatTurnResult struct {
	Response         string  `json:"response"`
	TokensUsed       int64   `json:"tokens_used"`
	AmountUsed       float64 `json:"amount_used"`
	RemainingBalance float64 `json:"remaining_balance"`
	RemainingTokens  int64   `json:"remaining_tokens"`
}

// rechargeRequest is the wire shape for a recharge call.
type rechargeRequest struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

// RechargeResult carries the post-recharge balance and quota.
type RechargeResult struct {
	Balance         float64 `json:"balance"`
	AvailableTokens int64   `json:"available_tokens"`
}

// Login authenticates with username/password and returns the Identity.
func (c *Client) Login(ctx context.Context, creds models.LoginCredentials) (*models.Identity, error) {
	defer c.record(metrics.OpLogin)()

	var identity models.Identity
	if err := c.post(ctx, "/login", creds, &identity, ErrAuth, "login failed, check username and password"); err != nil {
		return nil, err
	}
	return &identity, nil
}

// Register creates an account and returns the new Identity.
func (c *Client) Register(ctx context.Context, creds models.RegisterCredentials) (*models.Identity, error) {
	defer c.record(metrics.OpRegister)()

	var identity models.Identity
	if err := c.post(ctx, "/register", creds, &identity, ErrAuth, "registration failed"); err != nil {
		return nil, err
	}
	return &identity, nil
}

// SendChatTurn submits one chat turn. This is a billable side-effecting
// operation: the client never retries it, and the caller must not assume
// partial billing on failure.
func (c *Client) SendChatTurn(ctx context.Context, userID, inputText string) (*ChatTurnResult, error) {
	defer c.record(metrics.OpChat)()

	req := chatTurnRequest{UserID: userID, InputText: inputText}
	var result ChatTurnResult
	if err := c.post(ctx, "/v1/chat/completions", req, &result, ErrChat, "failed to send message"); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchHistory retrieves the persisted chat turns for a user, in the order
// the backend returns them.
func (c *Client) FetchHistory(ctx context.Context, userID string) ([]models.ChatTurn, error) {
	defer c.record(metrics.OpHistory)()

	endpoint := c.baseURL + "/chats/" + url.PathEscape(userID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, wrapTransport(ErrHistory, err)
	}
	setHeaders(httpReq)

	var turns []models.ChatTurn
	if err := c.do(httpReq, &turns, ErrHistory, "failed to load chat history"); err != nil {
		return nil, err
	}
	return turns, nil
}

// Recharge tops up the user's balance. Billable: never retried here.
func (c *Client) Recharge(ctx context.Context, userID string, amount float64) (*RechargeResult, error) {
	defer c.record(metrics.OpRecharge)()

	req := rechargeRequest{UserID: userID, Amount: amount}
	var result RechargeResult
	if err := c.post(ctx, "/recharge", req, &result, ErrBilling, "failed to process recharge"); err != nil {
		return nil, err
	}
	return &result, nil
}

// post sends a JSON body and decodes a JSON response, normalizing failures
// into the given error category.
func (c *Client) post(ctx context.Context, path string, payload, result any, kind error, fallback string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return wrapTransport(kind, err)
	}
	setHeaders(httpReq)

	return c.do(httpReq, result, kind, fallback)
}

// do executes the request and decodes the response.
func (c *Client) do(req *http.Request, result any, kind error, fallback string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapTransport(kind, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return wrapTransport(kind, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return wrapStatus(kind, body, fallback)
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("%w: unexpected response from server", kind)
		}
	}
	return nil
}

// setHeaders attaches the standard headers identifying a programmatic
// client request.
func setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
}

// record starts a timing sample for op and returns the closer that commits
// it. No-op when no collector is attached.
func (c *Client) record(op string) func() {
	if c.collector == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		c.collector.RecordCall(op, time.Since(start))
	}
}
