// Package runqy is a client for the runqy task queue server. It submits
// tasks, looks up their state and result, and normalises the server's
// loosely-shaped JSON responses into TaskInfo values.
package runqy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Publikey/runqy-go/internal/httpclient"
	"github.com/Publikey/runqy-go/internal/jsonx"
	"github.com/Publikey/runqy-go/internal/logging"
	"github.com/Publikey/runqy-go/internal/observability"
)

const (
	// DefaultTimeout caps a single round-trip when the caller's context
	// carries no deadline of its own.
	DefaultTimeout = 30 * time.Second

	// DefaultTaskTimeoutSecs is the execution budget forwarded to the server
	// with each enqueued task. It is a server-side allowance, distinct from
	// the client's network timeout.
	DefaultTaskTimeoutSecs = 300

	// DefaultMaxResponseBytes bounds how much of a response body the client
	// buffers before giving up.
	DefaultMaxResponseBytes int64 = 4 << 20
)

// Client talks to a runqy server. All configuration is fixed at construction,
// so a single instance is safe to share across goroutines.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxBody    int64
	logger     logging.Logger
	httpClient *http.Client
}

// Logger receives the client's diagnostic output. Any printf-style logger
// satisfies it; by default the client stays silent.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Option customises a Client at construction time.
type Option func(*Client)

// WithTimeout sets the default per-call deadline applied when the caller's
// context has none. Zero or negative disables the default entirely.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger routes the client's diagnostics to the given logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(logger)
	}
}

// WithHTTPClient substitutes the underlying HTTP client. Useful for custom
// TLS setups or instrumented transports.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMaxResponseBytes adjusts the response body size guard. Zero or negative
// removes the bound.
func WithMaxResponseBytes(limit int64) Option {
	return func(c *Client) {
		c.maxBody = limit
	}
}

// New builds a client for the server at serverURL, authenticating every
// request with apiKey. Trailing slashes on serverURL are dropped so paths
// join cleanly.
func New(serverURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		apiKey:  apiKey,
		timeout: DefaultTimeout,
		maxBody: DefaultMaxResponseBytes,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = httpclient.New(0, c.logger)
	}
	return c
}

type enqueueSettings struct {
	taskTimeoutSecs int
}

// EnqueueOption customises a single enqueue call.
type EnqueueOption func(*enqueueSettings)

// WithTaskTimeout overrides the execution budget, in seconds, the server
// should allow the task before considering it expired.
func WithTaskTimeout(seconds int) EnqueueOption {
	return func(s *enqueueSettings) {
		s.taskTimeoutSecs = seconds
	}
}

type enqueueRequest struct {
	Queue   string `json:"queue"`
	Timeout int    `json:"timeout"`
	Data    any    `json:"data"`
}

// Enqueue submits payload to the named queue and returns the created task.
// The returned TaskInfo carries the server-assigned id, the initial state and
// the payload exactly as passed in.
func (c *Client) Enqueue(ctx context.Context, queue string, payload any, opts ...EnqueueOption) (*TaskInfo, error) {
	settings := enqueueSettings{taskTimeoutSecs: DefaultTaskTimeoutSecs}
	for _, opt := range opts {
		opt(&settings)
	}

	body := enqueueRequest{
		Queue:   queue,
		Timeout: settings.taskTimeoutSecs,
		Data:    payload,
	}

	response, err := c.request(ctx, http.MethodPost, "/queue/add", body)
	if err != nil {
		return nil, err
	}

	task := taskInfoFromEnqueue(response, queue, payload)
	c.logger.Debug("enqueued task id=%s queue=%s state=%s", task.TaskID, task.Queue, task.State)
	return &task, nil
}

// GetTask fetches the current state and result of a previously enqueued task.
// The id is sent as-is; the client does not validate its format. A 404 from
// the server surfaces as a NotFoundError so callers can tell an unknown or
// purged task apart from service trouble.
func (c *Client) GetTask(ctx context.Context, taskID string) (*TaskInfo, error) {
	response, err := c.request(ctx, http.MethodGet, "/queue/"+taskID, nil)
	if err != nil {
		return nil, err
	}

	task := taskInfoFromLookup(response, taskID)
	return &task, nil
}

// Enqueue submits a single task without keeping a client around. Callers with
// more than one call to make should construct a Client instead.
func Enqueue(ctx context.Context, serverURL, apiKey, queue string, payload any, opts ...EnqueueOption) (*TaskInfo, error) {
	return New(serverURL, apiKey).Enqueue(ctx, queue, payload, opts...)
}

// ContextWithRequestID returns a context carrying a caller-chosen request id.
// The client sends it as the X-Request-ID header instead of generating one,
// so the caller's logs, the client's and the server's line up.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return observability.ContextWithRequestID(ctx, requestID)
}

// request performs one authenticated round-trip and returns the decoded JSON
// object. Every failure is classified here into the error taxonomy; no retry,
// no backoff, one attempt per invocation.
func (c *Client) request(ctx context.Context, method, path string, body any) (map[string]any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	requestID := observability.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := logging.WithRequestID(c.logger, requestID)

	var reader io.Reader
	if body != nil {
		encoded, err := jsonx.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", userAgent())
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug("%s %s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("%s %s failed: %v", method, path, err)
		return nil, NewConnectionError(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := httpclient.ReadAllWithLimit(resp.Body, c.maxBody)
	if err != nil {
		log.Debug("%s %s read failed: %v", method, path, err)
		return nil, NewConnectionError(err)
	}

	log.Debug("%s %s -> %d (%d bytes)", method, path, resp.StatusCode, len(respBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, respBody)
	}

	if len(respBody) == 0 {
		return map[string]any{}, nil
	}

	var parsed map[string]any
	if err := jsonx.Unmarshal(respBody, &parsed); err != nil {
		return nil, &ServiceError{
			Err:        err,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Message:    fmt.Sprintf("decode response: %v", err),
		}
	}
	if parsed == nil {
		parsed = map[string]any{}
	}
	return parsed, nil
}
