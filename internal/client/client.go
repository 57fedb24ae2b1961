// Package client is the typed HTTP wrapper over the hiretrack API. Mutations
// go through the offline queue when the client is offline or the caller asks.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kiranshivaraju/hiretrack/internal/offline"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
)

// Sentinel errors for client failures.
var (
	// ErrQueued means the mutation was stored for later replay instead of sent.
	ErrQueued      = errors.New("request queued for replay")
	ErrUnreachable = errors.New("api unreachable")
	ErrTimeout     = errors.New("api request timeout")
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// Retryable reports whether repeating the request may succeed.
func (e *APIError) Retryable() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsRetryable reports whether err is worth retrying: a retryable APIError or a
// transport failure.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return errors.Is(err, ErrUnreachable) || errors.Is(err, ErrTimeout)
}

type queueKey struct{}

// WithQueue marks ctx so mutations made with it are queued even while online.
func WithQueue(ctx context.Context) context.Context {
	return context.WithValue(ctx, queueKey{}, true)
}

func wantsQueue(ctx context.Context) bool {
	v, _ := ctx.Value(queueKey{}).(bool)
	return v
}

// HTTPClient implements the API surface over net/http.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	queue   *offline.Queue

	// set when the client took the queue offline after a connection failure
	lostConn atomic.Bool
}

type Option func(*HTTPClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.client = hc }
}

// WithOfflineQueue attaches q and registers the client as its replayer.
func WithOfflineQueue(q *offline.Queue) Option {
	return func(c *HTTPClient) {
		c.queue = q
		q.SetReplayer(c)
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Queue returns the attached offline queue, or nil.
func (c *HTTPClient) Queue() *offline.Queue {
	return c.queue
}

// Replay sends a queued mutation as-is. It never re-queues.
func (c *HTTPClient) Replay(ctx context.Context, item models.QueueItem) error {
	var body io.Reader
	if len(item.Payload) > 0 {
		body = bytes.NewReader(item.Payload)
	}
	return c.send(ctx, item.Method, item.Endpoint, body, nil)
}

// do sends a read request and decodes the answer into out.
func (c *HTTPClient) do(ctx context.Context, method, endpoint string, out any) error {
	err := c.send(ctx, method, endpoint, nil, out)
	c.observe(ctx, err)
	return err
}

// mutate sends a write, or queues it when offline or asked to via WithQueue.
// A write that cannot reach the API is queued and takes the queue offline.
// Timeouts are not queued since the API may have applied the write.
func (c *HTTPClient) mutate(ctx context.Context, method, endpoint string, payload, out any) error {
	if c.queue != nil && (!c.queue.Online() || wantsQueue(ctx)) {
		return c.enqueue(ctx, method, endpoint, payload)
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	err := c.send(ctx, method, endpoint, body, out)
	c.observe(ctx, err)
	if c.queue != nil && errors.Is(err, ErrUnreachable) {
		return c.enqueue(ctx, method, endpoint, payload)
	}
	return err
}

func (c *HTTPClient) enqueue(ctx context.Context, method, endpoint string, payload any) error {
	item, err := c.queue.Enqueue(ctx, method, endpoint, payload)
	if err != nil {
		return fmt.Errorf("queue %s %s: %w", method, endpoint, err)
	}
	return fmt.Errorf("%w: %s", ErrQueued, item.ID)
}

// observe tracks connectivity from request outcomes. A connection failure takes
// the queue offline; the next answer from the API brings it back online, which
// replays the queue in the background. A queue taken offline by the caller is
// left alone.
func (c *HTTPClient) observe(ctx context.Context, err error) {
	if c.queue == nil {
		return
	}
	var apiErr *APIError
	switch {
	case err == nil || errors.As(err, &apiErr):
		if c.lostConn.CompareAndSwap(true, false) {
			slog.Info("api reachable again, replaying offline queue")
			c.queue.SetOnline(context.WithoutCancel(ctx), true)
		}
	case errors.Is(err, ErrUnreachable):
		if c.queue.Online() {
			slog.Warn("api unreachable, queueing writes", "error", err)
			c.lostConn.Store(true)
			c.queue.SetOnline(ctx, false)
		}
	}
}

func (c *HTTPClient) send(ctx context.Context, method, endpoint string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, endpoint, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

func listQuery(params map[string]string, page, pageSize int) string {
	v := url.Values{}
	for k, val := range params {
		if val != "" {
			v.Set(k, val)
		}
	}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		v.Set("pageSize", strconv.Itoa(pageSize))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

var _ offline.Replayer = (*HTTPClient)(nil)
