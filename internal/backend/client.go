package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/five82/peerdeck/internal/metrics"
)

// Ensure Client implements Port at compile time.
var _ Port = (*Client)(nil)

// Client talks to the backend over HTTP: commands as JSON POSTs, push
// notifications as a Server-Sent Events stream.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	stream    *retryablehttp.Client
	userAgent string
	log       zerolog.Logger

	reconnectMin time.Duration
	reconnectMax time.Duration

	mu          sync.RWMutex
	nextID      int
	handlers    map[string]map[int]func(json.RawMessage)
	lastEventID string
}

const (
	defaultBaseURL        = "http://127.0.0.1:7878"
	defaultUserAgent      = "peerdeck/0.1"
	defaultRequestTimeout = 5 * time.Second
	maxErrorBody          = 4 << 10
)

// ClientOptions tune a Client. Zero values use defaults.
type ClientOptions struct {
	RequestTimeout time.Duration
	Logger         zerolog.Logger
}

// NewClient builds a Client for the backend at baseURL.
func NewClient(baseURL string, opts ClientOptions) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout

	log := opts.Logger.With().Str("component", "backend").Logger()

	// The event stream is long-lived, so no overall timeout. Retries only
	// cover establishing the stream; commands are never retried.
	stream := retryablehttp.NewClient()
	stream.HTTPClient = cleanhttp.DefaultPooledClient()
	stream.HTTPClient.Timeout = 0
	stream.RetryMax = 3
	stream.RetryWaitMin = 500 * time.Millisecond
	stream.RetryWaitMax = 5 * time.Second
	stream.Logger = retryLogger{log: log}

	return &Client{
		baseURL:      base,
		http:         httpClient,
		stream:       stream,
		userAgent:    defaultUserAgent,
		log:          log,
		reconnectMin: time.Second,
		reconnectMax: 30 * time.Second,
		handlers:     make(map[string]map[int]func(json.RawMessage)),
	}, nil
}

// Invoke posts cmd with params and unwraps the reply envelope.
func (c *Client) Invoke(ctx context.Context, cmd Command, params any) (json.RawMessage, error) {
	if c == nil {
		return nil, &TransportError{Command: cmd, Err: fmt.Errorf("client is nil")}
	}
	result, err := c.invoke(ctx, cmd, params)
	metrics.RecordCommand(string(cmd), Outcome(err))
	if err != nil {
		c.log.Debug().Err(err).Str("command", string(cmd)).Msg("command failed")
	}
	return result, err
}

func (c *Client) invoke(ctx context.Context, cmd Command, params any) (json.RawMessage, error) {
	body := []byte("{}")
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return nil, &TransportError{Command: cmd, Err: fmt.Errorf("encode params: %w", err)}
		}
		body = encoded
	}

	rel := &url.URL{Path: "/api/commands/" + string(cmd)}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Command: cmd, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Command: cmd, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Command: cmd, Err: fmt.Errorf("read response: %w", err)}
	}

	var env envelope
	decodeErr := json.Unmarshal(payload, &env)

	if resp.StatusCode >= 400 {
		// A refusal may still arrive with an error status; honour its message.
		if decodeErr == nil && !env.OK && env.Error != "" {
			return nil, &RejectionError{Command: cmd, Message: env.Error}
		}
		return nil, &TransportError{
			Command: cmd,
			Err:     fmt.Errorf("api %s returned status %d: %s", rel.Path, resp.StatusCode, snippet(payload)),
		}
	}
	if decodeErr != nil {
		return nil, &TransportError{Command: cmd, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if !env.OK {
		return nil, &RejectionError{Command: cmd, Message: env.Error}
	}
	return env.Result, nil
}

// Subscribe registers handler for event. Handlers run on the Listen goroutine.
func (c *Client) Subscribe(event string, handler func(json.RawMessage)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[int]func(json.RawMessage))
	}
	c.handlers[event][id] = handler
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.handlers[event], id)
			if len(c.handlers[event]) == 0 {
				delete(c.handlers, event)
			}
			c.mu.Unlock()
		})
	}
}

// Listen consumes the event stream until ctx is cancelled, reconnecting with
// capped exponential backoff.
func (c *Client) Listen(ctx context.Context) {
	delay := c.reconnectMin
	for {
		if ctx.Err() != nil {
			return
		}

		err := c.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			delay = c.reconnectMin
			continue
		}

		c.log.Warn().Err(err).Dur("retry_in", delay).Msg("event stream dropped")
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > c.reconnectMax {
			delay = c.reconnectMax
		}
	}
}

func (c *Client) consume(ctx context.Context) error {
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: "/api/events"})
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("User-Agent", c.userAgent)
	if id := c.resumeID(); id != "" {
		req.Header.Set("Last-Event-ID", id)
	}

	resp, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event stream returned status %d", resp.StatusCode)
	}
	c.log.Info().Str("url", reqURL.String()).Msg("event stream connected")

	return readEvents(ctx, resp.Body, c.dispatch)
}

func (c *Client) resumeID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastEventID
}

func (c *Client) dispatch(ev streamEvent) {
	c.mu.Lock()
	if ev.ID != "" {
		c.lastEventID = ev.ID
	}
	handlers := make([]func(json.RawMessage), 0, len(c.handlers[ev.Name]))
	for _, h := range c.handlers[ev.Name] {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	if len(handlers) == 0 {
		c.log.Debug().Str("event", ev.Name).Msg("no subscribers for event")
		return
	}
	for _, h := range handlers {
		h(ev.Data)
	}
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse backend url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func snippet(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(string(body))
}

// retryLogger adapts zerolog to retryablehttp's LeveledLogger.
type retryLogger struct {
	log zerolog.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}
