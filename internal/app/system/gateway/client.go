// internal/app/system/gateway/client.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// Credentials supplies the bearer token for authenticated exchanges.
type Credentials interface {
	Token() string
}

// Token is a Credentials backed by a plain string.
type Token string

func (t Token) Token() string { return string(t) }

// Options configures a Client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Metrics    *Metrics
	Logger     *zap.Logger
}

// Client talks to the remote accounts/reports service.
type Client struct {
	base    *url.URL
	http    *http.Client
	metrics *Metrics
	log     *zap.Logger
}

// New validates the base URL and returns a Client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("gateway: base url %q must be http or https", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{base: base, http: hc, metrics: opts.Metrics, log: logger}, nil
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string { return c.base.String() }

// request describes one exchange.
type request struct {
	op     string
	method string
	path   string
	query  url.Values

	// jsonBody is marshalled as application/json; textBody is sent as
	// text/plain. At most one is set.
	jsonBody any
	textBody *string

	// anonymous requests are sent without an Authorization header.
	anonymous bool
}

// do performs req and decodes a successful body into out. out may be nil,
// a *string (raw text), a *RawList, or any JSON target.
func (c *Client) do(ctx context.Context, cred Credentials, req request, out any) error {
	token := ""
	if cred != nil {
		token = strings.TrimSpace(cred.Token())
	}
	if !req.anonymous && token == "" {
		return &Error{Op: req.op, Status: http.StatusUnauthorized, Message: "not signed in", Err: ErrNoCredential}
	}

	u := c.base.JoinPath(req.path)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.jsonBody != nil:
		b, err := json.Marshal(req.jsonBody)
		if err != nil {
			return &Error{Op: req.op, Err: fmt.Errorf("encode body: %w", err)}
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	case req.textBody != nil:
		body = strings.NewReader(*req.textBody)
		contentType = "text/plain"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return &Error{Op: req.op, Err: err}
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-ID", requestID)
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token != "" && !req.anonymous {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.observe(req.op, 0, elapsed)
		c.log.Warn("gateway request failed",
			zap.String("op", req.op),
			zap.String("request_id", requestID),
			zap.Error(err))
		return &Error{Op: req.op, Err: err}
	}
	defer resp.Body.Close()

	c.metrics.observe(req.op, resp.StatusCode, elapsed)
	c.log.Debug("gateway request",
		zap.String("op", req.op),
		zap.String("method", req.method),
		zap.String("path", u.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", elapsed),
		zap.String("request_id", requestID))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{Op: req.op, Status: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: req.op, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	switch dst := out.(type) {
	case *string:
		*dst = string(raw)
	case *RawList:
		list, err := decodeList(raw)
		if err != nil {
			c.log.Warn("gateway list response is not an array",
				zap.String("op", req.op),
				zap.String("request_id", requestID),
				zap.Error(err))
			return &Error{Op: req.op, Status: resp.StatusCode, Err: err}
		}
		*dst = list
	default:
		if len(bytes.TrimSpace(raw)) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{Op: req.op, Status: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
		}
	}
	return nil
}

// errorMessage extracts a human message from an error body: the "message"
// or "error" field of a JSON object, otherwise the trimmed text.
func errorMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '{' {
		var obj struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(raw, &obj) == nil {
			if obj.Message != "" {
				return obj.Message
			}
			return obj.Error
		}
	}
	if raw[0] == '<' {
		// HTML error pages carry nothing useful for the user.
		return ""
	}
	msg := string(raw)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
