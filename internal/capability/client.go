package capability

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

	"github.com/mohammad-safakhou/marketintel/internal/logger"
	"github.com/sirupsen/logrus"
)

const DefaultClientTimeout = 10 * time.Second

// Client invokes tools hosted by a remote tool server over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	log     logrus.FieldLogger
}

var _ Invoker = (*Client)(nil)

// NewClient points at a tool server such as "http://localhost:8001".
func NewClient(baseURL string, timeout time.Duration, log logrus.FieldLogger) *Client {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	if log == nil {
		log = logger.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// CallRequest is the wire body of POST /tool/{name}.
type CallRequest struct {
	Args Args `json:"args"`
}

// CallResponse is the wire body returned for a successful call.
type CallResponse struct {
	Tool   string          `json:"tool"`
	Result json.RawMessage `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Invoke never returns a Go error: transport problems surface as Unavailable.
func (c *Client) Invoke(ctx context.Context, name string, args Args) Result {
	if args == nil {
		args = Args{}
	}
	body, err := json.Marshal(CallRequest{Args: args})
	if err != nil {
		return Result{Kind: InvalidArguments, Reason: err.Error()}
	}
	endpoint := c.baseURL + "/tool/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return c.unavailable(name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return c.unavailable(name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return c.unavailable(name, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var out CallResponse
		if err := json.Unmarshal(raw, &out); err != nil {
			return c.unavailable(name, fmt.Errorf("decode response: %w", err))
		}
		var v any
		if len(out.Result) > 0 {
			if err := json.Unmarshal(out.Result, &v); err != nil {
				return c.unavailable(name, fmt.Errorf("decode result: %w", err))
			}
		}
		return Result{Kind: Success, Value: v}
	case resp.StatusCode == http.StatusNotFound:
		return Result{Kind: NotFound, Reason: errorReason(raw, resp.Status)}
	case resp.StatusCode == http.StatusBadRequest:
		return Result{Kind: InvalidArguments, Reason: errorReason(raw, resp.Status)}
	default:
		return c.unavailable(name, fmt.Errorf("%s: %s", resp.Status, errorReason(raw, "")))
	}
}

func (c *Client) unavailable(name string, err error) Result {
	c.log.WithField("tool", name).WithError(err).Warn("tool server call failed")
	return Result{Kind: Unavailable, Reason: err.Error()}
}

func errorReason(raw []byte, def string) string {
	var e errorResponse
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		return e.Error
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return def
}
