package rpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/dmagro/solrpc/internal/solana"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

// Client sends JSON-RPC requests to one endpoint and decodes the replies
// with controllers. It does not retry; callers own that policy.
type Client struct {
	name       string
	url        string
	http       Doer
	headers    map[string]string
	commitment solana.Commitment
	log        zerolog.Logger
	observer   Observer
	intercept  Predicate

	nextID atomic.Uint64
}

type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// WithHeaders adds headers to every request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

// WithCommitment sets the commitment sent with methods that accept one.
func WithCommitment(cm solana.Commitment) Option {
	return func(c *Client) { c.commitment = cm }
}

func WithClientLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithClientObserver reports every decoded response to obs.
func WithClientObserver(obs Observer) Option {
	return func(c *Client) { c.observer = obs }
}

// WithInterceptor applies p to every response before domain decoding.
func WithInterceptor(p Predicate) Option {
	return func(c *Client) { c.intercept = p }
}

// NewClient returns a client for the endpoint at rawURL. The request id
// counter starts at the current wall clock time in milliseconds.
func NewClient(name, rawURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, rawURL)
	}
	c := &Client{
		name:    name,
		url:     rawURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		headers: make(map[string]string),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.nextID.Store(uint64(time.Now().UnixMilli()))
	return c, nil
}

func (c *Client) Name() string { return c.name }

func (c *Client) URL() string { return c.url }

func (c *Client) Commitment() solana.Commitment { return c.commitment }

// Send posts one request and reads the whole reply. Network failures and
// cancellation are returned as is; no decoding happens here.
func (c *Client) Send(ctx context.Context, method string, params ...any) (*RawResponse, error) {
	id := c.nextID.Add(1)
	body, err := json.Marshal(Request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", c.name, method, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", c.name, method, err)
	}

	c.log.Trace().
		Str("endpoint", c.name).
		Str("method", method).
		Uint64("id", id).
		Int("status", httpResp.StatusCode).
		Int("bytes", len(respBody)).
		Msg("rpc response")

	return &RawResponse{
		Method:     method,
		ID:         id,
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

// controllerOptions returns the options every controller built for this
// client shares.
func (c *Client) controllerOptions() []ControllerOption {
	opts := []ControllerOption{WithLogger(c.log)}
	if c.observer != nil {
		opts = append(opts, WithObserver(c.observer))
	}
	if c.intercept != nil {
		opts = append(opts, WithPredicate(c.intercept))
	}
	return opts
}

// Call sends method and decodes the reply with decode.
func Call[T any](ctx context.Context, c *Client, method string, decode DecodeFunc[T], params ...any) (T, error) {
	resp, err := c.Send(ctx, method, params...)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := NewController(decode, c.controllerOptions()...).Decode(resp)
	if err != nil {
		if rpcErr, ok := AsError(err); ok {
			c.log.Debug().
				Str("endpoint", c.name).
				Str("method", method).
				Int64("code", rpcErr.Code).
				Str("message", rpcErr.Message).
				Msg("rpc error")
		}
		return v, err
	}
	return v, nil
}
