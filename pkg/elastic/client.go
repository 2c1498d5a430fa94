package elastic

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// Config contains configuration for the gateway client.
type Config struct {
	// URL is the base URL of the cluster, e.g. "https://es.internal:9200".
	URL string

	// Username and Password are sent as HTTP basic auth.
	Username string
	Password string

	// Timeout bounds each individual request. Zero means no timeout beyond
	// the caller's context.
	Timeout time.Duration

	// TLSConfig is used for https URLs. Nil verifies the server against
	// the system roots.
	TLSConfig *tls.Config

	// Transport overrides the HTTP round tripper (tests).
	Transport http.RoundTripper
}

// Observer receives one notification per completed request.
// StatusCode is 0 when the request failed before a response arrived.
type Observer interface {
	ObserveRequest(method string, statusCode int, duration time.Duration)
}

// Client issues REST calls against the search backend.
type Client struct {
	es       *elasticsearch.Client
	timeout  time.Duration
	observer Observer
	logger   *slog.Logger
}

// NewClient creates a gateway client for the configured cluster.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("elasticsearch url is required")
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     cfg.TLSConfig,
		}
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{cfg.URL},
		Username:     cfg.Username,
		Password:     cfg.Password,
		Transport:    transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &Client{
		es:      es,
		timeout: cfg.Timeout,
		logger:  slog.Default().With("component", "elastic"),
	}, nil
}

// SetObserver registers an observer for request metrics.
// It must be called before the client is shared between goroutines.
func (c *Client) SetObserver(o Observer) {
	c.observer = o
}

// Request performs method against path and returns the decoded JSON body.
// A nil body sends no payload; any other value is JSON encoded.
// An empty 200 response yields a nil RawMessage and no error.
func (c *Client) Request(ctx context.Context, method Method, path string, body any) (json.RawMessage, error) {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &DecodeError{Method: method, Path: path, Cause: fmt.Errorf("encode request body: %w", err)}
		}
		payload = bytes.NewReader(encoded)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method.String(), path, payload)
	if err != nil {
		return nil, NewTransportError(method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("sending request", "method", method.String(), "path", path)

	start := time.Now()
	res, err := c.es.Perform(req)
	if err != nil {
		c.observe(method, 0, time.Since(start))
		return nil, NewTransportError(method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	c.observe(method, res.StatusCode, time.Since(start))
	if err != nil {
		return nil, NewTransportError(method, path, fmt.Errorf("read response body: %w", err))
	}

	if res.StatusCode != http.StatusOK {
		c.logger.Warn("request rejected",
			"method", method.String(),
			"path", path,
			"status", res.StatusCode,
		)
		return nil, NewStatusError(method, path, res.StatusCode, string(raw))
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, &DecodeError{Method: method, Path: path, Cause: errors.New("response body is not valid JSON")}
	}

	return json.RawMessage(raw), nil
}

// Ping checks that the backend answers its root endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Request(ctx, MethodGet, "/", nil)
	return err
}

func (c *Client) observe(method Method, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(method.String(), status, d)
	}
}
