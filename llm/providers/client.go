// Package providers contains the shared HTTP streaming client and the wire
// helpers used by the concrete provider format packages. The client owns
// everything format-independent: rate limiting, timeouts, SSE decoding via
// the stream package, and the folding of transport failures into terminal
// StreamChunks so errors never escape the stream boundary.
package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/uiflow/llm"
	"github.com/BaSui01/uiflow/llm/stream"
)

const (
	defaultTimeout      = 60 * time.Second
	connectivityTimeout = 5 * time.Second
)

// Client implements llm.Provider on top of an llm.Format wire strategy.
// One Client may serve concurrent generation runs; each run owns its own
// decoder, buffer and in-flight request.
type Client struct {
	cfg     llm.ProviderConfig
	format  llm.Format
	client  *http.Client
	logger  *zap.Logger
	limiter *rate.Limiter
	bufCfg  stream.BufferConfig
}

// NewClient validates the configuration and builds a streaming client.
// A missing API key is the one fatal, non-retryable configuration error:
// it fails here, before any network call.
func NewClient(cfg llm.ProviderConfig, format llm.Format, logger *zap.Logger) (*Client, error) {
	if format == nil {
		return nil, fmt.Errorf("format cannot be nil")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s: api key is required", format.Name())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}

	return &Client{
		cfg:     cfg,
		format:  format,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(zap.String("provider", format.Name())),
		limiter: limiter,
		bufCfg:  stream.DefaultBufferConfig(),
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string { return c.format.Name() }

// Stream issues the streaming request and decodes it into text deltas.
// Transport failures (network error, non-2xx, timeout, cancellation) appear
// on the channel as a single terminal chunk with Err and Done set.
func (c *Client) Stream(ctx context.Context, messages []llm.Message) <-chan llm.StreamChunk {
	buf := stream.NewBuffer(c.bufCfg)
	go c.run(ctx, messages, buf)
	return buf.Out()
}

func (c *Client) run(ctx context.Context, messages []llm.Message, buf *stream.Buffer) {
	defer buf.Close()

	fail := func(err *llm.Error) {
		_ = buf.Push(ctx, llm.StreamChunk{Err: err, Done: true, Provider: c.Name()})
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			fail(&llm.Error{Code: llm.ErrRateLimited, Message: err.Error(), Provider: c.Name()})
			return
		}
	}

	payload, err := c.format.BuildRequest(c.cfg, messages)
	if err != nil {
		fail(&llm.Error{Code: llm.ErrInvalidRequest, Message: err.Error(), HTTPStatus: http.StatusBadRequest, Provider: c.Name()})
		return
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.format.Endpoint(c.cfg), bytes.NewReader(payload))
	if err != nil {
		fail(&llm.Error{Code: llm.ErrInvalidRequest, Message: err.Error(), HTTPStatus: http.StatusBadRequest, Provider: c.Name()})
		return
	}
	c.format.BuildHeaders(httpReq, c.cfg)
	for k, v := range c.cfg.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		code := llm.ErrUpstreamError
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			code = llm.ErrUpstreamTimeout
		}
		fail(&llm.Error{Code: code, Message: err.Error(), HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: c.Name()})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := ReadErrorMessage(resp.Body)
		c.logger.Warn("streaming request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		fail(MapHTTPError(resp.StatusCode, msg, c.Name()))
		return
	}

	decoder := stream.NewDecoder(c.format.ExtractDelta)
	raw := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(raw)
		if n > 0 {
			for _, chunk := range decoder.Feed(raw[:n]) {
				chunk.Provider = c.Name()
				if err := buf.Push(ctx, chunk); err != nil {
					return
				}
				if chunk.Done {
					return
				}
			}
		}
		if readErr != nil {
			// An incomplete trailing record is dropped here; Finish still
			// guarantees exactly one Done chunk per run.
			for _, chunk := range decoder.Finish() {
				chunk.Provider = c.Name()
				if err := buf.Push(ctx, chunk); err != nil {
					return
				}
			}
			return
		}
	}
}

// Complete runs a streaming request to completion and returns the
// accumulated text.
func (c *Client) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	var sb strings.Builder
	for chunk := range c.Stream(ctx, messages) {
		if chunk.Err != nil {
			return "", chunk.Err
		}
		sb.WriteString(chunk.Content)
	}
	return sb.String(), nil
}

// HealthCheck probes the provider with a short connectivity timeout,
// independent of the configured request timeout.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectivityTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.format.HealthEndpoint(c.cfg), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.format.BuildHeaders(httpReq, c.cfg)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := ReadErrorMessage(resp.Body)
		return fmt.Errorf("%s health check failed: status=%d msg=%s", c.Name(), resp.StatusCode, msg)
	}
	c.logger.Debug("health check ok", zap.Duration("latency", time.Since(start)))
	return nil
}
