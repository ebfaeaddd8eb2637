package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/baechuer/chatcpe-service/internal/application/chat"
	"github.com/baechuer/chatcpe-service/internal/domain"
)

const (
	completionsPath = "/api/chat/completions"
	statusPath      = "/api/status"
	healthTimeout   = 5 * time.Second
	maxBodyBytes    = 1 << 20
)

var llmRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "chatcpe",
		Name:      "llm_requests_total",
		Help:      "LLM completion calls by outcome",
	},
	[]string{"outcome"}, // ok | unavailable | upstream_error | unparseable
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration

	// Breaker tuning; zero values pick the defaults below.
	TripAfter   uint32
	OpenTimeout time.Duration
}

// Client talks to an Open WebUI compatible completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration

	http *http.Client
	cb   *gobreaker.CircuitBreaker
	lg   zerolog.Logger
}

var _ chat.Completer = (*Client)(nil)

func NewClient(cfg Config, httpClient *http.Client, lg zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Model == "" {
		cfg.Model = "default"
	}
	if cfg.TripAfter == 0 {
		cfg.TripAfter = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	lg = lg.With().Str("component", "llm_client").Logger()

	st := gobreaker.Settings{
		Name:        "OpenWebUI",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.TripAfter
		},
		// Only transport failures count; an upstream that answers is up.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, chat.ErrUnavailable)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			lg.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		http:    httpClient,
		cb:      gobreaker.NewCircuitBreaker(st),
		lg:      lg,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete returns the assistant's reply. Errors wrap chat.ErrUnavailable
// or chat.ErrUnparseable, or are a *domain.Error for non-2xx replies.
func (c *Client) Complete(ctx context.Context, msg string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.complete(ctx, msg)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", chat.ErrUnavailable, err)
		}
		llmRequestsTotal.WithLabelValues(outcomeOf(err)).Inc()
		return "", err
	}

	llmRequestsTotal.WithLabelValues("ok").Inc()
	return res.(string), nil
}

func (c *Client) complete(ctx context.Context, msg string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:    c.model,
		Messages: []message{{Role: "user", Content: msg}},
		Stream:   false,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", chat.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", chat.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", chat.ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.lg.Warn().Int("status", resp.StatusCode).Msg("llm upstream returned error status")
		return "", statusError(resp.StatusCode)
	}

	var cr completionResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("%w: %v", chat.ErrUnparseable, err)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message == nil || cr.Choices[0].Message.Content == nil {
		return "", fmt.Errorf("%w: no choices[0].message.content", chat.ErrUnparseable)
	}
	return *cr.Choices[0].Message.Content, nil
}

func statusError(code int) error {
	switch code {
	case http.StatusNotFound:
		return domain.ErrLLMNotFound()
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrLLMAuthFailed()
	default:
		return domain.ErrLLMUpstream(code)
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, chat.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, chat.ErrUnparseable):
		return "unparseable"
	default:
		return "upstream_error"
	}
}

// Health probes the upstream status endpoint. It bypasses the breaker so an
// operator sees the real state.
func (c *Client) Health(ctx context.Context) chat.Health {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	h := chat.Health{URL: c.baseURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+statusPath, nil)
	if err != nil {
		h.Status = "unhealthy"
		h.Message = "invalid upstream url"
		return h
	}

	resp, err := c.http.Do(req)
	if err != nil {
		h.Status = "unhealthy"
		h.Message = "cannot connect to chat service"
		return h
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	h.UpstreamCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		h.Status = "healthy"
		return h
	}
	h.Status = "warning"
	h.Message = "chat service responding with error"
	return h
}
