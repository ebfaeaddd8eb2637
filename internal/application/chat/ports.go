package chat

import (
	"context"
	"errors"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

// Errors a Completer wraps so the service can tell "no answer at all" from
// "an answer we could not read".
var (
	// ErrUnavailable covers connect errors, timeouts and an open breaker.
	ErrUnavailable = errors.New("llm unavailable")
	// ErrUnparseable means the upstream replied 2xx with a body we can't use.
	ErrUnparseable = errors.New("llm response unparseable")
)

// Completer sends one user message to the LLM and returns its reply.
// A reachable upstream answering non-2xx comes back as a *domain.Error.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
	Health(ctx context.Context) Health
}

type Health struct {
	Status       string `json:"status"` // healthy | warning | unhealthy
	URL          string `json:"url"`
	UpstreamCode int    `json:"upstream_status,omitempty"`
	Message      string `json:"message,omitempty"`
}

type ChatRepo interface {
	// SaveExchange writes the message and its answer in one transaction.
	SaveExchange(ctx context.Context, userID int64, message, provider, answer string) (domain.ChatExchange, error)
	// ListByUser returns exchanges newest first.
	ListByUser(ctx context.Context, userID int64) ([]domain.ChatExchange, error)
}

type UserLookup interface {
	UserExists(ctx context.Context, id int64) (bool, error)
}
