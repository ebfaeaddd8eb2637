package chat

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/baechuer/chatcpe-service/internal/application/auth"
	"github.com/baechuer/chatcpe-service/internal/domain"
)

const (
	// FallbackAnswer is returned when the LLM cannot be reached at all.
	FallbackAnswer = "The assistant is temporarily unavailable. Please try again in a moment, or browse the FAQ for common questions."
	// ParseFallbackAnswer is returned when the LLM replied but the body was unusable.
	ParseFallbackAnswer = "Sorry, I couldn't parse the response properly."

	MaxMessageRunes = 4000
)

type Service struct {
	llm   Completer
	chats ChatRepo
	users UserLookup
	lg    zerolog.Logger
}

func NewService(llm Completer, chats ChatRepo, users UserLookup, lg zerolog.Logger) *Service {
	return &Service{
		llm:   llm,
		chats: chats,
		users: users,
		lg:    lg.With().Str("component", "chat_service").Logger(),
	}
}

type SendInput struct {
	Message string
	// Caller is the authenticated user, if any.
	Caller *domain.User
	// ClaimedUserID is the optional user_id from the request body.
	ClaimedUserID int64
}

type Reply struct {
	ChatID   int64
	Message  string
	Answer   string
	Provider string
}

// Send forwards one message to the LLM. An unreachable LLM yields the
// fallback answer rather than an error; only a reachable upstream answering
// non-2xx fails the call.
func (s *Service) Send(ctx context.Context, in SendInput) (Reply, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return Reply{}, domain.ErrMissingField("message")
	}
	if utf8.RuneCountInString(msg) > MaxMessageRunes {
		return Reply{}, domain.ErrInvalidField("message", "too long")
	}

	userID := s.resolveUser(ctx, in)

	answer, provider, err := s.ask(ctx, msg)
	if err != nil {
		return Reply{}, err
	}

	reply := Reply{Message: msg, Answer: answer, Provider: provider}
	if userID == 0 {
		s.lg.Debug().Msg("guest chat, not persisted")
		return reply, nil
	}

	ex, err := s.chats.SaveExchange(ctx, userID, msg, provider, answer)
	if err != nil {
		s.lg.Error().Err(err).Int64("user_id", userID).Msg("persist chat exchange failed")
		return reply, nil
	}
	reply.ChatID = ex.Chat.ID
	return reply, nil
}

// resolveUser picks whose history the exchange belongs to; 0 means guest.
func (s *Service) resolveUser(ctx context.Context, in SendInput) int64 {
	if in.Caller != nil && in.Caller.ID > 0 {
		return in.Caller.ID
	}
	if in.ClaimedUserID <= 0 {
		return 0
	}
	ok, err := s.users.UserExists(ctx, in.ClaimedUserID)
	if err != nil {
		s.lg.Warn().Err(err).Int64("user_id", in.ClaimedUserID).Msg("user lookup failed, treating as guest")
		return 0
	}
	if !ok {
		return 0
	}
	return in.ClaimedUserID
}

func (s *Service) ask(ctx context.Context, msg string) (answer, provider string, err error) {
	answer, err = s.llm.Complete(ctx, msg)
	if err == nil {
		return answer, domain.ProviderOpenWebUI, nil
	}

	var de *domain.Error
	switch {
	case errors.Is(err, ErrUnparseable):
		s.lg.Warn().Err(err).Msg("llm reply unparseable")
		return ParseFallbackAnswer, domain.ProviderOpenWebUI, nil
	case errors.As(err, &de):
		return "", "", err
	default:
		s.lg.Warn().Err(err).Msg("llm unavailable, answering with fallback")
		return FallbackAnswer, domain.ProviderFallback, nil
	}
}

// History returns the user's exchanges, newest first.
func (s *Service) History(ctx context.Context, userID int64) ([]domain.ChatExchange, error) {
	return s.chats.ListByUser(ctx, userID)
}

// HistoryFor lets a user read their own history and admin/staff read anyone's.
func (s *Service) HistoryFor(ctx context.Context, actor domain.User, userID int64) ([]domain.ChatExchange, error) {
	if actor.ID != userID {
		if err := auth.Authorize(actor, domain.RoleAdmin, domain.RoleStaff); err != nil {
			return nil, err
		}
	}
	return s.chats.ListByUser(ctx, userID)
}

func (s *Service) Health(ctx context.Context) Health {
	return s.llm.Health(ctx)
}
