package http_handlers

import (
	"context"
	"net/http"

	"github.com/baechuer/chatcpe-service/internal/application/chat"
	"github.com/baechuer/chatcpe-service/internal/domain"
	"github.com/baechuer/chatcpe-service/internal/transport/http/dto"
	"github.com/baechuer/chatcpe-service/internal/transport/http/middleware"
	"github.com/baechuer/chatcpe-service/internal/transport/http/response"
	"github.com/baechuer/chatcpe-service/internal/transport/http/validate"
)

type ChatService interface {
	Send(ctx context.Context, in chat.SendInput) (chat.Reply, error)
	History(ctx context.Context, userID int64) ([]domain.ChatExchange, error)
	HistoryFor(ctx context.Context, actor domain.User, userID int64) ([]domain.ChatExchange, error)
	Health(ctx context.Context) chat.Health
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Send answers one message. Runs behind optional authentication.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req dto.SendChatRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	in := chat.SendInput{Message: req.Message, ClaimedUserID: req.UserID}
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		in.Caller = &u
	}

	reply, err := h.svc.Send(r.Context(), in)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewChatReply(reply))
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	list, err := h.svc.History(r.Context(), u.ID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewHistory(list))
}

func (h *ChatHandler) HistoryFor(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}
	userID, err := pathID(r, "user_id")
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	list, err := h.svc.HistoryFor(r.Context(), u, userID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewHistory(list))
}

func (h *ChatHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.svc.Health(r.Context()))
}
