package dto

import (
	"time"

	"github.com/baechuer/chatcpe-service/internal/application/chat"
	"github.com/baechuer/chatcpe-service/internal/domain"
)

type SendChatRequest struct {
	Message string `json:"message" validate:"required"`
	// UserID is honoured only when it names an existing user and the caller
	// is not authenticated.
	UserID int64 `json:"user_id,omitempty"`
}

type ChatReply struct {
	ChatID   int64  `json:"chat_id"`
	Message  string `json:"message"`
	Answer   string `json:"answer"`
	Provider string `json:"llm_provider"`
}

func NewChatReply(r chat.Reply) ChatReply {
	return ChatReply{ChatID: r.ChatID, Message: r.Message, Answer: r.Answer, Provider: r.Provider}
}

type AnswerView struct {
	ID          int64     `json:"id"`
	Answer      string    `json:"answer"`
	LLMProvider string    `json:"llm_provider"`
	CreatedAt   time.Time `json:"created_at"`
}

type ChatView struct {
	ID        int64        `json:"id"`
	Message   string       `json:"message"`
	CreatedAt time.Time    `json:"created_at"`
	Answers   []AnswerView `json:"answers"`
}

func NewHistory(list []domain.ChatExchange) []ChatView {
	out := make([]ChatView, 0, len(list))
	for _, ex := range list {
		v := ChatView{
			ID:        ex.Chat.ID,
			Message:   ex.Chat.Message,
			CreatedAt: ex.Chat.CreatedAt,
			Answers:   []AnswerView{},
		}
		if ex.Answer.ID != 0 {
			v.Answers = append(v.Answers, AnswerView{
				ID:          ex.Answer.ID,
				Answer:      ex.Answer.Answer,
				LLMProvider: ex.Answer.LLMProvider,
				CreatedAt:   ex.Answer.CreatedAt,
			})
		}
		out = append(out, v)
	}
	return out
}
