package domain

import "time"

const (
	ProviderOpenWebUI = "open_webui"
	ProviderFallback  = "fallback"
)

// Chat is one persisted user message.
type Chat struct {
	ID        int64
	UserID    int64
	Message   string
	CreatedAt time.Time
}

// Answer is the reply recorded for a Chat.
type Answer struct {
	ID          int64
	ChatID      int64
	LLMProvider string
	Answer      string
	CreatedAt   time.Time
}

// ChatExchange pairs a message with its answer for history listings.
type ChatExchange struct {
	Chat   Chat
	Answer Answer
}
