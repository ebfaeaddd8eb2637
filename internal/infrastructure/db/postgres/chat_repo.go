package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/baechuer/chatcpe-service/internal/application/chat"
	"github.com/baechuer/chatcpe-service/internal/domain"
)

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

var _ chat.ChatRepo = (*ChatRepo)(nil)

func (r *ChatRepo) SaveExchange(ctx context.Context, userID int64, message, provider, answer string) (domain.ChatExchange, error) {
	if userID <= 0 {
		return domain.ChatExchange{}, domain.ErrMissingField("user_id")
	}
	if strings.TrimSpace(provider) == "" {
		return domain.ChatExchange{}, domain.ErrMissingField("llm_provider")
	}

	const insertChat = `
INSERT INTO chats (user_id, message)
VALUES ($1, $2)
RETURNING id, user_id, message, created_at;
`
	const insertAnswer = `
INSERT INTO answers (chat_id, llm_provider, answer)
VALUES ($1, $2, $3)
RETURNING id, chat_id, llm_provider, answer, created_at;
`

	var ex domain.ChatExchange
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		c := &ex.Chat
		if err := tx.QueryRowContext(ctx, insertChat, userID, message).
			Scan(&c.ID, &c.UserID, &c.Message, &c.CreatedAt); err != nil {
			return err
		}
		a := &ex.Answer
		return tx.QueryRowContext(ctx, insertAnswer, c.ID, provider, answer).
			Scan(&a.ID, &a.ChatID, &a.LLMProvider, &a.Answer, &a.CreatedAt)
	})
	if err != nil {
		return domain.ChatExchange{}, domain.ErrDBUnavailable(err)
	}
	return ex, nil
}

func (r *ChatRepo) ListByUser(ctx context.Context, userID int64) ([]domain.ChatExchange, error) {
	const q = `
SELECT c.id, c.user_id, c.message, c.created_at,
       a.id, a.chat_id, a.llm_provider, a.answer, a.created_at
FROM chats c
JOIN answers a ON a.chat_id = c.id
WHERE c.user_id = $1
ORDER BY c.created_at DESC, c.id DESC;
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	out := make([]domain.ChatExchange, 0)
	for rows.Next() {
		var ex domain.ChatExchange
		if err := rows.Scan(
			&ex.Chat.ID, &ex.Chat.UserID, &ex.Chat.Message, &ex.Chat.CreatedAt,
			&ex.Answer.ID, &ex.Answer.ChatID, &ex.Answer.LLMProvider, &ex.Answer.Answer, &ex.Answer.CreatedAt,
		); err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}
