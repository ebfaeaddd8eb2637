package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

func TestNewUserView_OmitsSecrets(t *testing.T) {
	u := domain.User{
		ID: 1, Name: "Ann", Email: "ann@gmail.com", Role: "user",
		PasswordHash:      "$argon2id$v=19$secret",
		VerificationToken: "deadbeef",
	}
	b, err := json.Marshal(NewUserView(u))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, leak := range []string{"argon2id", "deadbeef", "password", "verification"} {
		if strings.Contains(string(b), leak) {
			t.Fatalf("user view leaks %q: %s", leak, b)
		}
	}
}

func TestNewHistory_EmbedsAnswer(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	got := NewHistory([]domain.ChatExchange{
		{Chat: domain.Chat{ID: 2, Message: "hi", CreatedAt: now}, Answer: domain.Answer{ID: 9, Answer: "yo", LLMProvider: "fallback", CreatedAt: now}},
		{Chat: domain.Chat{ID: 1, Message: "orphan"}},
	})
	if len(got) != 2 || len(got[0].Answers) != 1 || got[0].Answers[0].LLMProvider != "fallback" {
		t.Fatalf("unexpected history: %+v", got)
	}
	if got[1].Answers == nil || len(got[1].Answers) != 0 {
		t.Fatalf("answers must be an empty list, not null: %+v", got[1])
	}
}

func TestUpdateFAQRequest_Patch_KeepsAbsentFieldsNil(t *testing.T) {
	var r UpdateFAQRequest
	if err := json.Unmarshal([]byte(`{"answer":"new"}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	p := r.Patch()
	if p.Question != nil || p.Answer == nil || *p.Answer != "new" || p.IsActive != nil {
		t.Fatalf("unexpected patch: %+v", p)
	}
}
