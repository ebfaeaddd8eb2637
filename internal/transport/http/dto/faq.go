package dto

import (
	"time"

	"github.com/baechuer/chatcpe-service/internal/application/faq"
	"github.com/baechuer/chatcpe-service/internal/domain"
)

type CreateFAQRequest struct {
	Question     string  `json:"question" validate:"required"`
	Answer       string  `json:"answer" validate:"required"`
	Category     *string `json:"category,omitempty" validate:"omitempty,max=100"`
	DisplayOrder int     `json:"display_order" validate:"gte=0"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

func (r CreateFAQRequest) Input() faq.CreateInput {
	return faq.CreateInput{
		Question:     r.Question,
		Answer:       r.Answer,
		Category:     r.Category,
		DisplayOrder: r.DisplayOrder,
		IsActive:     r.IsActive,
	}
}

// UpdateFAQRequest is a partial update; absent fields are kept.
type UpdateFAQRequest struct {
	Question     *string `json:"question,omitempty"`
	Answer       *string `json:"answer,omitempty"`
	Category     *string `json:"category,omitempty" validate:"omitempty,max=100"`
	DisplayOrder *int    `json:"display_order,omitempty" validate:"omitempty,gte=0"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

func (r UpdateFAQRequest) Patch() domain.FAQPatch {
	return domain.FAQPatch{
		Question:     r.Question,
		Answer:       r.Answer,
		Category:     r.Category,
		DisplayOrder: r.DisplayOrder,
		IsActive:     r.IsActive,
	}
}

type FAQView struct {
	ID           int64     `json:"id"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	Category     *string   `json:"category"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewFAQView(f domain.FAQ) FAQView {
	return FAQView{
		ID:           f.ID,
		Question:     f.Question,
		Answer:       f.Answer,
		Category:     f.Category,
		DisplayOrder: f.DisplayOrder,
		IsActive:     f.IsActive,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

func NewFAQList(list []domain.FAQ) []FAQView {
	out := make([]FAQView, 0, len(list))
	for _, f := range list {
		out = append(out, NewFAQView(f))
	}
	return out
}
