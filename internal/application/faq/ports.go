package faq

import (
	"context"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

type Repo interface {
	// List returns FAQs ordered by display_order, then created_at.
	// A nil active lists everything.
	List(ctx context.Context, active *bool) ([]domain.FAQ, error)
	Get(ctx context.Context, id int64) (domain.FAQ, error)
	Create(ctx context.Context, f domain.FAQ) (domain.FAQ, error)
	Update(ctx context.Context, f domain.FAQ) (domain.FAQ, error)
	Delete(ctx context.Context, id int64) error
}
