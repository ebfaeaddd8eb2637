package faq

import (
	"context"
	"strings"

	"github.com/baechuer/chatcpe-service/internal/application/auth"
	"github.com/baechuer/chatcpe-service/internal/domain"
)

type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	Question     string
	Answer       string
	Category     *string
	DisplayOrder int
	IsActive     *bool // nil means active
}

func (s *Service) List(ctx context.Context, active *bool) ([]domain.FAQ, error) {
	return s.repo.List(ctx, active)
}

func (s *Service) Get(ctx context.Context, id int64) (domain.FAQ, error) {
	if id <= 0 {
		return domain.FAQ{}, domain.ErrFAQNotFound()
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, actor domain.User, in CreateInput) (domain.FAQ, error) {
	if err := auth.Authorize(actor, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return domain.FAQ{}, err
	}

	f := domain.FAQ{
		Question:     strings.TrimSpace(in.Question),
		Answer:       strings.TrimSpace(in.Answer),
		Category:     cleanCategory(in.Category),
		DisplayOrder: in.DisplayOrder,
		IsActive:     true,
	}
	if in.IsActive != nil {
		f.IsActive = *in.IsActive
	}
	if err := validate(f); err != nil {
		return domain.FAQ{}, err
	}
	return s.repo.Create(ctx, f)
}

// Update applies a partial change; absent fields keep their stored value.
func (s *Service) Update(ctx context.Context, actor domain.User, id int64, patch domain.FAQPatch) (domain.FAQ, error) {
	if err := auth.Authorize(actor, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return domain.FAQ{}, err
	}

	cur, err := s.Get(ctx, id)
	if err != nil {
		return domain.FAQ{}, err
	}

	next := patch.Apply(cur)
	next.Question = strings.TrimSpace(next.Question)
	next.Answer = strings.TrimSpace(next.Answer)
	next.Category = cleanCategory(next.Category)
	if err := validate(next); err != nil {
		return domain.FAQ{}, err
	}
	return s.repo.Update(ctx, next)
}

func (s *Service) Delete(ctx context.Context, actor domain.User, id int64) error {
	if err := auth.Authorize(actor, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return err
	}
	if id <= 0 {
		return domain.ErrFAQNotFound()
	}
	return s.repo.Delete(ctx, id)
}

func validate(f domain.FAQ) error {
	if f.Question == "" {
		return domain.ErrMissingField("question")
	}
	if f.Answer == "" {
		return domain.ErrMissingField("answer")
	}
	if f.DisplayOrder < 0 {
		return domain.ErrInvalidField("display_order", "must be >= 0")
	}
	return nil
}

func cleanCategory(c *string) *string {
	if c == nil {
		return nil
	}
	v := strings.TrimSpace(*c)
	if v == "" {
		return nil
	}
	return &v
}
