package domain

import "time"

type FAQ struct {
	ID           int64
	Question     string
	Answer       string
	Category     *string
	DisplayOrder int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FAQPatch carries a partial update; nil fields are left unchanged.
type FAQPatch struct {
	Question     *string
	Answer       *string
	Category     *string
	DisplayOrder *int
	IsActive     *bool
}

func (p FAQPatch) Apply(f FAQ) FAQ {
	if p.Question != nil {
		f.Question = *p.Question
	}
	if p.Answer != nil {
		f.Answer = *p.Answer
	}
	if p.Category != nil {
		f.Category = p.Category
	}
	if p.DisplayOrder != nil {
		f.DisplayOrder = *p.DisplayOrder
	}
	if p.IsActive != nil {
		f.IsActive = *p.IsActive
	}
	return f
}
