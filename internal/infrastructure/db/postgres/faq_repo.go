package postgres

import (
	"context"
	"database/sql"

	"github.com/baechuer/chatcpe-service/internal/application/faq"
	"github.com/baechuer/chatcpe-service/internal/domain"
)

const faqColumns = `id, question, answer, category, display_order, is_active, created_at, updated_at`

type FAQRepo struct {
	db *sql.DB
}

func NewFAQRepo(db *sql.DB) *FAQRepo {
	return &FAQRepo{db: db}
}

var _ faq.Repo = (*FAQRepo)(nil)

func scanFAQ(row rowScanner) (domain.FAQ, error) {
	var (
		f   domain.FAQ
		cat sql.NullString
	)
	err := row.Scan(&f.ID, &f.Question, &f.Answer, &cat, &f.DisplayOrder, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if cat.Valid {
		s := cat.String
		f.Category = &s
	}
	return f, err
}

func nullableCategory(c *string) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *c, Valid: true}
}

func (r *FAQRepo) List(ctx context.Context, active *bool) ([]domain.FAQ, error) {
	const q = `
SELECT ` + faqColumns + `
FROM faqs
WHERE ($1::boolean IS NULL OR is_active = $1)
ORDER BY display_order ASC, created_at ASC, id ASC;
`
	var filter sql.NullBool
	if active != nil {
		filter = sql.NullBool{Bool: *active, Valid: true}
	}

	rows, err := r.db.QueryContext(ctx, q, filter)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	out := make([]domain.FAQ, 0)
	for rows.Next() {
		f, err := scanFAQ(rows)
		if err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func (r *FAQRepo) Get(ctx context.Context, id int64) (domain.FAQ, error) {
	const q = `SELECT ` + faqColumns + ` FROM faqs WHERE id = $1;`

	f, err := scanFAQ(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if isNoRows(err) {
			return domain.FAQ{}, domain.ErrFAQNotFound()
		}
		return domain.FAQ{}, domain.ErrDBUnavailable(err)
	}
	return f, nil
}

func (r *FAQRepo) Create(ctx context.Context, f domain.FAQ) (domain.FAQ, error) {
	const q = `
INSERT INTO faqs (question, answer, category, display_order, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + faqColumns + `;
`
	out, err := scanFAQ(r.db.QueryRowContext(ctx, q,
		f.Question, f.Answer, nullableCategory(f.Category), f.DisplayOrder, f.IsActive,
	))
	if err != nil {
		return domain.FAQ{}, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func (r *FAQRepo) Update(ctx context.Context, f domain.FAQ) (domain.FAQ, error) {
	const q = `
UPDATE faqs
SET question = $2,
    answer = $3,
    category = $4,
    display_order = $5,
    is_active = $6,
    updated_at = NOW()
WHERE id = $1
RETURNING ` + faqColumns + `;
`
	out, err := scanFAQ(r.db.QueryRowContext(ctx, q,
		f.ID, f.Question, f.Answer, nullableCategory(f.Category), f.DisplayOrder, f.IsActive,
	))
	if err != nil {
		if isNoRows(err) {
			return domain.FAQ{}, domain.ErrFAQNotFound()
		}
		return domain.FAQ{}, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func (r *FAQRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM faqs WHERE id = $1;`, id)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrFAQNotFound()
	}
	return nil
}
