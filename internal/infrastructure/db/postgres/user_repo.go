package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/baechuer/chatcpe-service/internal/application/auth"
	"github.com/baechuer/chatcpe-service/internal/domain"
)

type UserRepo struct {
	db *sql.DB // nil when bound to a transaction
	q  DBTX
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db, q: db}
}

var _ auth.UserRepo = (*UserRepo)(nil)

// ---------- helpers ----------

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepo) getOne(ctx context.Context, q string, args ...any) (domain.User, error) {
	ur, err := scanUser(r.q.QueryRowContext(ctx, q, args...))
	if err != nil {
		if isNoRows(err) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

func (r *UserRepo) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.q.ExecContext(ctx, q, args...)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrUserNotFound()
	}
	return nil
}

// ---------- auth.UserRepo ----------

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}

	const q = `
SELECT ` + userColumns + `
FROM users
WHERE email = $1
LIMIT 1;
`
	return r.getOne(ctx, q, email)
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	if id <= 0 {
		return domain.User{}, domain.ErrUserNotFound()
	}

	const q = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1
LIMIT 1;
`
	return r.getOne(ctx, q, id)
}

func (r *UserRepo) GetByVerificationToken(ctx context.Context, tokenHash string) (domain.User, error) {
	if tokenHash == "" {
		return domain.User{}, domain.ErrUserNotFound()
	}

	const q = `
SELECT ` + userColumns + `
FROM users
WHERE verification_token = $1 OR consumed_verification_token = $1
LIMIT 1;
`
	return r.getOne(ctx, q, tokenHash)
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	u.Email = normalizeEmail(u.Email)
	if u.Email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}
	if u.PasswordHash == "" {
		return domain.User{}, domain.ErrMissingField("password_hash")
	}
	if u.Role == "" {
		u.Role = string(domain.RoleUser)
	}

	const q = `
INSERT INTO users (name, email, password_hash, role, is_verified, verification_token, verification_sent_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + userColumns + `;
`
	ur, err := scanUser(r.q.QueryRowContext(ctx, q,
		u.Name, u.Email, u.PasswordHash, u.Role, u.IsVerified,
		nullString(u.VerificationToken), nullTime(u.VerificationSentAt),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrEmailAlreadyExists()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

func (r *UserRepo) UpdateName(ctx context.Context, userID int64, name string) (domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, domain.ErrMissingField("name")
	}

	const q = `
UPDATE users
SET name = $2
WHERE id = $1
RETURNING ` + userColumns + `;
`
	return r.getOne(ctx, q, userID, name)
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error {
	if newHash == "" {
		return domain.ErrMissingField("password_hash")
	}

	const q = `
UPDATE users
SET password_hash = $2
WHERE id = $1;
`
	return r.execOne(ctx, q, userID, newHash)
}

func (r *UserRepo) SetVerificationToken(ctx context.Context, userID int64, tokenHash string, sentAt time.Time) error {
	if tokenHash == "" {
		return domain.ErrMissingField("verification_token")
	}

	const q = `
UPDATE users
SET verification_token = $2,
    verification_sent_at = $3
WHERE id = $1;
`
	return r.execOne(ctx, q, userID, tokenHash, sentAt.UTC())
}

func (r *UserRepo) MarkVerified(ctx context.Context, userID int64, tokenHash string) (bool, error) {
	// The token predicate makes this a compare-and-set: of two concurrent
	// requests only one sees a row affected.
	const q = `
UPDATE users
SET is_verified = TRUE,
    consumed_verification_token = verification_token,
    verification_token = NULL,
    verification_sent_at = NULL
WHERE id = $1 AND verification_token = $2 AND is_verified = FALSE;
`
	res, err := r.q.ExecContext(ctx, q, userID, tokenHash)
	if err != nil {
		return false, domain.ErrDBUnavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.ErrDBUnavailable(err)
	}
	return n == 1, nil
}

func (r *UserRepo) SetRole(ctx context.Context, userID int64, role string) error {
	role = strings.TrimSpace(role)
	if !domain.IsValidRole(role) {
		return domain.ErrInvalidRole(role)
	}

	const q = `
UPDATE users
SET role = $2
WHERE id = $1;
`
	return r.execOne(ctx, q, userID, role)
}

func (r *UserRepo) CountByRole(ctx context.Context, role string) (int, error) {
	role = strings.TrimSpace(role)
	if !domain.IsValidRole(role) {
		return 0, domain.ErrInvalidRole(role)
	}

	const q = `SELECT COUNT(1) FROM users WHERE role = $1;`

	var n int
	if err := r.q.QueryRowContext(ctx, q, role).Scan(&n); err != nil {
		return 0, domain.ErrDBUnavailable(err)
	}
	return n, nil
}

func (r *UserRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx auth.UserRepo) error) error {
	if r.db == nil {
		return fn(ctx, r)
	}
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(ctx, &UserRepo{q: tx})
	})
	return asDomainErr(err)
}

// asDomainErr leaves domain errors alone and reports anything else (begin,
// commit) as the database being unavailable.
func asDomainErr(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.ErrDBUnavailable(err)
}
