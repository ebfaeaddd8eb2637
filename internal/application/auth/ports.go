package auth

import (
	"context"
	"time"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

/*
UserRepo
--------
Persistence port for users (the credential store).
Only describes WHAT the auth service needs, not HOW it's stored.
*/
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	// GetByVerificationToken matches either the pending or the consumed hash.
	GetByVerificationToken(ctx context.Context, tokenHash string) (domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)

	UpdateName(ctx context.Context, userID int64, name string) (domain.User, error)
	UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error
	SetVerificationToken(ctx context.Context, userID int64, tokenHash string, sentAt time.Time) error
	// MarkVerified applies only while tokenHash is still pending; applied=false
	// means another request already consumed it.
	MarkVerified(ctx context.Context, userID int64, tokenHash string) (applied bool, err error)
	SetRole(ctx context.Context, userID int64, role string) error
	CountByRole(ctx context.Context, role string) (int, error)

	// WithTx runs fn against a repo bound to one transaction. fn's error
	// rolls everything back.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx UserRepo) error) error
}

/*
PasswordHasher
--------------
argon2id for new hashes, bcrypt accepted for verification.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
	NeedsRehash(hash string) bool
}

/*
TokenSigner
-----------
Issues and verifies access tokens (JWT).
Used by service + auth middleware.
*/
type TokenClaims struct {
	UserID int64
	Role   string
	Exp    time.Time
}

type TokenSigner interface {
	SignAccessToken(userID int64, role string, ttl time.Duration) (string, error)
	VerifyAccessToken(token string) (TokenClaims, error)
}

/*
Mailer
------
Delivers the verification link. Called inside the registration
transaction, so a failed send undoes the account.
*/
type Mailer interface {
	SendVerifyEmail(ctx context.Context, toEmail, name, url string) error
}
