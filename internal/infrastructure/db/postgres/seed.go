package postgres

import (
	"context"
	"strings"

	"github.com/baechuer/chatcpe-service/internal/domain"
	"github.com/baechuer/chatcpe-service/internal/logger"
)

type SeederHasher interface {
	Hash(password string) (string, error)
}

type SeederRepo interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
}

// SeedAdmin creates a verified admin account when both credentials are set.
// An existing account with that email is left as is, so restarts are safe.
func SeedAdmin(ctx context.Context, repo SeederRepo, hasher SeederHasher, email, password string) bool {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("seed admin: hash failed")
		return false
	}

	name := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		name = email[:i]
	}

	_, err = repo.Create(ctx, domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         string(domain.RoleAdmin),
		IsVerified:   true,
	})
	if err != nil {
		if !domain.Is(err, "email_already_exists") {
			logger.Logger.Warn().Err(err).Msg("seed admin: create failed")
		}
		return false
	}

	logger.Logger.Info().Str("email", email).Msg("seed admin created")
	return true
}
