package auth

import (
	"context"
	"strings"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

// Authorize is the single role gate. Handlers call it explicitly with the
// roles an endpoint accepts.
func Authorize(u domain.User, allowed ...domain.Role) error {
	if u.HasRole(allowed...) {
		return nil
	}
	names := make([]string, 0, len(allowed))
	for _, r := range allowed {
		names = append(names, string(r))
	}
	return domain.ErrInsufficientRole(strings.Join(names, "|"))
}

// Authenticate resolves a bearer token to the current user record.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.User, error) {
	claims, err := s.signer.VerifyAccessToken(token)
	if err != nil {
		return domain.User{}, err
	}
	if claims.UserID <= 0 {
		return domain.User{}, domain.ErrTokenInvalid()
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			return domain.User{}, domain.ErrUserVanished()
		}
		return domain.User{}, err
	}
	return u, nil
}

// UserExists reports whether id names a stored user.
func (s *Service) UserExists(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	_, err := s.users.GetByID(ctx, id)
	if err == nil {
		return true, nil
	}
	if domain.Is(err, "user_not_found") {
		return false, nil
	}
	return false, err
}
