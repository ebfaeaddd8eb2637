package auth

import (
	"context"
	"strings"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

func (s *Service) UpdateProfile(ctx context.Context, userID int64, name string) (domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, domain.ErrMissingField("name")
	}
	return s.users.UpdateName(ctx, userID, name)
}
