package auth

import (
	"context"
	"strings"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

// SetUserRole changes another user's role. Check order: caller must be admin
// (403), role must be known (400), target must exist (404).
func (s *Service) SetUserRole(ctx context.Context, actor domain.User, targetUserID int64, newRole string) (domain.User, error) {
	const action = "admin.set_user_role"

	newRole = strings.TrimSpace(newRole)

	audit := func(result string, err error, extra map[string]string) {
		fields := map[string]string{
			"actor_id":   idString(actor.ID),
			"actor_role": actor.Role,
			"target_id":  idString(targetUserID),
			"result":     result,
		}
		if err != nil {
			fields["error_code"] = domainCode(err)
		}
		for k, v := range extra {
			fields[k] = v
		}
		s.audit(action, fields)
	}

	// --- RBAC: admin only ---
	if err := Authorize(actor, domain.RoleAdmin); err != nil {
		audit("error", err, nil)
		return domain.User{}, err
	}

	// --- input validation ---
	if !domain.IsValidRole(newRole) {
		err := domain.ErrInvalidRole(newRole)
		audit("error", err, nil)
		return domain.User{}, err
	}

	// --- ensure target exists & get current role ---
	target, err := s.users.GetByID(ctx, targetUserID)
	if err != nil {
		audit("error", err, nil)
		return domain.User{}, err
	}

	// --- protect last admin ---
	if target.Role == string(domain.RoleAdmin) && newRole != string(domain.RoleAdmin) {
		cnt, err := s.users.CountByRole(ctx, string(domain.RoleAdmin))
		if err != nil {
			audit("error", err, nil)
			return domain.User{}, err
		}
		if cnt <= 1 {
			err := domain.ErrLastAdminProtected()
			audit("error", err, nil)
			return domain.User{}, err
		}
	}

	// --- apply change ---
	if err := s.users.SetRole(ctx, targetUserID, newRole); err != nil {
		audit("error", err, nil)
		return domain.User{}, err
	}

	audit("success", nil, map[string]string{
		"old_role": target.Role,
		"new_role": newRole,
	})
	target.Role = newRole
	return target, nil
}
