package auth

import (
	"context"
	"strings"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Register creates an unverified account and mails its verification link.
// The insert and the send share one transaction: no mail, no account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	const action = "auth.register"

	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	if name == "" {
		return domain.User{}, domain.ErrMissingField("name")
	}
	if email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}
	if in.Password == "" {
		return domain.User{}, domain.ErrMissingField("password")
	}
	if in.Password != in.ConfirmPassword {
		return domain.User{}, domain.ErrPasswordMismatch()
	}

	host := emailDomain(email)
	if host == "" {
		return domain.User{}, domain.ErrInvalidField("email", "invalid format")
	}
	if _, ok := s.allowedDomains[host]; !ok {
		return domain.User{}, domain.ErrEmailDomainNotAllowed(host)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, domain.ErrEmailAlreadyExists()
	} else if !domain.Is(err, "user_not_found") {
		return domain.User{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, domain.ErrHashFailed(err)
	}

	raw, err := newOpaqueToken(32)
	if err != nil {
		return domain.User{}, domain.ErrRandomFailed(err)
	}
	sentAt := s.now().UTC()

	var created domain.User
	err = s.users.WithTx(ctx, func(ctx context.Context, tx UserRepo) error {
		u, err := tx.Create(ctx, domain.User{
			Name:               name,
			Email:              email,
			PasswordHash:       hash,
			Role:               string(domain.RoleUser),
			IsVerified:         false,
			VerificationToken:  HashToken(raw),
			VerificationSentAt: &sentAt,
		})
		if err != nil {
			return err
		}
		if err := s.mailer.SendVerifyEmail(ctx, u.Email, u.Name, s.verifyURL(raw)); err != nil {
			return domain.ErrMailUnavailable(err)
		}
		created = u
		return nil
	})
	if err != nil {
		s.audit(action, map[string]string{"email": email, "result": "error", "error_code": domainCode(err)})
		return domain.User{}, err
	}

	s.audit(action, map[string]string{"user_id": idString(created.ID), "result": "success"})
	return created, nil
}
