package auth

import (
	"context"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

// Login authenticates a user and issues an access token.
// IMPORTANT: must not leak whether the email exists (avoid user enumeration).
// The verification check runs only after the password matched, so a wrong
// password is always 401.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, domain.ErrInvalidCredentials()
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			return LoginResult{}, domain.ErrInvalidCredentials()
		}
		return LoginResult{}, err
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return LoginResult{}, domain.ErrInvalidCredentials()
	}

	if !u.IsVerified {
		return LoginResult{}, domain.ErrEmailNotVerified()
	}

	s.maybeRehash(ctx, u, password)

	toks, err := s.issueTokens(u)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: u, Tokens: toks}, nil
}

// maybeRehash upgrades legacy hashes after a successful login. Failures are
// audited and otherwise ignored; the old hash still verifies.
func (s *Service) maybeRehash(ctx context.Context, u domain.User, password string) {
	if !s.hasher.NeedsRehash(u.PasswordHash) {
		return
	}
	fields := map[string]string{"user_id": idString(u.ID)}

	newHash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, u.ID, newHash)
	}
	if err != nil {
		fields["result"] = "error"
		fields["error_code"] = domainCode(err)
	} else {
		fields["result"] = "success"
	}
	s.audit("auth.password_rehash", fields)
}
