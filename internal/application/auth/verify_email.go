package auth

import (
	"context"
	"strings"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

type VerifyOutcome int

const (
	VerifyInvalid VerifyOutcome = iota
	VerifyAlreadyVerified
	VerifyExpired
	VerifySuccess
)

func (o VerifyOutcome) String() string {
	switch o {
	case VerifyAlreadyVerified:
		return "already_verified"
	case VerifyExpired:
		return "expired"
	case VerifySuccess:
		return "success"
	default:
		return "invalid"
	}
}

// VerifyEmail consumes a verification token. Business outcomes come back as
// a VerifyOutcome; the error is reserved for infrastructure failures.
func (s *Service) VerifyEmail(ctx context.Context, rawToken string) (VerifyOutcome, error) {
	const action = "auth.verify_email"

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return VerifyInvalid, nil
	}
	hash := HashToken(rawToken)

	u, err := s.users.GetByVerificationToken(ctx, hash)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			s.audit(action, map[string]string{"result": VerifyInvalid.String()})
			return VerifyInvalid, nil
		}
		return VerifyInvalid, err
	}

	if u.IsVerified {
		return VerifyAlreadyVerified, nil
	}

	// Expired links leave the record untouched so a resend can replace them.
	if u.VerificationSentAt == nil || s.now().Sub(*u.VerificationSentAt) > s.verifyTokenTTL {
		s.audit(action, map[string]string{"user_id": idString(u.ID), "result": VerifyExpired.String()})
		return VerifyExpired, nil
	}

	applied, err := s.users.MarkVerified(ctx, u.ID, hash)
	if err != nil {
		return VerifyInvalid, err
	}
	if !applied {
		// lost a race with a concurrent verification of the same link
		return VerifyAlreadyVerified, nil
	}

	s.audit(action, map[string]string{"user_id": idString(u.ID), "result": VerifySuccess.String()})
	return VerifySuccess, nil
}

// ResendVerification issues a fresh link for an unverified account.
// IMPORTANT: non-enumerating - unknown or already verified emails return nil.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return domain.ErrMissingField("email")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			return nil
		}
		return err
	}
	if u.IsVerified {
		return nil
	}

	raw, err := newOpaqueToken(32)
	if err != nil {
		return domain.ErrRandomFailed(err)
	}
	sentAt := s.now().UTC()

	err = s.users.WithTx(ctx, func(ctx context.Context, tx UserRepo) error {
		if err := tx.SetVerificationToken(ctx, u.ID, HashToken(raw), sentAt); err != nil {
			return err
		}
		if err := s.mailer.SendVerifyEmail(ctx, u.Email, u.Name, s.verifyURL(raw)); err != nil {
			return domain.ErrMailUnavailable(err)
		}
		return nil
	})

	fields := map[string]string{"user_id": idString(u.ID), "result": "success"}
	if err != nil {
		fields["result"] = "error"
		fields["error_code"] = domainCode(err)
	}
	s.audit("auth.verify_email.resend", fields)
	return err
}
