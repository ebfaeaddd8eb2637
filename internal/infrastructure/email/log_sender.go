package email

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// LogSender stands in for SMTP in development. It records that a mail
// would have gone out but never logs the link, which carries the raw token.
//
// MAIL_FAKE_FAIL=1 makes every send fail, for exercising the rollback path.
type LogSender struct {
	lg zerolog.Logger
}

func NewLogSender(lg zerolog.Logger) *LogSender {
	return &LogSender{lg: lg.With().Str("component", "log_sender").Logger()}
}

func (s *LogSender) SendVerifyEmail(ctx context.Context, toEmail, name, url string) error {
	if fail := strings.TrimSpace(os.Getenv("MAIL_FAKE_FAIL")); fail == "1" || strings.EqualFold(fail, "true") {
		observeSend("verify", "log", errFakeFailure, 0)
		return errFakeFailure
	}
	s.lg.Info().
		Str("to_domain", domainOf(toEmail)).
		Msg("verification email suppressed (no SMTP configured)")
	observeSend("verify", "log", nil, 0)
	return nil
}

var errFakeFailure = errors.New("fake mail failure")

func domainOf(email string) string {
	if i := strings.LastIndexByte(email, '@'); i >= 0 {
		return email[i+1:]
	}
	return ""
}
