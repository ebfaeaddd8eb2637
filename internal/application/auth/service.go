package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

type Service struct {
	users  UserRepo
	hasher PasswordHasher
	signer TokenSigner
	mailer Mailer

	accessTTL      time.Duration
	verifyTokenTTL time.Duration
	allowedDomains map[string]struct{}
	verifyURL      func(rawToken string) string

	now   func() time.Time
	audit func(action string, fields map[string]string)
}

type Config struct {
	AccessTTL           time.Duration
	VerifyTokenTTL      time.Duration
	AllowedEmailDomains []string
	// VerifyURL builds the link mailed to the user from the raw token.
	VerifyURL func(rawToken string) string
}

func NewService(
	users UserRepo,
	hasher PasswordHasher,
	signer TokenSigner,
	mailer Mailer,
	cfg Config,
) *Service {
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	verifyTTL := cfg.VerifyTokenTTL
	if verifyTTL <= 0 {
		verifyTTL = 24 * time.Hour
	}
	domains := map[string]struct{}{}
	for _, d := range cfg.AllowedEmailDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			domains[d] = struct{}{}
		}
	}
	verifyURL := cfg.VerifyURL
	if verifyURL == nil {
		verifyURL = func(raw string) string { return "/auth/verify?token=" + raw }
	}

	return &Service{
		users:  users,
		hasher: hasher,
		signer: signer,
		mailer: mailer,

		accessTTL:      accessTTL,
		verifyTokenTTL: verifyTTL,
		allowedDomains: domains,
		verifyURL:      verifyURL,

		now:   time.Now,
		audit: func(string, map[string]string) {},
	}
}

func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// AuthTokens is the common token output for handlers/DTO mapping.
type AuthTokens struct {
	AccessToken string
	ExpiresIn   int64  // seconds
	TokenType   string // "bearer"
}

type LoginResult struct {
	User   domain.User
	Tokens AuthTokens
}

func (s *Service) issueTokens(u domain.User) (AuthTokens, error) {
	access, err := s.signer.SignAccessToken(u.ID, u.Role, s.accessTTL)
	if err != nil {
		return AuthTokens{}, domain.ErrTokenSignFailed(err)
	}
	return AuthTokens{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.accessTTL.Seconds()),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}

// newOpaqueToken returns a URL-safe opaque token.
func newOpaqueToken(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		return "", errors.New("invalid token length")
	}
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken is the stored form of a verification token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
