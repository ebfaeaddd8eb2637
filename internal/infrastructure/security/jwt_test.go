package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

const testIssuer = "chatcpe"

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func signRaw(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign raw: %v", err)
	}
	return tok
}

func TestJWTSigner_SignAndVerify_Success(t *testing.T) {
	t.Parallel()

	s := NewJWTSigner("secret", testIssuer)
	tok, err := s.SignAccessToken(42, "staff", 2*time.Minute)
	if err != nil {
		t.Fatalf("sign err: %v", err)
	}

	claims, err := s.VerifyAccessToken(tok)
	if err != nil {
		t.Fatalf("verify err: %v", err)
	}
	if claims.UserID != 42 || claims.Role != "staff" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Exp.IsZero() {
		t.Fatalf("expected exp to be set")
	}
}

func TestJWTSigner_Verify_NumericSubject_Accepted(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	s := NewJWTSigner("secret", testIssuer).WithClock(fixedClock(now))
	tok := signRaw(t, "secret", jwt.MapClaims{
		"sub": 7,
		"iss": testIssuer,
		"exp": now.Add(time.Hour).Unix(),
	})

	claims, err := s.VerifyAccessToken(tok)
	if err != nil {
		t.Fatalf("verify err: %v", err)
	}
	if claims.UserID != 7 {
		t.Fatalf("expected uid 7, got %d", claims.UserID)
	}
}

func TestJWTSigner_Verify_BadSubjects_ReturnTokenInvalid(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	s := NewJWTSigner("secret", testIssuer).WithClock(fixedClock(now))

	subs := []any{"abc", "0", "-3", "", 1.5, true, nil}
	for _, sub := range subs {
		claims := jwt.MapClaims{"iss": testIssuer, "exp": now.Add(time.Hour).Unix()}
		if sub != nil {
			claims["sub"] = sub
		}
		_, err := s.VerifyAccessToken(signRaw(t, "secret", claims))
		if !domain.Is(err, "token_invalid") {
			t.Fatalf("sub=%v: expected token_invalid, got %v", sub, err)
		}
	}
}

func TestJWTSigner_Verify_Expired_ReturnsTokenExpired(t *testing.T) {
	t.Parallel()

	issued := time.Unix(1_700_000_000, 0)
	s := NewJWTSigner("secret", testIssuer).WithClock(fixedClock(issued))
	tok, err := s.SignAccessToken(1, "user", time.Minute)
	if err != nil {
		t.Fatalf("sign err: %v", err)
	}

	// exactly at exp counts as expired
	s.WithClock(fixedClock(issued.Add(time.Minute)))
	if _, err := s.VerifyAccessToken(tok); !domain.Is(err, "token_expired") {
		t.Fatalf("expected token_expired at exp, got %v", err)
	}

	s.WithClock(fixedClock(issued.Add(59 * time.Second)))
	if _, err := s.VerifyAccessToken(tok); err != nil {
		t.Fatalf("expected valid before exp, got %v", err)
	}
}

func TestJWTSigner_Verify_MissingExp_ReturnsTokenInvalid(t *testing.T) {
	t.Parallel()

	s := NewJWTSigner("secret", testIssuer)
	tok := signRaw(t, "secret", jwt.MapClaims{"sub": "1", "iss": testIssuer})

	if _, err := s.VerifyAccessToken(tok); !domain.Is(err, "token_invalid") {
		t.Fatalf("expected token_invalid, got %v", err)
	}
}

func TestJWTSigner_Verify_WrongSecret_ReturnsTokenInvalid(t *testing.T) {
	t.Parallel()

	s1 := NewJWTSigner("secret1", testIssuer)
	s2 := NewJWTSigner("secret2", testIssuer)

	tok, err := s1.SignAccessToken(1, "user", time.Minute)
	if err != nil {
		t.Fatalf("sign err: %v", err)
	}
	if _, err := s2.VerifyAccessToken(tok); !domain.Is(err, "token_invalid") {
		t.Fatalf("expected token_invalid, got %v", err)
	}
}

func TestJWTSigner_Verify_WrongIssuer_ReturnsTokenInvalid(t *testing.T) {
	t.Parallel()

	other := NewJWTSigner("secret", "someone-else")
	tok, _ := other.SignAccessToken(1, "user", time.Minute)

	if _, err := NewJWTSigner("secret", testIssuer).VerifyAccessToken(tok); !domain.Is(err, "token_invalid") {
		t.Fatalf("expected token_invalid, got %v", err)
	}
}

func TestJWTSigner_Verify_AlgConfusion_Rejected(t *testing.T) {
	t.Parallel()

	claims := jwt.MapClaims{
		"sub": "1",
		"iss": testIssuer,
		"exp": time.Now().Add(time.Minute).Unix(),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	if _, err := NewJWTSigner("secret", testIssuer).VerifyAccessToken(unsigned); !domain.Is(err, "token_invalid") {
		t.Fatalf("expected token_invalid, got %v", err)
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign hs512: %v", err)
	}
	if _, err := NewJWTSigner("secret", testIssuer).VerifyAccessToken(hs512); !domain.Is(err, "token_invalid") {
		t.Fatalf("expected token_invalid for HS512, got %v", err)
	}
}

func TestJWTSigner_Verify_Garbage_ReturnsTokenInvalid(t *testing.T) {
	t.Parallel()

	s := NewJWTSigner("secret", testIssuer)
	for _, tok := range []string{"", "abc", strings.Repeat("x.", 3)} {
		if _, err := s.VerifyAccessToken(tok); !domain.Is(err, "token_invalid") {
			t.Fatalf("tok=%q: expected token_invalid, got %v", tok, err)
		}
	}
}

func TestJWTSigner_Sign_RejectsNonPositiveID(t *testing.T) {
	t.Parallel()

	if _, err := NewJWTSigner("secret", testIssuer).SignAccessToken(0, "user", time.Minute); !domain.Is(err, "token_sign_failed") {
		t.Fatalf("expected token_sign_failed, got %v", err)
	}
}
