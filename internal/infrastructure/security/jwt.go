package security

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/chatcpe-service/internal/application/auth"
	"github.com/baechuer/chatcpe-service/internal/domain"
)

type JWTSigner struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewJWTSigner(secret string, issuer string) *JWTSigner {
	return &JWTSigner{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

// WithClock overrides the time source used for iat/exp.
func (s *JWTSigner) WithClock(now func() time.Time) *JWTSigner {
	if now != nil {
		s.now = now
	}
	return s
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) SignAccessToken(userID int64, role string, ttl time.Duration) (string, error) {
	if userID <= 0 {
		return "", domain.ErrTokenSignFailed(errors.New("non-positive user id"))
	}
	now := s.now()
	claims := accessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

func (s *JWTSigner) VerifyAccessToken(token string) (auth.TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithJSONNumber(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		// prevent alg confusion
		if t.Method != jwt.SigningMethodHS256 {
			return nil, domain.ErrTokenInvalid()
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return auth.TokenClaims{}, domain.ErrTokenExpired()
		}
		return auth.TokenClaims{}, domain.ErrTokenInvalid()
	}
	if !parsed.Valid {
		return auth.TokenClaims{}, domain.ErrTokenInvalid()
	}

	uid, ok := subjectToID(claims["sub"])
	if !ok {
		return auth.TokenClaims{}, domain.ErrTokenInvalid()
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return auth.TokenClaims{}, domain.ErrTokenInvalid()
	}

	role, _ := claims["role"].(string)
	return auth.TokenClaims{
		UserID: uid,
		Role:   role,
		Exp:    exp.Time,
	}, nil
}

// subjectToID accepts "42" or 42 and rejects anything that is not a
// positive integer.
func subjectToID(v any) (int64, bool) {
	var (
		id  int64
		err error
	)
	switch sub := v.(type) {
	case string:
		id, err = strconv.ParseInt(strings.TrimSpace(sub), 10, 64)
	case json.Number:
		id, err = sub.Int64()
	default:
		return 0, false
	}
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
