package authgrpc

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes, per spec.md §6.
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 30 * 24 * time.Hour
)

// Claims is the JWT payload shape spec.md §6 specifies:
// {sub, username, nickname, role, exp, iat, jti}.
type Claims struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

var (
	ErrTokenExpired    = errors.New("authgrpc: token expired")
	ErrTokenInvalid    = errors.New("authgrpc: token invalid")
	ErrWrongTokenType  = errors.New("authgrpc: wrong token type for this operation")
)

// audienceAccess and audienceRefresh tell an access token's audience
// claim from a refresh token's, so a refresh token can never be used as
// an access token or vice-versa.
const (
	audienceAccess  = "access"
	audienceRefresh = "refresh"
)

// signer mints and verifies HS256 tokens with a shared secret, per
// spec.md §6.
type signer struct {
	secret []byte
}

func newSigner(secret string) *signer { return &signer{secret: []byte(secret)} }

func (s *signer) mint(userID, jti, username, nickname, role string, ttl time.Duration, audience string) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		Nickname: nickname,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  jwt.ClaimStrings{audience},
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

func (s *signer) verify(tokenStr, wantAudience string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}
	if len(claims.Audience) == 0 || claims.Audience[0] != wantAudience {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
