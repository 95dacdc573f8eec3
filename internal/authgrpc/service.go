package authgrpc

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServer is the gRPC control-plane collaborator of spec.md §6:
// Authenticate/Refresh/Logout minting JWT HS256 token pairs.
type AuthServer interface {
	Authenticate(ctx context.Context, req *LoginRequest) (*TokenPair, error)
	Refresh(ctx context.Context, req *RefreshRequest) (*TokenPair, error)
	Logout(ctx context.Context, req *LogoutRequest) (*Ack, error)
}

// Service implements AuthServer against a TokenStore and an optional
// SocialExchanger.
type Service struct {
	signer *signer
	store  TokenStore
	social SocialExchanger
	log    zerolog.Logger
}

// NewService constructs a Service. jwtSecret must be at least 256 bits,
// per spec.md §6 (callers should validate this via config.Load before
// reaching here).
func NewService(jwtSecret string, store TokenStore, social SocialExchanger, log zerolog.Logger) *Service {
	if social == nil {
		social = NewNoSocialExchanger()
	}
	return &Service{signer: newSigner(jwtSecret), store: store, social: social, log: log}
}

// Authenticate implements username/password and social login, per
// spec.md §6.
func (s *Service) Authenticate(ctx context.Context, req *LoginRequest) (*TokenPair, error) {
	var user UserRecord
	var err error

	if req.Provider != "" {
		identity, exErr := s.social.Exchange(ctx, req.Provider, req.ProviderToken)
		if exErr != nil {
			return nil, exErr
		}
		user, err = s.store.UpsertSocialUser(ctx, req.Provider, identity.ProviderID, identity.Email, identity.ProfileImage)
	} else {
		user, err = s.store.UserByUsername(ctx, req.Username)
		if err == nil && user.PasswordHash != HashToken(req.Password) {
			err = ErrBadCredentials
		}
	}
	if err != nil {
		return nil, err
	}

	return s.issuePair(ctx, user)
}

// Refresh rotates a refresh token for a fresh pair, per spec.md §6.
// The presented refresh token is revoked on success so it cannot be
// replayed (rotation-on-use).
func (s *Service) Refresh(ctx context.Context, req *RefreshRequest) (*TokenPair, error) {
	claims, err := s.signer.verify(req.RefreshToken, audienceRefresh)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.TokenByHash(ctx, HashToken(req.RefreshToken))
	if err != nil {
		return nil, err
	}

	user, err := s.store.UserByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	if err := s.store.RevokeToken(ctx, rec.TokenID); err != nil {
		return nil, err
	}

	return s.issuePair(ctx, user)
}

// Logout revokes the refresh token associated with an access token's
// session (identified by the shared jti), per spec.md §6.
func (s *Service) Logout(ctx context.Context, req *LogoutRequest) (*Ack, error) {
	claims, err := s.signer.verify(req.AccessToken, audienceAccess)
	if err != nil {
		return nil, err
	}
	if err := s.store.RevokeToken(ctx, claims.ID); err != nil {
		return nil, err
	}
	return &Ack{Success: true}, nil
}

func (s *Service) issuePair(ctx context.Context, user UserRecord) (*TokenPair, error) {
	jti := uuid.NewString()

	access, err := s.signer.mint(user.UserID, jti, user.Username, user.Nickname, "player", AccessTokenTTL, audienceAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := s.signer.mint(user.UserID, jti, user.Username, user.Nickname, "player", RefreshTokenTTL, audienceRefresh)
	if err != nil {
		return nil, err
	}

	if err := s.store.InsertToken(ctx, TokenRecord{
		TokenID: jti, UserID: user.UserID, TokenType: "refresh",
		TokenHash: HashToken(refresh), ExpiresAt: time.Now().Add(RefreshTokenTTL),
	}); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: int64(AccessTokenTTL.Seconds())}, nil
}

// VerifyAccessToken validates an access token and returns the bound
// player id and nickname, the TokenVerifier shape the TCP/UDP pipelines
// inject for their own Authenticate handlers.
func (s *Service) VerifyAccessToken(accessToken string) (playerID int64, nickname string, err error) {
	claims, err := s.signer.verify(accessToken, audienceAccess)
	if err != nil {
		return 0, "", err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, "", ErrTokenInvalid
	}
	return id, claims.Nickname, nil
}
