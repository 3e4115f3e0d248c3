package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockit/config"
	"stockit/errs"
	"stockit/models"
	"stockit/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Claims is the payload of both token kinds; Type tells them apart.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

type TokenService interface {
	GenerateTokens(ctx context.Context, user *models.User) (Tokens, error)
	// VerifyAccessToken returns the user id carried by a valid access token.
	VerifyAccessToken(token string) (uint, error)
	RefreshTokens(ctx context.Context, refreshToken string) (Tokens, error)
	// Revoke deletes the session of a refresh token and reports whether there
	// was a session store to delete it from.
	Revoke(ctx context.Context, refreshToken string) (bool, error)
}

type tokenService struct {
	cfg      config.SecConfig
	sessions repository.SessionStore
	now      func() time.Time
}

// NewTokenService builds the JWT issuer. sessions may be nil, in which case
// refresh tokens are stateless and cannot be revoked before they expire.
func NewTokenService(cfg config.SecConfig, sessions repository.SessionStore) TokenService {
	return &tokenService{cfg: cfg, sessions: sessions, now: time.Now}
}

func (s *tokenService) GenerateTokens(ctx context.Context, user *models.User) (Tokens, error) {
	access, err := s.sign(user.ID, user.Email, tokenTypeAccess, s.cfg.AccessTTL)
	if err != nil {
		return Tokens{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := s.sign(user.ID, user.Email, tokenTypeRefresh, s.cfg.RefreshTTL)
	if err != nil {
		return Tokens{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	if s.sessions != nil {
		if err := s.sessions.Save(ctx, refresh, user.ID, s.cfg.RefreshTTL); err != nil {
			return Tokens{}, fmt.Errorf("failed to store refresh token session: %w", err)
		}
	}

	return Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *tokenService) sign(userID uint, email, typ string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *tokenService) parse(tokenString, typ string) (*Claims, error) {
	if tokenString == "" {
		return nil, errs.Auth("Access token required")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errs.Wrap(errs.ErrAuth, "Token expired", err)
		}
		return nil, errs.Wrap(errs.ErrAuth, "Invalid token", err)
	}

	if claims.Type != typ || claims.UserID == 0 {
		return nil, errs.Auth("Invalid token")
	}
	return claims, nil
}

func (s *tokenService) VerifyAccessToken(token string) (uint, error) {
	claims, err := s.parse(token, tokenTypeAccess)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

func (s *tokenService) RefreshTokens(ctx context.Context, refreshToken string) (Tokens, error) {
	claims, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return Tokens{}, err
	}

	if s.sessions != nil {
		userID, err := s.sessions.UserID(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return Tokens{}, errs.Auth("Invalid token")
			}
			return Tokens{}, err
		}
		if userID != claims.UserID {
			return Tokens{}, errs.Auth("Invalid token")
		}
		if err := s.sessions.Delete(ctx, refreshToken); err != nil {
			return Tokens{}, fmt.Errorf("failed to delete old session: %w", err)
		}
	}

	return s.GenerateTokens(ctx, &models.User{ID: claims.UserID, Email: claims.Email})
}

func (s *tokenService) Revoke(ctx context.Context, refreshToken string) (bool, error) {
	if _, err := s.parse(refreshToken, tokenTypeRefresh); err != nil {
		return false, err
	}
	if s.sessions == nil {
		return false, nil
	}
	if err := s.sessions.Delete(ctx, refreshToken); err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return true, nil
}
