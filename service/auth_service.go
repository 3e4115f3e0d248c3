package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"stockit/errs"
	"stockit/models"
	"stockit/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type SignUpInput struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
}

type AuthResult struct {
	User   *models.User
	Wallet *models.Wallet
	Tokens Tokens
}

type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (Tokens, error)
	// Logout reports whether a stored session was revoked. Without a session
	// store refresh tokens stay valid until they expire.
	Logout(ctx context.Context, refreshToken string) (bool, error)
}

type authService struct {
	db              *gorm.DB
	users           repository.UsersRepository
	tokens          TokenService
	startingBalance decimal.Decimal
	bcryptCost      int
	log             *slog.Logger
}

func NewAuthService(
	db *gorm.DB,
	tokens TokenService,
	startingBalance decimal.Decimal,
	bcryptCost int,
	log *slog.Logger,
) AuthService {
	return &authService{
		db:              db,
		users:           repository.NewUsersRepository(db),
		tokens:          tokens,
		startingBalance: startingBalance,
		bcryptCost:      bcryptCost,
		log:             log,
	}
}

func (s *authService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	const op = "service.SignUp"

	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	if in.FullName == "" || in.Email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, errs.Validation("All fields are required")
	}
	if in.Password != in.ConfirmPassword {
		return nil, errs.Validation("Passwords do not match")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, errs.Wrap(errs.ErrValidation, "Password must be at most 72 bytes", err)
		}
		return nil, fmt.Errorf("%s: error hashing password: %w", op, err)
	}

	user := &models.User{FullName: in.FullName, Email: in.Email, Password: string(hashed)}
	wallet := &models.Wallet{Balance: s.startingBalance, TotalInvested: decimal.Zero}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUsersRepository(tx).Create(ctx, user); err != nil {
			return err
		}
		wallet.UserID = user.ID
		return repository.NewWalletsRepository(tx).Create(ctx, wallet)
	})
	if err != nil {
		if !errors.Is(err, errs.ErrConflict) {
			s.log.Error("sign up failed", "op", op, "error", err)
		}
		return nil, err
	}

	tokens, err := s.tokens.GenerateTokens(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", "op", op, "userID", user.ID)
	return &AuthResult{User: user, Wallet: wallet, Tokens: tokens}, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	const op = "service.SignIn"

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errs.Validation("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.Auth("Invalid email or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.log.Warn("wrong password", "op", op, "userID", user.ID)
		return nil, errs.Auth("Invalid email or password")
	}

	tokens, err := s.tokens.GenerateTokens(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &AuthResult{User: user, Tokens: tokens}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	if refreshToken == "" {
		return Tokens{}, errs.Validation("Refresh token is required")
	}
	return s.tokens.RefreshTokens(ctx, refreshToken)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) (bool, error) {
	if refreshToken == "" {
		return false, errs.Validation("Refresh token is required")
	}
	return s.tokens.Revoke(ctx, refreshToken)
}
