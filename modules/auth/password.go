package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kavach-security/kavach/pkg/logger"
	"github.com/kavach-security/kavach/pkg/sanitizer"
	"github.com/kavach-security/kavach/pkg/validator"
)

// Register creates an account from email and password.
func (s *Service) Register(ctx context.Context, email, password string) (*Account, error) {
	email = sanitizer.NormalizeEmail(email)

	if err := validator.Apply(
		validator.Required("email", email),
		validator.ValidEmail("email", email),
		validator.StrongPassword("password", password, s.passwordStrength),
	); err != nil {
		return nil, err
	}

	_, err := s.accounts.GetAccountByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailAlreadyExists
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, errors.Join(ErrStorageFailure, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
		UpdatedAt:    s.now(),
	}

	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}

	s.logger.InfoContext(ctx, "account registered",
		logger.UserID(account.ID.String()),
		logger.Component("auth"),
	)

	return account, nil
}

// LoginStatus is the outcome of the primary-credential check.
type LoginStatus string

const (
	StatusGranted              LoginStatus = "granted"
	StatusSecondFactorRequired LoginStatus = "second_factor_required"
)

// LoginResult carries either a session token or a second-factor
// challenge, never both.
type LoginResult struct {
	Status LoginStatus
	// Token is set only when Status is StatusGranted.
	Token string
	// ChallengeID is set only when Status is StatusSecondFactorRequired.
	ChallengeID string
}

// Authenticate verifies the primary credential. Any failure returns
// ErrInvalidCredentials, identically whether the account exists, to
// prevent enumeration. With two-factor enabled it records a
// PendingAuthentication and returns a challenge instead of a token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*LoginResult, error) {
	email = sanitizer.NormalizeEmail(email)

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Burn a hash comparison so a missing account costs the same
			// as a wrong password.
			_ = bcrypt.CompareHashAndPassword(enumerationDecoyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}

	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !account.TwoFactorEnabled {
		token, err := s.issueSession(account)
		if err != nil {
			return nil, err
		}
		return &LoginResult{Status: StatusGranted, Token: token}, nil
	}

	challenge := PendingAuthentication{
		ID:        uuid.New(),
		AccountID: account.ID,
		ExpiresAt: s.now().Add(s.challengeTTL),
	}
	if err := s.challenges.SaveChallenge(ctx, challenge, s.challengeTTL); err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}

	s.logger.InfoContext(ctx, "second factor required",
		logger.UserID(account.ID.String()),
		slog.String("challenge_id", challenge.ID.String()),
		logger.Component("auth"),
	)

	return &LoginResult{
		Status:      StatusSecondFactorRequired,
		ChallengeID: challenge.ID.String(),
	}, nil
}

// enumerationDecoyHash is a valid bcrypt hash of random bytes, compared
// against when the email is unknown.
var enumerationDecoyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")
