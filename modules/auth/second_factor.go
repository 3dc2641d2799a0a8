package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kavach-security/kavach/pkg/logger"
	"github.com/kavach-security/kavach/pkg/totp"
)

// CompleteSecondFactor trades a live challenge plus a TOTP or recovery
// code for a session token. Every failure surfaces as ErrInvalidCode: a
// missing, consumed, or expired challenge behaves exactly like a wrong
// code. The challenge stays alive after a failed attempt; retry bounds
// are enforced by the transport rate limiter.
func (s *Service) CompleteSecondFactor(ctx context.Context, challengeID, code string) (*LoginResult, error) {
	id, err := uuid.Parse(challengeID)
	if err != nil {
		return nil, ErrInvalidCode
	}

	challenge, err := s.challenges.GetChallenge(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNoPendingAuth) {
			return nil, ErrInvalidCode
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}
	if s.now().After(challenge.ExpiresAt) {
		return nil, ErrInvalidCode
	}

	account, err := s.accounts.GetAccountByID(ctx, challenge.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}
	if !account.TwoFactorEnabled {
		return nil, ErrInvalidCode
	}

	ok, err := s.verifySecondFactor(ctx, account, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCode
	}

	if err := s.challenges.DeleteChallenge(ctx, id); err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}

	token, err := s.issueSession(account)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "second factor verified",
		logger.UserID(account.ID.String()),
		logger.Component("auth"),
	)

	return &LoginResult{Status: StatusGranted, Token: token}, nil
}

// verifySecondFactor tries the TOTP verifier first and falls back to
// recovery code redemption. Storage errors propagate; every other
// failure returns false.
func (s *Service) verifySecondFactor(ctx context.Context, account *Account, code string) (bool, error) {
	ok, err := s.verifyTOTP(ctx, account, code)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	return s.redeemRecoveryCode(ctx, account, code)
}

// verifyTOTP validates the code against the account secret and claims
// the matched time step. A code from an already-used step is rejected.
func (s *Service) verifyTOTP(ctx context.Context, account *Account, code string) (bool, error) {
	secret, err := totp.DecryptSecret(account.TwoFactorSecret, s.encryptionKey)
	if err != nil {
		return false, errors.Join(ErrStorageFailure, err)
	}

	step, ok, err := totp.ValidateCodeAt(secret, code, s.now())
	if err != nil || !ok {
		// Malformed codes fail verification without surfacing a distinct
		// error.
		return false, nil
	}

	claimed, err := s.accounts.ConsumeTOTPStep(ctx, account.ID, step)
	if err != nil {
		return false, errors.Join(ErrStorageFailure, err)
	}
	if !claimed {
		s.logger.WarnContext(ctx, "totp step replay rejected",
			logger.UserID(account.ID.String()),
			slog.Int64("step", step),
			logger.Component("auth"),
		)
	}
	return claimed, nil
}

// redeemRecoveryCode scans the whole stored set in constant time before
// acting on the result, then removes the matched hash atomically.
func (s *Service) redeemRecoveryCode(ctx context.Context, account *Account, code string) (bool, error) {
	submitted := totp.HashRecoveryCode(code)

	// No early exit: every stored hash is compared so timing does not
	// reveal which entry matched.
	matched := ""
	for _, hash := range account.RecoveryCodeHashes {
		if subtle.ConstantTimeCompare([]byte(submitted), []byte(hash)) == 1 {
			matched = hash
		}
	}
	if matched == "" {
		return false, nil
	}

	removed, err := s.accounts.ConsumeRecoveryCode(ctx, account.ID, matched)
	if err != nil {
		return false, errors.Join(ErrStorageFailure, err)
	}
	if removed {
		s.logger.InfoContext(ctx, "recovery code redeemed",
			logger.UserID(account.ID.String()),
			logger.Component("auth"),
		)
	}
	return removed, nil
}
