package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kavach-security/kavach/pkg/logger"
	"github.com/kavach-security/kavach/pkg/qrcode"
	"github.com/kavach-security/kavach/pkg/totp"
)

// SetupResult is returned by RequestSetup so the client can display the
// QR code or the raw secret for manual entry. Nothing here is persisted
// on the account yet.
type SetupResult struct {
	Secret     string
	OtpauthURI string
	// QRCode is a data:image/png;base64 URL of the provisioning URI.
	QRCode string
}

// RequestSetup starts two-factor enrollment. It generates a candidate
// secret, stores it sealed in the ephemeral enrollment store, and hands
// the provisioning material back to the caller. Calling it again simply
// replaces the previous candidate. The Account record is not touched.
func (s *Service) RequestSetup(ctx context.Context, accountID uuid.UUID) (*SetupResult, error) {
	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}
	if account.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	secret, err := totp.GenerateSecretKey()
	if err != nil {
		return nil, err
	}

	uri, err := totp.ProvisioningURI(totp.KeyParams{
		Secret:      secret,
		AccountName: account.Email,
		Issuer:      s.issuer,
	})
	if err != nil {
		return nil, err
	}

	qr, err := qrcode.DataURL(uri, s.qrCodeSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}

	sealed, err := totp.EncryptSecret(secret, s.encryptionKey)
	if err != nil {
		return nil, err
	}

	enrollment := PendingEnrollment{
		AccountID:       account.ID,
		EncryptedSecret: sealed,
		CreatedAt:       s.now(),
	}
	if err := s.enrollments.SaveEnrollment(ctx, enrollment, s.enrollmentTTL); err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}

	s.logger.InfoContext(ctx, "two-factor setup started",
		logger.UserID(account.ID.String()),
		logger.Component("auth"),
	)

	return &SetupResult{Secret: secret, OtpauthURI: uri, QRCode: qr}, nil
}

// ConfirmSetup verifies a code against the candidate secret and, on
// success, promotes the candidate onto the account in a single atomic
// update together with a fresh recovery code set. The plaintext codes
// are returned exactly once. A failed code leaves both the candidate
// and the account untouched so the user can retry.
func (s *Service) ConfirmSetup(ctx context.Context, accountID uuid.UUID, code string) ([]string, error) {
	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}
	if account.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	enrollment, err := s.enrollments.GetEnrollment(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNoPendingEnrollment) {
			return nil, ErrInvalidCode
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}

	secret, err := totp.DecryptSecret(enrollment.EncryptedSecret, s.encryptionKey)
	if err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}

	step, ok, err := totp.ValidateCodeAt(secret, code, s.now())
	if err != nil || !ok {
		return nil, ErrInvalidCode
	}

	plainCodes, err := totp.GenerateRecoveryCodes(s.recoveryCodeCount)
	if err != nil {
		return nil, err
	}
	hashes := make([]string, len(plainCodes))
	for i, c := range plainCodes {
		hashes[i] = totp.HashRecoveryCode(c)
	}

	upd := TwoFactorUpdate{
		Enabled:            true,
		EncryptedSecret:    enrollment.EncryptedSecret,
		RecoveryCodeHashes: hashes,
	}
	// Recording the enrollment step blocks the same code from being
	// replayed at the first login.
	if err := s.accounts.UpdateTwoFactor(ctx, accountID, upd, step); err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}

	if err := s.enrollments.DeleteEnrollment(ctx, accountID); err != nil {
		s.logger.WarnContext(ctx, "failed to discard pending enrollment",
			logger.UserID(accountID.String()),
			logger.Error(err),
			logger.Component("auth"),
		)
	}

	s.logger.InfoContext(ctx, "two-factor enabled",
		logger.UserID(accountID.String()),
		logger.Component("auth"),
	)

	return plainCodes, nil
}

// Disable turns two-factor off. It requires a currently valid TOTP or
// recovery code, clears the secret and the enabled flag in one atomic
// update, and invalidates all outstanding recovery codes. Any pending
// enrollment is discarded.
func (s *Service) Disable(ctx context.Context, accountID uuid.UUID, code string) error {
	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return errors.Join(ErrStorageFailure, err)
	}
	if !account.TwoFactorEnabled {
		return ErrTwoFactorNotEnabled
	}

	ok, err := s.verifySecondFactor(ctx, account, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}

	if err := s.accounts.UpdateTwoFactor(ctx, accountID, TwoFactorUpdate{}, 0); err != nil {
		return errors.Join(ErrStorageFailure, err)
	}

	if err := s.enrollments.DeleteEnrollment(ctx, accountID); err != nil {
		s.logger.WarnContext(ctx, "failed to discard pending enrollment",
			logger.UserID(accountID.String()),
			logger.Error(err),
			logger.Component("auth"),
		)
	}

	s.logger.InfoContext(ctx, "two-factor disabled",
		logger.UserID(accountID.String()),
		logger.Component("auth"),
	)

	return nil
}

// RegenerateRecoveryCodes replaces the entire recovery code set. A valid
// TOTP or recovery code is required; old codes become invalid the moment
// the new set is written.
func (s *Service) RegenerateRecoveryCodes(ctx context.Context, accountID uuid.UUID, code string) ([]string, error) {
	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}
	if !account.TwoFactorEnabled {
		return nil, ErrTwoFactorNotEnabled
	}

	ok, err := s.verifySecondFactor(ctx, account, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCode
	}

	plainCodes, err := totp.GenerateRecoveryCodes(s.recoveryCodeCount)
	if err != nil {
		return nil, err
	}
	hashes := make([]string, len(plainCodes))
	for i, c := range plainCodes {
		hashes[i] = totp.HashRecoveryCode(c)
	}

	if err := s.accounts.ReplaceRecoveryCodes(ctx, accountID, hashes); err != nil {
		if errors.Is(err, ErrTwoFactorNotEnabled) {
			return nil, ErrTwoFactorNotEnabled
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}

	s.logger.InfoContext(ctx, "recovery codes regenerated",
		logger.UserID(accountID.String()),
		logger.Component("auth"),
	)

	return plainCodes, nil
}
