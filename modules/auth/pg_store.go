package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kavach-security/kavach/pkg/pg"
)

// PGAccountStore is the Postgres AccountStore. Every two-factor
// mutation is a single UPDATE with its precondition in the WHERE
// clause, so no read-modify-write race is possible.
type PGAccountStore struct {
	pool *pgxpool.Pool
}

// NewPGAccountStore wraps a connected pool.
func NewPGAccountStore(pool *pgxpool.Pool) *PGAccountStore {
	return &PGAccountStore{pool: pool}
}

const accountColumns = `id, email, password_hash, two_factor_enabled, two_factor_secret,
	recovery_code_hashes, last_totp_step, created_at, updated_at`

// CreateAccount implements AccountStore.
func (s *PGAccountStore) CreateAccount(ctx context.Context, account *Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		account.ID, account.Email, account.PasswordHash, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// GetAccountByEmail implements AccountStore.
func (s *PGAccountStore) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	return s.scanAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

// GetAccountByID implements AccountStore.
func (s *PGAccountStore) GetAccountByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.scanAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (s *PGAccountStore) scanAccount(ctx context.Context, query string, arg any) (*Account, error) {
	var account Account
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.TwoFactorEnabled,
		&account.TwoFactorSecret,
		&account.RecoveryCodeHashes,
		&account.LastTOTPStep,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return &account, nil
}

// UpdateTwoFactor implements AccountStore.
func (s *PGAccountStore) UpdateTwoFactor(ctx context.Context, id uuid.UUID, upd TwoFactorUpdate, lastStep int64) error {
	hashes := upd.RecoveryCodeHashes
	if hashes == nil {
		hashes = []string{}
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts
		SET two_factor_enabled = $2,
		    two_factor_secret = $3,
		    recovery_code_hashes = $4,
		    last_totp_step = $5,
		    updated_at = now()
		WHERE id = $1`,
		id, upd.Enabled, upd.EncryptedSecret, hashes, lastStep,
	)
	if err != nil {
		return fmt.Errorf("failed to update two-factor state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ConsumeTOTPStep implements AccountStore. The step comparison lives in
// the WHERE clause; a concurrent claim of the same step leaves exactly
// one winner.
func (s *PGAccountStore) ConsumeTOTPStep(ctx context.Context, id uuid.UUID, step int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts
		SET last_totp_step = $2, updated_at = now()
		WHERE id = $1 AND last_totp_step < $2`,
		id, step,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim totp step: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ConsumeRecoveryCode implements AccountStore.
func (s *PGAccountStore) ConsumeRecoveryCode(ctx context.Context, id uuid.UUID, hash string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts
		SET recovery_code_hashes = array_remove(recovery_code_hashes, $2),
		    updated_at = now()
		WHERE id = $1 AND $2 = ANY(recovery_code_hashes)`,
		id, hash,
	)
	if err != nil {
		return false, fmt.Errorf("failed to redeem recovery code: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReplaceRecoveryCodes implements AccountStore.
func (s *PGAccountStore) ReplaceRecoveryCodes(ctx context.Context, id uuid.UUID, hashes []string) error {
	if hashes == nil {
		hashes = []string{}
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts
		SET recovery_code_hashes = $2, updated_at = now()
		WHERE id = $1 AND two_factor_enabled`,
		id, hashes,
	)
	if err != nil {
		return fmt.Errorf("failed to replace recovery codes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the account is missing or two-factor is off; the caller
		// checked existence already.
		if _, lookupErr := s.GetAccountByID(ctx, id); lookupErr != nil {
			return lookupErr
		}
		return ErrTwoFactorNotEnabled
	}
	return nil
}

var _ AccountStore = (*PGAccountStore)(nil)
