package auth

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of AccountStore,
// EnrollmentStore, and ChallengeStore. It backs tests and the
// single-process development mode; pending records expire lazily on
// access.
type MemoryStore struct {
	mu          sync.RWMutex
	accounts    map[uuid.UUID]*Account
	byEmail     map[string]uuid.UUID
	enrollments map[uuid.UUID]memoryEnrollment
	challenges  map[uuid.UUID]memoryChallenge

	// now is swappable in tests.
	now func() time.Time
}

type memoryEnrollment struct {
	record    PendingEnrollment
	expiresAt time.Time
}

type memoryChallenge struct {
	record    PendingAuthentication
	expiresAt time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:    make(map[uuid.UUID]*Account),
		byEmail:     make(map[string]uuid.UUID),
		enrollments: make(map[uuid.UUID]memoryEnrollment),
		challenges:  make(map[uuid.UUID]memoryChallenge),
		now:         time.Now,
	}
}

// CreateAccount implements AccountStore.
func (m *MemoryStore) CreateAccount(_ context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[account.Email]; exists {
		return ErrEmailAlreadyExists
	}

	cp := cloneAccount(account)
	m.accounts[account.ID] = cp
	m.byEmail[account.Email] = account.ID
	return nil
}

// GetAccountByEmail implements AccountStore.
func (m *MemoryStore) GetAccountByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return cloneAccount(m.accounts[id]), nil
}

// GetAccountByID implements AccountStore.
func (m *MemoryStore) GetAccountByID(_ context.Context, id uuid.UUID) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

// UpdateTwoFactor implements AccountStore. The whole mutation happens
// under one lock acquisition, matching the single-UPDATE semantics of
// the SQL store.
func (m *MemoryStore) UpdateTwoFactor(_ context.Context, id uuid.UUID, upd TwoFactorUpdate, lastStep int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}

	account.TwoFactorEnabled = upd.Enabled
	account.TwoFactorSecret = upd.EncryptedSecret
	account.RecoveryCodeHashes = slices.Clone(upd.RecoveryCodeHashes)
	account.LastTOTPStep = lastStep
	account.UpdatedAt = m.now()
	return nil
}

// ConsumeTOTPStep implements AccountStore.
func (m *MemoryStore) ConsumeTOTPStep(_ context.Context, id uuid.UUID, step int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return false, ErrAccountNotFound
	}
	if step <= account.LastTOTPStep {
		return false, nil
	}
	account.LastTOTPStep = step
	account.UpdatedAt = m.now()
	return true, nil
}

// ConsumeRecoveryCode implements AccountStore.
func (m *MemoryStore) ConsumeRecoveryCode(_ context.Context, id uuid.UUID, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return false, ErrAccountNotFound
	}

	idx := slices.Index(account.RecoveryCodeHashes, hash)
	if idx < 0 {
		return false, nil
	}
	account.RecoveryCodeHashes = slices.Delete(account.RecoveryCodeHashes, idx, idx+1)
	account.UpdatedAt = m.now()
	return true, nil
}

// ReplaceRecoveryCodes implements AccountStore.
func (m *MemoryStore) ReplaceRecoveryCodes(_ context.Context, id uuid.UUID, hashes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	if !account.TwoFactorEnabled {
		return ErrTwoFactorNotEnabled
	}
	account.RecoveryCodeHashes = slices.Clone(hashes)
	account.UpdatedAt = m.now()
	return nil
}

// SaveEnrollment implements EnrollmentStore.
func (m *MemoryStore) SaveEnrollment(_ context.Context, enrollment PendingEnrollment, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enrollments[enrollment.AccountID] = memoryEnrollment{
		record:    enrollment,
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// GetEnrollment implements EnrollmentStore.
func (m *MemoryStore) GetEnrollment(_ context.Context, accountID uuid.UUID) (*PendingEnrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.enrollments[accountID]
	if !ok {
		return nil, ErrNoPendingEnrollment
	}
	if m.now().After(entry.expiresAt) {
		delete(m.enrollments, accountID)
		return nil, ErrNoPendingEnrollment
	}
	record := entry.record
	return &record, nil
}

// DeleteEnrollment implements EnrollmentStore.
func (m *MemoryStore) DeleteEnrollment(_ context.Context, accountID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.enrollments, accountID)
	return nil
}

// SaveChallenge implements ChallengeStore.
func (m *MemoryStore) SaveChallenge(_ context.Context, challenge PendingAuthentication, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.challenges[challenge.ID] = memoryChallenge{
		record:    challenge,
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// GetChallenge implements ChallengeStore.
func (m *MemoryStore) GetChallenge(_ context.Context, id uuid.UUID) (*PendingAuthentication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.challenges[id]
	if !ok {
		return nil, ErrNoPendingAuth
	}
	if m.now().After(entry.expiresAt) {
		delete(m.challenges, id)
		return nil, ErrNoPendingAuth
	}
	record := entry.record
	return &record, nil
}

// DeleteChallenge implements ChallengeStore.
func (m *MemoryStore) DeleteChallenge(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.challenges, id)
	return nil
}

func cloneAccount(a *Account) *Account {
	cp := *a
	cp.PasswordHash = slices.Clone(a.PasswordHash)
	cp.RecoveryCodeHashes = slices.Clone(a.RecoveryCodeHashes)
	return &cp
}
