package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	enrollmentKeyPrefix = "auth:enrollment:"
	challengeKeyPrefix  = "auth:challenge:"
)

// RedisPendingStore keeps PendingEnrollment and PendingAuthentication
// records in Redis. TTL enforcement is native: an expired record is
// simply gone, so expiry and absence are indistinguishable by
// construction.
type RedisPendingStore struct {
	client redis.UniversalClient
}

// NewRedisPendingStore wraps a connected client.
func NewRedisPendingStore(client redis.UniversalClient) *RedisPendingStore {
	return &RedisPendingStore{client: client}
}

// SaveEnrollment implements EnrollmentStore. Overwrites any previous
// candidate for the same account.
func (s *RedisPendingStore) SaveEnrollment(ctx context.Context, enrollment PendingEnrollment, ttl time.Duration) error {
	payload, err := json.Marshal(enrollment)
	if err != nil {
		return fmt.Errorf("failed to marshal enrollment: %w", err)
	}
	if err := s.client.Set(ctx, enrollmentKeyPrefix+enrollment.AccountID.String(), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store enrollment: %w", err)
	}
	return nil
}

// GetEnrollment implements EnrollmentStore.
func (s *RedisPendingStore) GetEnrollment(ctx context.Context, accountID uuid.UUID) (*PendingEnrollment, error) {
	payload, err := s.client.Get(ctx, enrollmentKeyPrefix+accountID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoPendingEnrollment
		}
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}

	var enrollment PendingEnrollment
	if err := json.Unmarshal(payload, &enrollment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal enrollment: %w", err)
	}
	return &enrollment, nil
}

// DeleteEnrollment implements EnrollmentStore.
func (s *RedisPendingStore) DeleteEnrollment(ctx context.Context, accountID uuid.UUID) error {
	if err := s.client.Del(ctx, enrollmentKeyPrefix+accountID.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}
	return nil
}

// SaveChallenge implements ChallengeStore.
func (s *RedisPendingStore) SaveChallenge(ctx context.Context, challenge PendingAuthentication, ttl time.Duration) error {
	payload, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}
	if err := s.client.Set(ctx, challengeKeyPrefix+challenge.ID.String(), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}
	return nil
}

// GetChallenge implements ChallengeStore.
func (s *RedisPendingStore) GetChallenge(ctx context.Context, id uuid.UUID) (*PendingAuthentication, error) {
	payload, err := s.client.Get(ctx, challengeKeyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoPendingAuth
		}
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}

	var challenge PendingAuthentication
	if err := json.Unmarshal(payload, &challenge); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}
	return &challenge, nil
}

// DeleteChallenge implements ChallengeStore.
func (s *RedisPendingStore) DeleteChallenge(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, challengeKeyPrefix+id.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	return nil
}

var (
	_ EnrollmentStore = (*RedisPendingStore)(nil)
	_ ChallengeStore  = (*RedisPendingStore)(nil)
)
