package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoAccountStore is the MongoDB AccountStore. Preconditions ride in
// the update filters so every two-factor mutation is one UpdateOne call.
type MongoAccountStore struct {
	collection *mongo.Collection
}

// NewMongoAccountStore uses the "accounts" collection of db. The email
// unique index must exist; EnsureMongoIndexes creates it.
func NewMongoAccountStore(db *mongo.Database) *MongoAccountStore {
	return &MongoAccountStore{collection: db.Collection("accounts")}
}

// EnsureMongoIndexes creates the unique email index.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("accounts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

type mongoAccount struct {
	ID                 string    `bson:"_id"`
	Email              string    `bson:"email"`
	PasswordHash       []byte    `bson:"password_hash"`
	TwoFactorEnabled   bool      `bson:"two_factor_enabled"`
	TwoFactorSecret    string    `bson:"two_factor_secret"`
	RecoveryCodeHashes []string  `bson:"recovery_code_hashes"`
	LastTOTPStep       int64     `bson:"last_totp_step"`
	CreatedAt          time.Time `bson:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at"`
}

func toMongoAccount(a *Account) mongoAccount {
	hashes := a.RecoveryCodeHashes
	if hashes == nil {
		hashes = []string{}
	}
	return mongoAccount{
		ID:                 a.ID.String(),
		Email:              a.Email,
		PasswordHash:       a.PasswordHash,
		TwoFactorEnabled:   a.TwoFactorEnabled,
		TwoFactorSecret:    a.TwoFactorSecret,
		RecoveryCodeHashes: hashes,
		LastTOTPStep:       a.LastTOTPStep,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func (d mongoAccount) toAccount() (*Account, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("malformed account id %q: %w", d.ID, err)
	}
	return &Account{
		ID:                 id,
		Email:              d.Email,
		PasswordHash:       d.PasswordHash,
		TwoFactorEnabled:   d.TwoFactorEnabled,
		TwoFactorSecret:    d.TwoFactorSecret,
		RecoveryCodeHashes: d.RecoveryCodeHashes,
		LastTOTPStep:       d.LastTOTPStep,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}, nil
}

// CreateAccount implements AccountStore.
func (s *MongoAccountStore) CreateAccount(ctx context.Context, account *Account) error {
	_, err := s.collection.InsertOne(ctx, toMongoAccount(account))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// GetAccountByEmail implements AccountStore.
func (s *MongoAccountStore) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

// GetAccountByID implements AccountStore.
func (s *MongoAccountStore) GetAccountByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()})
}

func (s *MongoAccountStore) findOne(ctx context.Context, filter bson.M) (*Account, error) {
	var doc mongoAccount
	if err := s.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return doc.toAccount()
}

// UpdateTwoFactor implements AccountStore.
func (s *MongoAccountStore) UpdateTwoFactor(ctx context.Context, id uuid.UUID, upd TwoFactorUpdate, lastStep int64) error {
	hashes := upd.RecoveryCodeHashes
	if hashes == nil {
		hashes = []string{}
	}

	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{
			"two_factor_enabled":   upd.Enabled,
			"two_factor_secret":    upd.EncryptedSecret,
			"recovery_code_hashes": hashes,
			"last_totp_step":       lastStep,
			"updated_at":           time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update two-factor state: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ConsumeTOTPStep implements AccountStore.
func (s *MongoAccountStore) ConsumeTOTPStep(ctx context.Context, id uuid.UUID, step int64) (bool, error) {
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id.String(), "last_totp_step": bson.M{"$lt": step}},
		bson.M{"$set": bson.M{"last_totp_step": step, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim totp step: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// ConsumeRecoveryCode implements AccountStore.
func (s *MongoAccountStore) ConsumeRecoveryCode(ctx context.Context, id uuid.UUID, hash string) (bool, error) {
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id.String(), "recovery_code_hashes": hash},
		bson.M{
			"$pull": bson.M{"recovery_code_hashes": hash},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("failed to redeem recovery code: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// ReplaceRecoveryCodes implements AccountStore.
func (s *MongoAccountStore) ReplaceRecoveryCodes(ctx context.Context, id uuid.UUID, hashes []string) error {
	if hashes == nil {
		hashes = []string{}
	}

	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id.String(), "two_factor_enabled": true},
		bson.M{"$set": bson.M{
			"recovery_code_hashes": hashes,
			"updated_at":           time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to replace recovery codes: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, lookupErr := s.GetAccountByID(ctx, id); lookupErr != nil {
			return lookupErr
		}
		return ErrTwoFactorNotEnabled
	}
	return nil
}

var _ AccountStore = (*MongoAccountStore)(nil)
