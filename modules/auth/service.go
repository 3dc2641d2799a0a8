package auth

import (
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kavach-security/kavach/pkg/jwt"
	"github.com/kavach-security/kavach/pkg/totp"
	"github.com/kavach-security/kavach/pkg/validator"
)

// Service implements registration, login, two-factor enrollment, and
// recovery code management on top of injected stores.
type Service struct {
	accounts    AccountStore
	enrollments EnrollmentStore
	challenges  ChallengeStore
	tokens      *jwt.Service

	issuer        string
	encryptionKey []byte
	sessionTTL    time.Duration
	challengeTTL  time.Duration
	enrollmentTTL time.Duration

	recoveryCodeCount int
	bcryptCost        int
	qrCodeSize        int

	passwordStrength validator.PasswordStrengthConfig
	logger           *slog.Logger

	// now is swappable in tests for deterministic TOTP steps.
	now func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPasswordStrength overrides the registration password policy.
func WithPasswordStrength(cfg validator.PasswordStrengthConfig) Option {
	return func(s *Service) {
		s.passwordStrength = cfg
	}
}

// NewService wires the auth service. The encryption key must come from
// totp.DecodeEncryptionKey; the token service signs session JWTs.
func NewService(
	cfg Config,
	accounts AccountStore,
	enrollments EnrollmentStore,
	challenges ChallengeStore,
	opts ...Option,
) (*Service, error) {
	encryptionKey, err := totp.DecodeEncryptionKey(cfg.SecretEncryptionKey)
	if err != nil {
		return nil, err
	}

	tokens, err := jwt.NewFromString(cfg.JWTSigningKey)
	if err != nil {
		return nil, err
	}

	s := &Service{
		accounts:          accounts,
		enrollments:       enrollments,
		challenges:        challenges,
		tokens:            tokens,
		issuer:            cfg.Issuer,
		encryptionKey:     encryptionKey,
		sessionTTL:        cfg.SessionTTL,
		challengeTTL:      cfg.ChallengeTTL,
		enrollmentTTL:     cfg.EnrollmentTTL,
		recoveryCodeCount: cfg.RecoveryCodeCount,
		bcryptCost:        cfg.BcryptCost,
		qrCodeSize:        cfg.QRCodeSize,
		passwordStrength:  validator.DefaultPasswordStrength,
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:               time.Now,
	}

	if s.recoveryCodeCount < 1 {
		s.recoveryCodeCount = 10
	}
	if s.bcryptCost < bcrypt.MinCost || s.bcryptCost > bcrypt.MaxCost {
		s.bcryptCost = bcrypt.DefaultCost
	}
	if s.qrCodeSize <= 0 {
		s.qrCodeSize = 256
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Tokens exposes the session token service for transport middleware.
func (s *Service) Tokens() *jwt.Service {
	return s.tokens
}
