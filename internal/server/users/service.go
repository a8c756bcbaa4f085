// Package users registers users, logs them in with their password and turns
// access tokens back into users.
package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/eeye/internal/common"
	"github.com/dmitrijs2005/eeye/internal/cryptox"
	"github.com/dmitrijs2005/eeye/internal/logging"
	"github.com/dmitrijs2005/eeye/internal/server/auth"
	"github.com/dmitrijs2005/eeye/internal/server/metrics"
)

type Service struct {
	repo     Repository
	hasher   *cryptox.Hasher
	codec    *auth.Codec
	metrics  *metrics.Metrics
	logger   logging.Logger
	validate *validator.Validate

	inTx TxFunc

	dummyOnce       sync.Once
	dummyCredential string
}

// TxFunc runs fn with a repository bound to a single transaction.
type TxFunc func(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error

// Option customizes a Service.
type Option func(*Service)

// WithTxFunc makes read-check-write updates run in transactions. Without it
// they run directly against the service repository.
func WithTxFunc(tx TxFunc) Option {
	return func(s *Service) {
		s.inTx = tx
	}
}

// NewService wires the service. m may be nil.
func NewService(repo Repository, hasher *cryptox.Hasher, codec *auth.Codec, m *metrics.Metrics, logger logging.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		hasher:   hasher,
		codec:    codec,
		metrics:  m,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.inTx = func(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
		return fn(ctx, s.repo)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) validateRequest(req any) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+":"+fe.Tag())
			}
			return fmt.Errorf("%w: %s", common.ErrorValidation, strings.Join(fields, ", "))
		}
		return common.ErrorValidation
	}
	return nil
}

// Register creates an active user with the default role and subscription
// level.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error(ctx, "hash password", "error", err)
		return nil, common.ErrorInternal
	}

	user, err := s.repo.Create(ctx, &User{
		Email:             req.Email,
		HashedPassword:    hashed,
		Role:              DefaultRole,
		SubscriptionLevel: DefaultSubscriptionLevel,
		IsActive:          true,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		s.logger.Error(ctx, "create user", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// burnVerify runs a verification against a throwaway credential so that an
// unknown email costs about as much as a wrong password.
func (s *Service) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		pw, err := common.MakeRandHexString(16)
		if err != nil {
			return
		}
		if cred, err := s.hasher.Hash(pw); err == nil {
			s.dummyCredential = cred
		}
	})
	_ = s.hasher.Verify(s.dummyCredential, password)
}

// Login checks the password and issues an access token. Unknown email, wrong
// password and inactive account all return common.ErrorUnauthorized.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnVerify(req.Password)
			s.metrics.Login(metrics.LoginFailure)
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "get user by email", "error", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(user.HashedPassword, req.Password) {
		s.metrics.Login(metrics.LoginFailure)
		return nil, common.ErrorUnauthorized
	}

	if !user.IsActive {
		s.metrics.Login(metrics.LoginInactive)
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrorInactiveUser)
	}

	if s.hasher.NeedsRehash(user.HashedPassword) {
		s.rehash(ctx, user, req.Password)
	}

	accessToken, err := s.codec.Issue(auth.FromPrincipal(user.Principal()))
	if err != nil {
		s.logger.Error(ctx, "issue access token", "error", err)
		return nil, common.ErrorInternal
	}

	s.metrics.Login(metrics.LoginSuccess)
	s.metrics.TokenIssued()
	s.logger.Info(ctx, "user logged in", "user_id", user.ID)

	return &TokenResponse{AccessToken: accessToken, TokenType: common.TokenTypeBearer}, nil
}

// rehash upgrades a credential produced with weaker parameters. The stored
// credential is only replaced if it has not changed since it was verified.
// Failures are logged and do not fail the login.
func (s *Service) rehash(ctx context.Context, user *User, password string) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn(ctx, "rehash password", "user_id", user.ID, "error", err)
		return
	}

	err = s.inTx(ctx, func(ctx context.Context, repo Repository) error {
		current, err := repo.GetByID(ctx, user.ID)
		if err != nil {
			return err
		}
		if current.HashedPassword != user.HashedPassword {
			return nil
		}
		return repo.UpdatePasswordHash(ctx, user.ID, hashed)
	})
	if err != nil {
		s.logger.Warn(ctx, "store rehashed password", "user_id", user.ID, "error", err)
		return
	}
	user.HashedPassword = hashed
}

// Authenticate resolves an access token and loads the user it was issued for.
// Any failure is common.ErrorUnauthorized, except storage errors which are
// common.ErrorInternal. The rejection reason is only logged.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*User, error) {
	sub, err := s.codec.Resolve(accessToken)
	if err != nil {
		reason := auth.ReasonOf(err)
		s.metrics.TokenRejected(string(reason))
		s.logger.Debug(ctx, "access token rejected", "reason", reason)
		return nil, common.ErrorUnauthorized
	}

	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		s.logger.Debug(ctx, "access token subject is not a user id", "sub", sub)
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "get user by id", "error", err)
		return nil, common.ErrorInternal
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrorInactiveUser)
	}

	return user, nil
}
