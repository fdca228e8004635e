package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crucial707/todo-api/internal/auth"
	"github.com/crucial707/todo-api/internal/db"
	"github.com/crucial707/todo-api/internal/metrics"
	"github.com/crucial707/todo-api/internal/models"
	"github.com/crucial707/todo-api/internal/repo"
	"github.com/jmoiron/sqlx"
)

// TokenTypeBearer is the token_type returned with every access token.
const TokenTypeBearer = "bearer"

// Token is the result of a successful login.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"-"`
}

// AuthService registers users, logs them in and resolves bearer tokens.
type AuthService struct {
	DB     *sqlx.DB
	Hasher auth.PasswordHasher
	Tokens *auth.TokenIssuer

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(database *sqlx.DB, hasher auth.PasswordHasher, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{DB: database, Hasher: hasher, Tokens: tokens}
}

// Register hashes password and stores a new user. The username must not exist yet.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := s.Hasher.Hash(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		metrics.IncAuthEvent("register", "invalid")
		return nil, ErrPasswordTooLong
	}
	if err != nil {
		metrics.IncAuthEvent("register", "error")
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user *models.User
	err = db.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		users := repo.NewUserRepo(tx)

		_, err := users.GetByUsername(ctx, username)
		if err == nil {
			return ErrDuplicateUsername
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		user, err = users.Create(ctx, username, hash)
		if db.IsUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return err
	})
	if errors.Is(err, ErrDuplicateUsername) {
		metrics.IncAuthEvent("register", "conflict")
		return nil, err
	}
	if err != nil {
		metrics.IncAuthEvent("register", "error")
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.IncAuthEvent("register", "ok")
	slog.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login verifies the password and mints an access token for the user.
func (s *AuthService) Login(ctx context.Context, username, password string) (Token, error) {
	var user *models.User
	err := db.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var err error
		user, err = repo.NewUserRepo(tx).GetByUsername(ctx, username)
		return err
	})
	if errors.Is(err, repo.ErrNotFound) {
		// Burn the same bcrypt work as a real check so unknown users are not faster.
		s.Hasher.Check(password, s.dummy())
		metrics.IncAuthEvent("login", "invalid")
		return Token{}, ErrInvalidCredentials
	}
	if err != nil {
		metrics.IncAuthEvent("login", "error")
		return Token{}, fmt.Errorf("lookup user: %w", err)
	}

	if !s.Hasher.Check(password, user.PasswordHash) {
		metrics.IncAuthEvent("login", "invalid")
		return Token{}, ErrInvalidCredentials
	}

	signed, claims, err := s.Tokens.Issue(user.Username, user.ID)
	if err != nil {
		metrics.IncAuthEvent("login", "error")
		return Token{}, err
	}

	metrics.IncAuthEvent("login", "ok")
	return Token{AccessToken: signed, TokenType: TokenTypeBearer, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// ResolveCurrentUser turns a bearer token into the caller's identity.
// Tokens are stateless; no database lookup is made.
func (s *AuthService) ResolveCurrentUser(_ context.Context, token string) (auth.Identity, error) {
	id, err := s.Tokens.Verify(token)
	if err != nil {
		metrics.IncAuthEvent("resolve", "invalid")
		return auth.Identity{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	metrics.IncAuthEvent("resolve", "ok")
	return id, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash("not-a-real-password")
	})
	return s.dummyHash
}
