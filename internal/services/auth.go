package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avdeevko/cropguard/internal/jwt"
	"github.com/avdeevko/cropguard/internal/logger"
	"github.com/avdeevko/cropguard/internal/models"
	"github.com/avdeevko/cropguard/internal/repositories"
)

// Error variables
var (
	ErrUserAlreadyExists  = errors.New("username already exists")
	ErrInvalidUsername    = errors.New("username must not be empty")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionExpired     = errors.New("session expired or revoked")
)

// defaultMinPasswordLength is the registration password policy floor.
const defaultMinPasswordLength = 4

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByUsername(ctx context.Context, username string) (*models.UserDB, error)
	Exists(ctx context.Context, username string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, username, passwordHash, email string) error
}

// PasswordHasher turns plaintext passwords into one-way digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// SessionStore persists live sessions between requests.
type SessionStore interface {
	Save(ctx context.Context, session models.Session) error
	Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

// TokenProvider issues and parses session tokens.
type TokenProvider interface {
	Generate(ctx context.Context, sessionID uuid.UUID, username string) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
	Expiration() time.Duration
}

// AuthService handles registration, login, logout, and session validation.
type AuthService struct {
	reader      UserReader
	writer      UserWriter
	hasher      PasswordHasher
	sessions    SessionStore
	tokens      TokenProvider
	minPassword int
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithMinPasswordLength overrides the registration password length policy.
func WithMinPasswordLength(n int) AuthOption {
	return func(s *AuthService) { s.minPassword = n }
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(
	reader UserReader,
	writer UserWriter,
	hasher PasswordHasher,
	sessions SessionStore,
	tokens TokenProvider,
	opts ...AuthOption,
) *AuthService {
	svc := &AuthService{
		reader:      reader,
		writer:      writer,
		hasher:      hasher,
		sessions:    sessions,
		tokens:      tokens,
		minPassword: defaultMinPasswordLength,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Register validates the credentials and creates a new user record.
func (svc *AuthService) Register(ctx context.Context, username, password, email string) error {
	if strings.TrimSpace(username) == "" {
		return ErrInvalidUsername
	}
	if len(password) < svc.minPassword {
		return ErrPasswordTooShort
	}

	exists, err := svc.reader.Exists(ctx, username)
	if err != nil {
		logger.Log.Errorw("failed to check user exists", "username", username, "err", err)
		return err
	}
	if exists {
		logger.Log.Infow("registration rejected, user exists", "username", username)
		return ErrUserAlreadyExists
	}

	digest, err := svc.hasher.Hash(password)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return err
	}

	if err := svc.writer.Save(ctx, username, digest, email); err != nil {
		// The unique constraint is the authority; the Exists check above
		// only shortcuts the common case.
		if errors.Is(err, repositories.ErrDuplicateUser) {
			return ErrUserAlreadyExists
		}
		logger.Log.Errorw("failed to save user", "username", username, "err", err)
		return err
	}

	return nil
}

// Login authenticates a user, creates a session, and returns a signed token.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (svc *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := svc.reader.GetByUsername(ctx, username)
	if err != nil {
		logger.Log.Errorw("failed to get user", "username", username, "err", err)
		return "", err
	}
	if user == nil || !svc.hasher.Verify(password, user.PasswordHash) {
		logger.Log.Infow("login rejected", "username", username)
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	session := models.Session{
		SessionID: uuid.New(),
		Username:  user.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(svc.tokens.Expiration()),
	}

	if err := svc.sessions.Save(ctx, session); err != nil {
		logger.Log.Errorw("failed to save session", "username", username, "err", err)
		return "", err
	}

	token, err := svc.tokens.Generate(ctx, session.SessionID, session.Username)
	if err != nil {
		logger.Log.Errorw("failed to generate token", "username", username, "err", err)
		return "", err
	}

	return token, nil
}

// Logout revokes the session. Revoking an unknown session is not an error.
func (svc *AuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := svc.sessions.Delete(ctx, sessionID); err != nil {
		logger.Log.Errorw("failed to delete session", "session_id", sessionID, "err", err)
		return err
	}
	return nil
}

// ValidateToken checks the token signature and that the session it names is
// still live. Logout revokes the stored session, so a structurally valid
// token alone is not enough.
func (svc *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.Session, error) {
	claims, err := svc.tokens.GetClaims(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	session, err := svc.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		logger.Log.Errorw("failed to get session", "session_id", claims.SessionID, "err", err)
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionExpired
	}

	return session, nil
}

// UserCount returns the total number of registered users.
func (svc *AuthService) UserCount(ctx context.Context) (int64, error) {
	return svc.reader.Count(ctx)
}
