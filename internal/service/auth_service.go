package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ticktock/internal/logger"
	"ticktock/internal/model"
	"ticktock/internal/repository"
)

const minPasswordLength = 8

// UserStore persists identities.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
	Delete(ctx context.Context, id uint) error
}

// SessionStore persists server-side sessions.
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	Find(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Session is what a successful register or login hands to the transport.
type Session struct {
	Identity  Identity
	Token     string
	ExpiresAt time.Time
}

// AuthService registers and authenticates users and manages their sessions.
type AuthService struct {
	users     UserStore
	sessions  SessionStore
	signer    *TokenSigner
	ttl       time.Duration
	hashCost  int
	now       func() time.Time
	dummyHash []byte
}

func NewAuthService(users UserStore, sessions SessionStore, signer *TokenSigner, ttl time.Duration) *AuthService {
	s := &AuthService{
		users:    users,
		sessions: sessions,
		signer:   signer,
		ttl:      ttl,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword(passwordDigest("ticktock-dummy-password"), s.hashCost)
	return s
}

// NormalizeEmail trims and lower-cases an email so that case variants map to
// one identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an identity and opens a session for it.
func (s *AuthService) Register(ctx context.Context, email, password string) (*Session, error) {
	sess, err := s.register(ctx, email, password)
	authAttempts.WithLabelValues("register", statusLabel(err)).Inc()
	return sess, err
}

func (s *AuthService) register(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" || utf8.RuneCountInString(password) < minPasswordLength {
		return nil, newError(ErrValidation, "Invalid input", nil)
	}

	hash, err := bcrypt.GenerateFromPassword(passwordDigest(password), s.hashCost)
	if err != nil {
		return nil, newError(ErrPersistence, "Registration failed", err)
	}

	user := &model.User{Email: email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "Email already registered", err)
		}
		return nil, newError(ErrPersistence, "Registration failed", err)
	}

	sess, err := s.startSession(ctx, user)
	if err != nil {
		// Remove the user so a retry can register again.
		if derr := s.users.Delete(ctx, user.ID); derr != nil {
			logger.Error(ctx, derr, "register: remove user without session", "user_id", user.ID)
		}
		return nil, err
	}

	logger.Info(ctx, "user registered", "user_id", user.ID)
	return sess, nil
}

// Login checks credentials and opens a session. Unknown email and wrong
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	sess, err := s.login(ctx, email, password)
	authAttempts.WithLabelValues("login", statusLabel(err)).Inc()
	return sess, err
}

func (s *AuthService) login(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	invalid := newError(ErrInvalidCredentials, "Invalid credentials", nil)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrPersistence, "Login failed", err)
		}
		// Keep timing close to the wrong-password path.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, passwordDigest(password))
		return nil, invalid
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), passwordDigest(password)); err != nil {
		return nil, invalid
	}

	return s.startSession(ctx, user)
}

// Logout ends the session named by token. It never fails: a missing or
// invalid token simply has nothing to end.
func (s *AuthService) Logout(ctx context.Context, token string) {
	authAttempts.WithLabelValues("logout", "success").Inc()
	if token == "" {
		return
	}
	sessionID, _, err := s.signer.Parse(token)
	if err != nil {
		return
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		logger.Error(ctx, err, "logout: delete session")
	}
}

// Authenticate resolves a session token to the identity it belongs to.
func (s *AuthService) Authenticate(ctx context.Context, token string) (Identity, error) {
	unauthorized := newError(ErrUnauthorized, "Unauthorized", nil)
	if token == "" {
		return Identity{}, unauthorized
	}

	sessionID, userID, err := s.signer.Parse(token)
	if err != nil {
		logger.Debug(ctx, "rejected session token", "reason", err)
		return Identity{}, unauthorized
	}

	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Identity{}, unauthorized
		}
		return Identity{}, newError(ErrPersistence, "Session lookup failed", err)
	}
	if session.UserID != userID {
		return Identity{}, unauthorized
	}
	if session.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			logger.Error(ctx, err, "delete expired session")
		}
		return Identity{}, unauthorized
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Identity{}, unauthorized
		}
		return Identity{}, newError(ErrPersistence, "Session lookup failed", err)
	}

	return Identity{UserID: user.ID, Email: user.Email}, nil
}

// PurgeExpiredSessions removes sessions that are past their expiry.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.PurgeExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	sessionsPurged.Add(float64(n))
	return n, nil
}

// passwordDigest is what bcrypt sees in place of the password. bcrypt reads
// only the first 72 bytes of its input, so every password is first reduced
// to a fixed 44-byte SHA-256 digest.
func passwordDigest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

func (s *AuthService) startSession(ctx context.Context, user *model.User) (*Session, error) {
	now := s.now()
	session := &model.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, newError(ErrPersistence, "Could not start session", err)
	}

	token, err := s.signer.Issue(session.ID, user.ID, now, session.ExpiresAt)
	if err != nil {
		return nil, newError(ErrPersistence, "Could not start session", err)
	}

	return &Session{
		Identity:  Identity{UserID: user.ID, Email: user.Email},
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}
