package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/apierror"
	"github.com/vibast-solutions/portal-payments/app/entity"
	"github.com/vibast-solutions/portal-payments/app/factory"
)

// Storage persists the session values as a batch. Implementations live in
// app/repository.
type Storage interface {
	Load(ctx context.Context, keys ...string) (map[string]string, error)
	Save(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// ErrCorruptStorage is returned by a Storage whose persisted data can not be read back.
var ErrCorruptStorage = errors.New("session storage is corrupted")

type Store struct {
	mu      sync.RWMutex
	current *entity.Session

	storage Storage
	keys    Keys
	now     func() time.Time
	logger  logrus.FieldLogger
}

func NewStore(scope Scope, storage Storage) *Store {
	return &Store{
		storage: storage,
		keys:    KeysFor(scope),
		now:     time.Now,
		logger:  factory.NewModuleLogger("session").WithField("scope", string(scope)),
	}
}

// SetSession persists token and user together, then swaps the in-memory
// session. On a storage failure the previous session stays in place.
func (s *Store) SetSession(ctx context.Context, token string, user entity.User) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apierror.Validation("token", "token is required")
	}
	subject := user.Subject()
	if subject == "" {
		return apierror.Validation("user", "user id is required")
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return err
	}

	next := s.buildSession(token, user)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Save(ctx, map[string]string{
		s.keys.Token: token,
		s.keys.User:  string(userJSON),
	}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.current = next
	s.logger.WithField("subject", subject).Debug("session_set")
	return nil
}

// ClearSession drops the in-memory session before touching storage, so readers
// never observe a half-cleared state.
func (s *Store) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

func (s *Store) clearLocked(ctx context.Context) error {
	s.current = nil
	if err := s.storage.Delete(ctx, s.keys.Token, s.keys.User); err != nil {
		s.logger.WithError(err).Warn("Failed to delete persisted session")
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Debug("session_cleared")
	return nil
}

// RestoreSession loads the persisted session. Anything unusable (one half
// missing, undecodable user, no subject, expired token, corrupt storage) is
// cleared and reported as no session.
func (s *Store) RestoreSession(ctx context.Context) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.storage.Load(ctx, s.keys.Token, s.keys.User)
	if err != nil {
		if errors.Is(err, ErrCorruptStorage) {
			s.logger.WithError(err).Warn("Discarding corrupted session storage")
			return nil, s.clearLocked(ctx)
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	token := strings.TrimSpace(values[s.keys.Token])
	rawUser := strings.TrimSpace(values[s.keys.User])
	if token == "" && rawUser == "" {
		s.current = nil
		return nil, nil
	}
	if token == "" || rawUser == "" {
		s.logger.Warn("Discarding half-persisted session")
		return nil, s.clearLocked(ctx)
	}

	var user entity.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.logger.WithError(err).Warn("Discarding session with unreadable user")
		return nil, s.clearLocked(ctx)
	}
	if user.Subject() == "" {
		s.logger.Warn("Discarding session without subject")
		return nil, s.clearLocked(ctx)
	}

	restored := s.buildSession(token, user)
	if restored.Expired(s.now()) {
		s.logger.Info("Discarding expired session")
		return nil, s.clearLocked(ctx)
	}

	s.current = restored
	out := *restored
	return &out, nil
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return false
	}
	return !s.current.Expired(s.now())
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Current returns a copy of the active session, or nil.
func (s *Store) Current() *entity.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	out := *s.current
	return &out
}

func (s *Store) buildSession(token string, user entity.User) *entity.Session {
	item := &entity.Session{
		Subject:  user.Subject(),
		Token:    token,
		IssuedAt: s.now().UTC(),
		User:     user,
	}

	claims, ok := parseClaims(token)
	if !ok {
		return item
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		item.IssuedAt = iat.Time.UTC()
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt := exp.Time.UTC()
		item.ExpiresAt = &expiresAt
	}
	return item
}

// parseClaims reads the claims of a JWT without verifying it; the backend owns
// the signing key. Opaque tokens report ok=false.
func parseClaims(token string) (jwt.MapClaims, bool) {
	if strings.Count(token, ".") != 2 {
		return nil, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}
