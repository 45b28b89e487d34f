package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

// Session хранит токен и пользователя текущего оператора кассы.
type Session struct {
	mu       sync.RWMutex
	store    TokenStore
	token    string
	user     *domain.User
	onLogout []func()
	logger   *log.Entry
	now      func() time.Time
}

// New создаёт сессию и подхватывает сохранённый токен.
func New(store TokenStore, logger *log.Entry) *Session {
	if logger == nil {
		logger = log.WithField("component", "session")
	}
	if store == nil {
		store = NewMemoryTokenStore("")
	}
	s := &Session{store: store, logger: logger, now: time.Now}
	token, err := store.Load()
	if err != nil {
		logger.WithError(err).Warn("failed to load stored token, starting logged out")
	}
	s.token = token
	return s
}

// SetCredentials сохраняет токен после успешного логина.
func (s *Session) SetCredentials(token string, user domain.User) error {
	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()

	return s.store.Save(token)
}

// Token возвращает токен, если он есть и не истёк.
// Истёкший токен приводит к выходу из сессии и ErrAuthenticationRequired.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		return "", nil
	}
	if exp := expiresAt(token); !exp.IsZero() && !s.now().Before(exp) {
		s.logger.WithField("expired_at", exp).Info("stored token expired")
		s.Logout()
		return "", domain.ErrAuthenticationRequired
	}
	return token, nil
}

// Authenticated сообщает, есть ли действующий токен.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token == "" {
		return false
	}
	exp := expiresAt(token)
	return exp.IsZero() || s.now().Before(exp)
}

// ExpiresAt возвращает exp из JWT или нулевое время для непрозрачных токенов.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return expiresAt(s.token)
}

// User возвращает пользователя последнего логина.
func (s *Session) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// OnLogout регистрирует обработчик, вызываемый при каждом выходе.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Logout очищает токен в памяти и на диске и вызывает обработчики выхода.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	hooks := make([]func(), len(s.onLogout))
	copy(hooks, s.onLogout)
	s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		s.logger.WithError(err).Warn("failed to clear stored token")
	}
	for _, hook := range hooks {
		hook()
	}
}

// expiresAt читает exp без проверки подписи: секрет есть только у сервера.
func expiresAt(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
