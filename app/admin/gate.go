package admin

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/livetv/livetv/app/web"
	"golang.org/x/crypto/bcrypt"
)

// SessionCookie carries the admin session token.
const SessionCookie = "livetv_admin"

var ErrInvalidPassword = errors.New("invalid password")

// Gate checks the admin secret against a bcrypt hash and tracks the sessions
// it issued. There is no lockout or attempt counting.
type Gate struct {
	hash []byte
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewGate(hash []byte, ttl time.Duration) *Gate {
	return &Gate{
		hash:     hash,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Login issues a new session when password matches. With no configured hash
// every attempt is rejected.
func (g *Gate) Login(password string) (*Session, error) {
	if len(g.hash) == 0 || password == "" {
		return nil, ErrInvalidPassword
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}

	now := g.now()
	sess := &Session{Token: uuid.NewString(), lastSeen: now}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.pruneLocked(now)
	g.sessions[sess.Token] = sess
	return sess, nil
}

// Session returns the live session for token and refreshes its idle timer.
func (g *Gate) Session(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()
	sess, ok := g.sessions[token]
	if !ok {
		return nil, false
	}
	if g.expired(sess, now) {
		delete(g.sessions, token)
		return nil, false
	}
	sess.lastSeen = now
	return sess, true
}

func (g *Gate) Logout(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, token)
}

func (g *Gate) expired(sess *Session, now time.Time) bool {
	return g.ttl > 0 && now.Sub(sess.lastSeen) > g.ttl
}

func (g *Gate) pruneLocked(now time.Time) {
	for token, sess := range g.sessions {
		if g.expired(sess, now) {
			delete(g.sessions, token)
		}
	}
}

// Session is one authenticated admin. Its panel and notices are only touched
// while the session is locked, which also keeps a form from having two
// writes in flight.
type Session struct {
	Token string
	Panel *Panel

	mu       sync.Mutex
	lastSeen time.Time
	notices  []web.Notice
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Flash queues a notice for the next rendered page. Callers hold the lock.
func (s *Session) Flash(n web.Notice) {
	s.notices = append(s.notices, n)
}

// TakeNotices returns and clears the queued notices. Callers hold the lock.
func (s *Session) TakeNotices() []web.Notice {
	notices := s.notices
	s.notices = nil
	return notices
}
