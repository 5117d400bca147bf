package access

import (
	"strings"
	"sync"
	"time"

	"github.com/garyjia/conference-requests/internal/application/port"
	"github.com/garyjia/conference-requests/internal/domain/entity"
)

// SessionCache keeps one Session per signed-in user so directory lookups are
// reused across requests. Entries expire after ttl; a zero ttl never expires.
type SessionCache struct {
	directory port.DirectoryClient
	logger    Logger
	ttl       time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*cachedSession
}

type cachedSession struct {
	session   *Session
	createdAt time.Time
}

// NewSessionCache creates a cache whose sessions resolve against directory
func NewSessionCache(directory port.DirectoryClient, ttl time.Duration, logger Logger) *SessionCache {
	return &SessionCache{
		directory: directory,
		logger:    logger,
		ttl:       ttl,
		now:       time.Now,
		sessions:  make(map[string]*cachedSession),
	}
}

// Get returns the cached session for user, creating it when absent or expired.
// A changed display name replaces the session.
func (c *SessionCache) Get(user entity.User) *Session {
	key := strings.ToLower(strings.TrimSpace(user.Email))

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.sessions[key]; ok && !c.expired(cached) && cached.session.User() == user {
		return cached.session
	}

	s := NewSession(user, c.directory, c.logger)
	c.sessions[key] = &cachedSession{session: s, createdAt: c.now()}
	return s
}

// Invalidate drops the session of email, forcing fresh directory lookups.
// Holders of the old session also see its lookups cleared.
func (c *SessionCache) Invalidate(email string) {
	key := strings.ToLower(strings.TrimSpace(email))

	c.mu.Lock()
	cached, ok := c.sessions[key]
	delete(c.sessions, key)
	c.mu.Unlock()

	if ok {
		cached.session.Invalidate()
	}
}

// Prune drops expired sessions and returns how many were removed
func (c *SessionCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, cached := range c.sessions {
		if c.expired(cached) {
			delete(c.sessions, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached sessions
func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

func (c *SessionCache) expired(cs *cachedSession) bool {
	return c.ttl > 0 && c.now().Sub(cs.createdAt) >= c.ttl
}
