package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/garyjia/conference-requests/internal/domain/entity"
)

func TestSessionCache_ReusesSessionPerUser(t *testing.T) {
	dir := &mockDirectory{}
	cache := NewSessionCache(dir, 0, &mockLogger{})
	ada := entity.User{Email: "ada@x.com", DisplayName: "Ada"}

	first := cache.Get(ada)
	first.Manager(context.Background())

	second := cache.Get(entity.User{Email: "ADA@x.com ", DisplayName: "Ada"})
	assert.NotSame(t, first, second, "different email spelling yields a fresh identity")

	again := cache.Get(ada)
	assert.Same(t, cache.Get(ada), again)
	assert.Equal(t, 1, cache.Len())
}

func TestSessionCache_ExpiresAfterTTL(t *testing.T) {
	cache := NewSessionCache(&mockDirectory{}, time.Minute, &mockLogger{})
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	ada := entity.User{Email: "ada@x.com"}
	first := cache.Get(ada)

	now = now.Add(30 * time.Second)
	assert.Same(t, first, cache.Get(ada))

	now = now.Add(time.Minute)
	assert.NotSame(t, first, cache.Get(ada))
}

func TestSessionCache_Invalidate(t *testing.T) {
	dir := &mockDirectory{}
	cache := NewSessionCache(dir, 0, &mockLogger{})
	ada := entity.User{Email: "ada@x.com"}
	ctx := context.Background()

	first := cache.Get(ada)
	first.Manager(ctx)
	first.Manager(ctx)
	assert.Equal(t, 1, dir.managerCalls)

	cache.Invalidate("ADA@x.com")

	assert.Equal(t, 0, cache.Len())
	assert.NotSame(t, first, cache.Get(ada))

	first.Manager(ctx)
	assert.Equal(t, 2, dir.managerCalls, "the dropped session refetches too")

	cache.Invalidate("nobody@x.com")
	assert.Equal(t, 1, cache.Len())
}

func TestSessionCache_Prune(t *testing.T) {
	cache := NewSessionCache(&mockDirectory{}, time.Minute, &mockLogger{})
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Get(entity.User{Email: "ada@x.com"})
	now = now.Add(45 * time.Second)
	cache.Get(entity.User{Email: "bea@x.com"})

	assert.Equal(t, 0, cache.Prune())

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, cache.Prune())
	assert.Equal(t, 1, cache.Len())

	forever := NewSessionCache(&mockDirectory{}, 0, &mockLogger{})
	forever.Get(entity.User{Email: "ada@x.com"})
	assert.Equal(t, 0, forever.Prune())
}
