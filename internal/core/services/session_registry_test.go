package services_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/lorrc/newsroom-notifications/internal/core/services"
	"github.com/stretchr/testify/assert"
)

func TestSessionRegistry_RegisterLookup(t *testing.T) {
	r := services.NewSessionRegistry()
	userID := uuid.New()

	_, ok := r.Lookup(userID)
	assert.False(t, ok)

	r.Register(userID, "conn-1")
	conn, ok := r.Lookup(userID)
	assert.True(t, ok)
	assert.Equal(t, "conn-1", conn)
	assert.Equal(t, 1, r.Count())
}

func TestSessionRegistry_RegisterIsIdempotent(t *testing.T) {
	r := services.NewSessionRegistry()
	userID := uuid.New()

	r.Register(userID, "conn-1")
	r.Register(userID, "conn-1")

	conn, ok := r.Lookup(userID)
	assert.True(t, ok)
	assert.Equal(t, "conn-1", conn)
	assert.Equal(t, 1, r.Count())
}

func TestSessionRegistry_LastConnectionWins(t *testing.T) {
	r := services.NewSessionRegistry()
	userID := uuid.New()

	r.Register(userID, "conn-1")
	r.Register(userID, "conn-2")

	conn, ok := r.Lookup(userID)
	assert.True(t, ok)
	assert.Equal(t, "conn-2", conn)
}

func TestSessionRegistry_Unregister(t *testing.T) {
	t.Run("removes matching connection", func(t *testing.T) {
		r := services.NewSessionRegistry()
		userID := uuid.New()
		r.Register(userID, "conn-1")

		assert.True(t, r.Unregister(userID, "conn-1"))

		_, ok := r.Lookup(userID)
		assert.False(t, ok)
		assert.Equal(t, 0, r.Count())
	})

	t.Run("stale disconnect keeps newer connection", func(t *testing.T) {
		r := services.NewSessionRegistry()
		userID := uuid.New()
		r.Register(userID, "conn-1")
		r.Register(userID, "conn-2")

		assert.False(t, r.Unregister(userID, "conn-1"))

		conn, ok := r.Lookup(userID)
		assert.True(t, ok)
		assert.Equal(t, "conn-2", conn)
	})

	t.Run("unknown user is a no-op", func(t *testing.T) {
		r := services.NewSessionRegistry()
		assert.False(t, r.Unregister(uuid.New(), "conn-1"))
	})

	t.Run("does not affect other users", func(t *testing.T) {
		r := services.NewSessionRegistry()
		alice, bob := uuid.New(), uuid.New()
		r.Register(alice, "a")
		r.Register(bob, "b")

		r.Unregister(alice, "a")

		conn, ok := r.Lookup(bob)
		assert.True(t, ok)
		assert.Equal(t, "b", conn)
	})
}

func TestSessionRegistry_ConcurrentAccess(t *testing.T) {
	r := services.NewSessionRegistry()
	users := make([]uuid.UUID, 50)
	for i := range users {
		users[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for i, userID := range users {
		wg.Add(3)
		go func(i int, userID uuid.UUID) {
			defer wg.Done()
			r.Register(userID, fmt.Sprintf("conn-%d", i))
		}(i, userID)
		go func(userID uuid.UUID) {
			defer wg.Done()
			r.Lookup(userID)
		}(userID)
		go func(i int, userID uuid.UUID) {
			defer wg.Done()
			r.Unregister(userID, fmt.Sprintf("other-%d", i))
		}(i, userID)
	}
	wg.Wait()

	assert.Equal(t, len(users), r.Count())
	for i, userID := range users {
		conn, ok := r.Lookup(userID)
		assert.True(t, ok)
		assert.Equal(t, fmt.Sprintf("conn-%d", i), conn)
	}
}
