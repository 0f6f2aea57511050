package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryIdempotencyStore is a map-backed store standing in for redis
type memoryIdempotencyStore struct {
	mu      sync.Mutex
	claimed map[string]bool
	bodies  map[string][]byte
	codes   map[string]int
}

func newMemoryStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{
		claimed: make(map[string]bool),
		bodies:  make(map[string][]byte),
		codes:   make(map[string]int),
	}
}

func (s *memoryIdempotencyStore) Begin(ctx context.Context, key string, ttl time.Duration) (bool, []byte, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.claimed[key] {
		s.claimed[key] = true
		return true, nil, 0, nil
	}
	return false, s.bodies[key], s.codes[key], nil
}

func (s *memoryIdempotencyStore) Finish(ctx context.Context, key string, code int, body []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[key] = body
	s.codes[key] = code
	return nil
}

func newIdempotentRouter(store IdempotencyStore, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/requests", Idempotency(store, time.Minute), func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusCreated, gin.H{"calls": *calls})
	})
	return r
}

func doPost(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/requests", nil)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyPassThroughWithoutKey(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(newMemoryStore(), &calls)

	doPost(r, "")
	doPost(r, "")
	assert.Equal(t, 2, calls)
}

func TestIdempotencyReplaysCachedResponse(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(newMemoryStore(), &calls)

	first := doPost(r, "abc-123")
	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, 1, calls)

	retry := doPost(r, "abc-123")
	assert.Equal(t, http.StatusCreated, retry.Code)
	assert.Equal(t, first.Body.String(), retry.Body.String())
	assert.Equal(t, 1, calls, "handler must not run twice for the same key")

	// a different key executes normally
	doPost(r, "def-456")
	assert.Equal(t, 2, calls)
}

func TestIdempotencyInProgressConflict(t *testing.T) {
	calls := 0
	store := newMemoryStore()
	r := newIdempotentRouter(store, &calls)

	// claim the key without finishing, as a still-running first attempt would
	claimed, _, _, err := store.Begin(context.Background(), "idemp:POST:/requests:abc-123", time.Minute)
	require.NoError(t, err)
	require.True(t, claimed)

	w := doPost(r, "abc-123")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, calls)
}
