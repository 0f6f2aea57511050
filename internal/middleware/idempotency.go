package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"hospreq/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// IdempotencyStore holds in-progress markers and completed responses keyed by
// client-supplied idempotency keys.
type IdempotencyStore interface {
	// Begin claims the key. Returns false with the cached response when the
	// key was already claimed.
	Begin(ctx context.Context, key string, ttl time.Duration) (claimed bool, cached []byte, code int, err error)
	// Finish stores the final response under the key.
	Finish(ctx context.Context, key string, code int, body []byte, ttl time.Duration) error
}

// bodyRecorder duplicates the response body so it can be replayed
type bodyRecorder struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

// Idempotency deduplicates mutating requests carrying an Idempotency-Key
// header: the first request executes and its response is cached; retries with
// the same key replay the cached response instead of re-executing. Requests
// without the header pass through untouched.
func Idempotency(store IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Idempotency-Key")
		if key == "" {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		storeKey := "idemp:" + c.Request.Method + ":" + c.FullPath() + ":" + key
		claimed, cached, code, err := store.Begin(ctx, storeKey, ttl)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, "idempotency store unavailable"))
			return
		}
		if !claimed {
			if len(cached) > 0 {
				c.Data(code, "application/json", cached)
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusConflict, response.Error(http.StatusConflict, "request is already in progress"))
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = recorder
		c.Next()

		// Best-effort: a failed cache write only costs replay protection
		_ = store.Finish(ctx, storeKey, recorder.Status(), recorder.buf.Bytes(), ttl)
	}
}

// --- Redis implementation ---

type redisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) IdempotencyStore {
	return &redisIdempotencyStore{client: client}
}

func (s *redisIdempotencyStore) Begin(ctx context.Context, key string, ttl time.Duration) (bool, []byte, int, error) {
	ok, err := s.client.SetNX(ctx, key, "in-progress", ttl).Result()
	if err != nil {
		return false, nil, 0, err
	}
	if ok {
		return true, nil, 0, nil
	}

	body, err := s.client.Get(ctx, key+":body").Bytes()
	if err == redis.Nil {
		return false, nil, 0, nil
	}
	if err != nil {
		return false, nil, 0, err
	}
	code, err := s.client.Get(ctx, key+":code").Int()
	if err != nil {
		code = http.StatusOK
	}
	return false, body, code, nil
}

func (s *redisIdempotencyStore) Finish(ctx context.Context, key string, code int, body []byte, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key+":body", body, ttl)
	pipe.Set(ctx, key+":code", code, ttl)
	pipe.Set(ctx, key, "done", ttl)
	_, err := pipe.Exec(ctx)
	return err
}
