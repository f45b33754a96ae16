package api

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/constants"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/keys"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/logging"
)

const maxIdempotencyKeyLen = 64

// IdempotencyRepository persists cached responses.
type IdempotencyRepository interface {
	GetIdempotency(ctx context.Context, key string, now time.Time) (*game.IdempotencyRecord, error)
	SaveIdempotency(ctx context.Context, rec *game.IdempotencyRecord) error
}

// IdempotencyStore caches the first successful response of a request per
// caller-supplied key and replays it verbatim on retry. Concurrent
// requests with the same key run the handler once.
type IdempotencyStore struct {
	repo  IdempotencyRepository
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group
}

func NewIdempotencyStore(repo IdempotencyRepository, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{repo: repo, ttl: ttl, now: time.Now}
}

// responseRecorder tees everything the handler writes.
type responseRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Require makes the route at-most-once per Idempotency-Key. op names the
// operation; target returns what the request acts on. Reusing a key for a
// different target is rejected.
func (s *IdempotencyStore) Require(op string, target func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(constants.HeaderIdempotencyKey))
		if raw == "" || len(raw) > maxIdempotencyKeyLen {
			respondError(c, op, game.ErrMissingIdempotent)
			c.Abort()
			return
		}
		player := c.GetString(constants.CtxPlayerID)
		key := keys.IdempotencyKey(player, op, raw)
		scope := op + ":" + target(c)
		ctx := c.Request.Context()

		rec, err := s.repo.GetIdempotency(ctx, key, s.now().UTC())
		if err != nil {
			respondError(c, op, err)
			c.Abort()
			return
		}
		if rec != nil {
			s.replay(c, op, rec, scope)
			return
		}

		ran := false
		v, err, _ := s.group.Do(key, func() (any, error) {
			if rec, err := s.repo.GetIdempotency(ctx, key, s.now().UTC()); err != nil || rec != nil {
				return rec, err
			}
			ran = true
			rw := &responseRecorder{ResponseWriter: c.Writer}
			c.Writer = rw
			c.Next()

			now := s.now().UTC()
			out := &game.IdempotencyRecord{
				Key:        key,
				Scope:      scope,
				PlayerID:   player,
				StatusCode: rw.Status(),
				Body:       append([]byte(nil), rw.body.Bytes()...),
				CreatedAt:  now,
				ExpiresAt:  now.Add(s.ttl),
			}
			if out.StatusCode < 300 {
				if err := s.repo.SaveIdempotency(ctx, out); err != nil {
					logging.Error("failed to cache idempotent response", err, logging.Fields{
						constants.LogFieldOperation: op,
						constants.LogFieldPlayerID:  player,
					})
				}
			}
			return out, nil
		})
		if ran {
			return
		}
		if err != nil {
			respondError(c, op, err)
			c.Abort()
			return
		}
		s.replay(c, op, v.(*game.IdempotencyRecord), scope)
	}
}

func (s *IdempotencyStore) replay(c *gin.Context, op string, rec *game.IdempotencyRecord, scope string) {
	if rec.Scope != scope {
		respondError(c, op, game.ErrIdempotencyReused)
		c.Abort()
		return
	}
	c.Header(constants.HeaderIdempotentHit, "true")
	c.Data(rec.StatusCode, constants.ContentTypeJSON, rec.Body)
	c.Abort()
}
