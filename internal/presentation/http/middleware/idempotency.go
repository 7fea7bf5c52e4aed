package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/vendas-api/internal/domain/entity"
	"github.com/sangkips/vendas-api/internal/domain/repository"
	"github.com/sangkips/vendas-api/pkg/apperror"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayedHeader marks a response served from the key store
	IdempotencyReplayedHeader = "X-Idempotency-Replayed"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
	// IdempotencyPendingTTL bounds how long a key stays reserved by a request
	// that never completed, e.g. after a crash.
	IdempotencyPendingTTL = time.Minute
	// MaxIdempotentBodyBytes caps the body read for hashing
	MaxIdempotentBodyBytes int64 = 1 << 20
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo         repository.IdempotencyRepository
	TTL          time.Duration
	PendingTTL   time.Duration
	MaxBodyBytes int64
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a request repeats an
// Idempotency-Key already used on the same route. The key is reserved before
// the handler runs, so a concurrent retry gets 409 instead of running twice.
// Requests without the header pass through. Only successful responses are
// kept; any other outcome releases the key for a retry.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	ttl := config.TTL
	if ttl <= 0 {
		ttl = IdempotencyKeyTTL
	}
	pendingTTL := config.PendingTTL
	if pendingTTL <= 0 {
		pendingTTL = IdempotencyPendingTTL
	}
	maxBody := config.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = MaxIdempotentBodyBytes
	}

	return func(c *gin.Context) {
		// Only apply to POST, PUT, PATCH methods
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, apperror.ErrPayloadTooLarge)
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, apperror.NewBadRequestError("Invalid request body"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		requestHash := hashBody(body)
		endpoint := c.Request.Method + " " + c.FullPath()
		ctx := c.Request.Context()

		existing, err := config.Repo.GetByKey(ctx, idempotencyKey, endpoint)
		if err != nil {
			log.Printf("Warning: idempotency lookup failed, processing request: %v", err)
			c.Next()
			return
		}

		if existing != nil && !existing.IsExpired() {
			abortOnExisting(c, existing, requestHash)
			return
		}
		if existing != nil && existing.IsExpired() {
			if err := config.Repo.Release(ctx, idempotencyKey, endpoint); err != nil {
				log.Printf("Warning: failed to drop expired idempotency key: %v", err)
			}
		}

		ikey := &entity.IdempotencyKey{
			Key:         idempotencyKey,
			Endpoint:    endpoint,
			RequestHash: requestHash,
			ExpiresAt:   time.Now().Add(pendingTTL),
		}
		reserved, err := config.Repo.Reserve(ctx, ikey)
		if err != nil {
			log.Printf("Warning: idempotency reservation failed, processing request: %v", err)
			c.Next()
			return
		}
		if !reserved {
			// Another request took the key between the lookup and the reservation.
			if current, err := config.Repo.GetByKey(ctx, idempotencyKey, endpoint); err == nil && current != nil && !current.IsExpired() {
				abortOnExisting(c, current, requestHash)
				return
			}
			abortInProgress(c)
			return
		}

		// Capture the response
		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// The client may be gone; the key must still be settled.
		storeCtx := context.WithoutCancel(ctx)
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			if err := config.Repo.Release(storeCtx, idempotencyKey, endpoint); err != nil {
				log.Printf("Warning: failed to release idempotency key: %v", err)
			}
			return
		}

		ikey.ResponseCode = status
		ikey.ResponseBody = blw.body.String()
		ikey.ExpiresAt = time.Now().Add(ttl)
		if err := config.Repo.Complete(storeCtx, ikey); err != nil {
			log.Printf("Warning: failed to store idempotency key: %v", err)
		}
	}
}

// abortOnExisting answers a request whose key is already taken: 409 for a
// different body or a request still in flight, the stored response otherwise.
func abortOnExisting(c *gin.Context, existing *entity.IdempotencyKey, requestHash string) {
	if existing.RequestHash != "" && existing.RequestHash != requestHash {
		c.AbortWithStatusJSON(http.StatusConflict, apperror.ErrConflict.WithMessage(
			"Idempotency-Key was already used with a different request"))
		return
	}
	if existing.IsPending() {
		abortInProgress(c)
		return
	}
	c.Header(IdempotencyReplayedHeader, "true")
	c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
	c.Abort()
}

func abortInProgress(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusConflict, apperror.ErrConflict.WithMessage(
		"A request with this Idempotency-Key is still being processed"))
}

func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
