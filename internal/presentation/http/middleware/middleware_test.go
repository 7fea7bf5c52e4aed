package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/vendas-api/internal/config"
	"github.com/sangkips/vendas-api/internal/domain/entity"
	"github.com/sangkips/vendas-api/internal/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryIdempotencyRepo struct {
	mu   sync.Mutex
	keys map[string]*entity.IdempotencyKey
}

func newMemoryIdempotencyRepo() *memoryIdempotencyRepo {
	return &memoryIdempotencyRepo{keys: make(map[string]*entity.IdempotencyKey)}
}

func (r *memoryIdempotencyRepo) GetByKey(_ context.Context, key string, endpoint string) (*entity.IdempotencyKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ikey, ok := r.keys[endpoint+"|"+key]
	if !ok {
		return nil, nil
	}
	cp := *ikey
	return &cp, nil
}

// lookupBarrierRepo holds the first two lookups until both have arrived, so
// two requests under one key both see it unused.
type lookupBarrierRepo struct {
	*memoryIdempotencyRepo
	mu      sync.Mutex
	lookups int
	both    chan struct{}
}

func (r *lookupBarrierRepo) GetByKey(ctx context.Context, key string, endpoint string) (*entity.IdempotencyKey, error) {
	r.mu.Lock()
	r.lookups++
	n := r.lookups
	if n == 2 {
		close(r.both)
	}
	r.mu.Unlock()
	if n <= 2 {
		<-r.both
	}
	return r.memoryIdempotencyRepo.GetByKey(ctx, key, endpoint)
}

func (r *memoryIdempotencyRepo) Reserve(_ context.Context, ikey *entity.IdempotencyKey) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.keys[ikey.Endpoint+"|"+ikey.Key]; taken {
		return false, nil
	}
	cp := *ikey
	r.keys[ikey.Endpoint+"|"+ikey.Key] = &cp
	return true, nil
}

func (r *memoryIdempotencyRepo) Complete(_ context.Context, ikey *entity.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ikey
	r.keys[ikey.Endpoint+"|"+ikey.Key] = &cp
	return nil
}

func (r *memoryIdempotencyRepo) Release(_ context.Context, key string, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, endpoint+"|"+key)
	return nil
}

func (r *memoryIdempotencyRepo) DeleteExpired(context.Context) error {
	return nil
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewClientRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	defer rl.Stop()

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2"))
	assert.Equal(t, 2, rl.Stats()["active_clients"])
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewClientRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 1, EntryTTL: time.Millisecond})
	defer rl.Stop()

	rl.getLimiter("10.0.0.1")
	time.Sleep(5 * time.Millisecond)
	rl.cleanup()
	assert.Equal(t, 0, rl.Stats()["active_clients"])
}

func TestRateLimiterConfigFrom(t *testing.T) {
	cfg := RateLimiterConfigFrom(120, 60)
	assert.Equal(t, 2.0, cfg.RequestsPerSecond)
	assert.Equal(t, 120, cfg.BurstSize)

	assert.Equal(t, DefaultRateLimiterConfig(), RateLimiterConfigFrom(0, 60))
}

func idempotentRouter(repo *memoryIdempotencyRepo, status *int, calls *int) *gin.Engine {
	router := gin.New()
	router.POST("/things", Idempotency(IdempotencyConfig{Repo: repo}), func(c *gin.Context) {
		*calls++
		c.JSON(*status, gin.H{"call": *calls})
	})
	return router
}

func post(router *gin.Engine, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotencyReplaysSuccess(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	status, calls := http.StatusCreated, 0
	router := idempotentRouter(repo, &status, &calls)

	first := post(router, `{"a":1}`, "k1")
	second := post(router, `{"a":1}`, "k1")

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(IdempotencyReplayedHeader))

	stored, err := repo.GetByKey(context.Background(), "k1", "POST /things")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Len(t, stored.RequestHash, 64)

	post(router, `{"a":1}`, "")
	assert.Equal(t, 2, calls)
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	status, calls := http.StatusBadRequest, 0
	router := idempotentRouter(repo, &status, &calls)

	post(router, `{}`, "k2")
	status = http.StatusCreated
	w := post(router, `{}`, "k2")

	assert.Equal(t, 2, calls)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(IdempotencyReplayedHeader))
}

func TestIdempotencyRejectsReusedKeyWithNewBody(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	status, calls := http.StatusCreated, 0
	router := idempotentRouter(repo, &status, &calls)

	post(router, `{"a":1}`, "k3")
	w := post(router, `{"a":2}`, "k3")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, calls)
}

// holdingRouter answers 201 once hold is closed and signals entered when a
// request reaches the handler.
func holdingRouter(repo repository.IdempotencyRepository, calls *atomic.Int32, entered chan<- struct{}, hold <-chan struct{}) *gin.Engine {
	router := gin.New()
	router.POST("/things", Idempotency(IdempotencyConfig{Repo: repo}), func(c *gin.Context) {
		n := calls.Add(1)
		if entered != nil {
			entered <- struct{}{}
		}
		<-hold
		c.JSON(http.StatusCreated, gin.H{"call": n})
	})
	return router
}

func TestIdempotencyRunsHandlerOnceForConcurrentRetries(t *testing.T) {
	repo := &lookupBarrierRepo{memoryIdempotencyRepo: newMemoryIdempotencyRepo(), both: make(chan struct{})}
	var calls atomic.Int32
	hold := make(chan struct{})
	router := holdingRouter(repo, &calls, nil, hold)

	results := make(chan *httptest.ResponseRecorder, 2)
	for i := 0; i < 2; i++ {
		go func() { results <- post(router, `{"a":1}`, "k4") }()
	}

	// The request that lost the reservation answers while the winner is held.
	loser := <-results
	assert.Equal(t, http.StatusConflict, loser.Code)
	close(hold)
	winner := <-results

	assert.Equal(t, http.StatusCreated, winner.Code)
	assert.Equal(t, int32(1), calls.Load())

	replay := post(router, `{"a":1}`, "k4")
	assert.Equal(t, "true", replay.Header().Get(IdempotencyReplayedHeader))
	assert.Equal(t, int32(1), calls.Load())
}

func TestIdempotencyRejectsRetryWhileFirstIsInFlight(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	var calls atomic.Int32
	entered := make(chan struct{}, 1)
	hold := make(chan struct{})
	router := holdingRouter(repo, &calls, entered, hold)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- post(router, `{"a":1}`, "k5") }()
	<-entered

	retry := post(router, `{"a":1}`, "k5")
	assert.Equal(t, http.StatusConflict, retry.Code)
	assert.Contains(t, retry.Body.String(), "still being processed")

	close(hold)
	assert.Equal(t, http.StatusCreated, (<-first).Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestIdempotencyRejectsOversizedBody(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	calls := 0
	router := gin.New()
	router.POST("/things", Idempotency(IdempotencyConfig{Repo: repo, MaxBodyBytes: 8}), func(c *gin.Context) {
		calls++
		c.Status(http.StatusCreated)
	})

	w := post(router, `{"a":"0123456789"}`, "k6")

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "PAYLOAD_TOO_LARGE")
	assert.Equal(t, 0, calls)
}

func TestIdempotencyRetriesAfterExpiredReservation(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	_, err := repo.Reserve(context.Background(), &entity.IdempotencyKey{
		Key:       "k7",
		Endpoint:  "POST /things",
		ExpiresAt: time.Now().Add(-time.Second),
	})
	require.NoError(t, err)

	status, calls := http.StatusCreated, 0
	w := post(idempotentRouter(repo, &status, &calls), `{"a":1}`, "k7")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
}

func TestLoggerSetsRequestID(t *testing.T) {
	router := gin.New()
	router.Use(LoggerMiddleware())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc", w.Body.String())
}

func TestCORSExposesListingAndReplayHeaders(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware(&config.CORSConfig{
		AllowedOrigins: []string{"http://shop.test"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://shop.test")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	exposed := w.Header().Get("Access-Control-Expose-Headers")
	assert.Contains(t, exposed, "X-Total-Count")
	assert.Contains(t, exposed, IdempotencyReplayedHeader)

	preflight := httptest.NewRequest(http.MethodOptions, "/", nil)
	preflight.Header.Set("Origin", "http://shop.test")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	preflight.Header.Set("Access-Control-Request-Headers", IdempotencyKeyHeader)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, preflight)

	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), IdempotencyKeyHeader)
}
