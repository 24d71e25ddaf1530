package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    2,
		MutationRate:    1,
		MutationBurst:   1,
		CleanupInterval: time.Minute,
	}
}

func requestFrom(method, remoteAddr string) *http.Request {
	req := httptest.NewRequest(method, "/employees", nil)
	req.RemoteAddr = remoteAddr
	return req
}

// --- GeneralMiddleware のテスト ---

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	cfg := testRateLimiterConfig()
	cfg.GeneralBurst = 5
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	calls := 0
	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	// バースト内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom(http.MethodGet, "192.0.2.1:1234"))
		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
	if calls != 5 {
		t.Errorf("handler call count = %d, want 5", calls)
	}
}

func TestRateLimitMiddleware_Returns429WithRetryAfter(t *testing.T) {
	cfg := testRateLimiterConfig()
	cfg.GeneralRate = rate.Limit(30.0 / 60.0)
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler)

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), requestFrom(http.MethodGet, "192.0.2.1:1234"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom(http.MethodGet, "192.0.2.1:1234"))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil {
		t.Fatalf("Retry-After = %q: %v", w.Header().Get("Retry-After"), err)
	}
	// 0.5 req/sec なので1トークンの補充に2秒
	if retryAfter != 2 {
		t.Errorf("Retry-After = %d, want 2", retryAfter)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["code"] != "RATE_LIMIT_EXCEEDED" || body["category"] != "system" {
		t.Errorf("body = %v", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

// TestRateLimitMiddleware_IsolatesClients はクライアントごとに独立して制限されることを検証する。
func TestRateLimitMiddleware_IsolatesClients(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler)

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), requestFrom(http.MethodGet, "192.0.2.1:1234"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom(http.MethodGet, "198.51.100.7:5678"))
	if w.Code != http.StatusOK {
		t.Errorf("other client status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", got)
	}
}

// TestRateLimitMiddleware_KeysBySession は同じIPでも一覧画面セッションごとに制限されることを検証する。
func TestRateLimitMiddleware_KeysBySession(t *testing.T) {
	registry := newTestRegistry(t)
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler)

	first, _ := withSession(t, registry, requestFrom(http.MethodGet, "192.0.2.1:1234"))
	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), first)
	}

	second, _ := withSession(t, registry, requestFrom(http.MethodGet, "192.0.2.1:1234"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, second)
	if w.Code != http.StatusOK {
		t.Errorf("second session status = %d, want %d", w.Code, http.StatusOK)
	}
}

// --- MutationMiddleware のテスト ---

func TestMutationRateLimit_SafeMethodsAreNotCounted(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.MutationMiddleware()(okHandler)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom(http.MethodGet, "192.0.2.1:1234"))
		if w.Code != http.StatusOK {
			t.Fatalf("GET %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
	if got := rl.MutationLimiterCount(); got != 0 {
		t.Errorf("MutationLimiterCount = %d, want 0", got)
	}
}

func TestMutationRateLimit_Returns429WhenLimitExceeded(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.MutationMiddleware()(okHandler)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom(http.MethodPost, "192.0.2.1:1234"))
	if w.Code != http.StatusOK {
		t.Fatalf("first POST status = %d, want %d", w.Code, http.StatusOK)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom(http.MethodDelete, "192.0.2.1:1234"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second mutation status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}

// TestMutationRateLimit_IndependentFromGeneralLimit は変更用の制限が全体の制限と独立していることを検証する。
func TestMutationRateLimit_IndependentFromGeneralLimit(t *testing.T) {
	cfg := testRateLimiterConfig()
	cfg.GeneralBurst = 10
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(rl.MutationMiddleware()(okHandler))

	handler.ServeHTTP(httptest.NewRecorder(), requestFrom(http.MethodPost, "192.0.2.1:1234"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom(http.MethodPost, "192.0.2.1:1234"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("mutation status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom(http.MethodGet, "192.0.2.1:1234"))
	if w.Code != http.StatusOK {
		t.Errorf("GET status = %d, want %d", w.Code, http.StatusOK)
	}
}

// --- クリーンアップ・設定のテスト ---

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	rl.GeneralMiddleware()(okHandler).ServeHTTP(httptest.NewRecorder(), requestFrom(http.MethodGet, "192.0.2.1:1234"))
	rl.MutationMiddleware()(okHandler).ServeHTTP(httptest.NewRecorder(), requestFrom(http.MethodPost, "192.0.2.1:1234"))

	rl.cleanup(time.Now())
	if rl.GeneralLimiterCount() != 1 || rl.MutationLimiterCount() != 1 {
		t.Fatal("fresh entries should survive cleanup")
	}

	rl.cleanup(time.Now().Add(3 * time.Minute))
	if rl.GeneralLimiterCount() != 0 || rl.MutationLimiterCount() != 0 {
		t.Errorf("counts = %d, %d, want 0, 0", rl.GeneralLimiterCount(), rl.MutationLimiterCount())
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	rl.Stop()
	rl.Stop()
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()

	if cfg.GeneralRate != rate.Limit(2) {
		t.Errorf("GeneralRate = %v, want 2", cfg.GeneralRate)
	}
	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.MutationRate != rate.Limit(0.5) {
		t.Errorf("MutationRate = %v, want 0.5", cfg.MutationRate)
	}
	if cfg.MutationBurst != 30 {
		t.Errorf("MutationBurst = %d, want 30", cfg.MutationBurst)
	}
	if cfg.CleanupInterval != 5*time.Minute {
		t.Errorf("CleanupInterval = %v, want 5m", cfg.CleanupInterval)
	}
}
