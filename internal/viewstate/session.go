package viewstate

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/empdir/internal/employee"
	"github.com/hitoshi/empdir/internal/model"
)

// Subscriber はストアの変更通知を購読できるもの。
// employee.Store の部分集合として定義する。
type Subscriber interface {
	Subscribe(fn employee.Listener) (unsubscribe func())
}

// Session はブラウザ1つ分の一覧画面の状態と、検索結果のキャッシュを保持する。
// 生成時（マウント）にストアを購読し、破棄時（アンマウント）に購読を解除する。
type Session struct {
	ID string

	mu         sync.Mutex
	state      State
	locale     string
	lastAccess time.Time

	// 派生ビューのキャッシュ。ストア変更で dirty になり、次回描画時に再計算する。
	dirty        bool
	cachedSearch string
	filtered     []model.Employee

	unsubscribe func()
}

// State は現在のUI状態を返す。
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState はUI状態を置き換える。
func (s *Session) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Locale はセッションに記録されたロケールを返す。未設定の場合は空文字列。
func (s *Session) Locale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locale
}

// SetLocale はロケールを記録する。
func (s *Session) SetLocale(locale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locale = locale
}

// Filtered は search に対する検索結果を返す。
// ストアが変更された後、または検索文字列が変わった場合にのみ compute を呼び出す。
func (s *Session) Filtered(search string, compute func(search string) []model.Employee) []model.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty || s.filtered == nil || s.cachedSearch != search {
		s.filtered = compute(search)
		if s.filtered == nil {
			s.filtered = []model.Employee{}
		}
		s.cachedSearch = search
		s.dirty = false
	}
	return s.filtered
}

func (s *Session) markDirty(model.Change) {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastAccess)
}

// RegistryConfig は Registry の設定。
type RegistryConfig struct {
	// TTL は最終アクセスからセッションを破棄するまでの時間。
	TTL time.Duration
	// CleanupInterval は期限切れセッションの掃除間隔。
	CleanupInterval time.Duration
	// OnLenChange はセッション数が変わるたびに新しい件数で呼ばれる。メトリクス用。
	OnLenChange func(n int)
}

// DefaultRegistryConfig は既定の設定を返す。
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		TTL:             30 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// Registry はセッションをIDで管理する。
// バックグラウンドで期限切れセッションを破棄する。
type Registry struct {
	store  Subscriber
	config RegistryConfig
	now    func() time.Time
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewRegistry は Registry を生成し、クリーンアップのgoroutineを開始する。
// 利用後は Close を呼ぶこと。
func NewRegistry(store Subscriber, config RegistryConfig, logger *slog.Logger) *Registry {
	if config.TTL <= 0 {
		config.TTL = DefaultRegistryConfig().TTL
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultRegistryConfig().CleanupInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		store:    store,
		config:   config,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[string]*Session),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	go r.cleanupLoop()

	return r
}

// Get は有効なセッションを返し、最終アクセス時刻を更新する。
func (r *Registry) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.touch(r.now())
	return s, true
}

// Create は初期状態の新しいセッションを生成し、ストアを購読する。
func (r *Registry) Create() *Session {
	s := &Session{
		ID:         uuid.NewString(),
		state:      Default(),
		lastAccess: r.now(),
		dirty:      true,
	}
	s.unsubscribe = r.store.Subscribe(s.markDirty)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Debug("view session mounted", slog.String("session_id", s.ID))
	r.reportLen()
	return s
}

// GetOrCreate は id のセッションを返す。存在しない場合は新規生成し created=true を返す。
func (r *Registry) GetOrCreate(id string) (s *Session, created bool) {
	if s, ok := r.Get(id); ok {
		return s, false
	}
	return r.Create(), true
}

// Remove はセッションを破棄し、ストアの購読を解除する。
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		r.unmount(s, "removed")
		r.reportLen()
	}
}

// Len は管理中のセッション数を返す。
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close はクリーンアップを停止し、全セッションの購読を解除する。
func (r *Registry) Close() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		<-r.doneCh

		r.mu.Lock()
		sessions := r.sessions
		r.sessions = make(map[string]*Session)
		r.mu.Unlock()

		for _, s := range sessions {
			r.unmount(s, "closed")
		}
		r.reportLen()
	})
}

func (r *Registry) reportLen() {
	if r.config.OnLenChange != nil {
		r.config.OnLenChange(r.Len())
	}
}

func (r *Registry) unmount(s *Session, reason string) {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	r.logger.Debug("view session unmounted",
		slog.String("session_id", s.ID),
		slog.String("reason", reason),
	)
}

func (r *Registry) cleanupLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cleanup()
		case <-r.stopCh:
			return
		}
	}
}

// cleanup は最終アクセスから TTL を超えたセッションを破棄する。
func (r *Registry) cleanup() {
	now := r.now()

	var expired []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.idleSince(now) > r.config.TTL {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		r.unmount(s, "expired")
	}
	if len(expired) > 0 {
		r.reportLen()
	}
}
