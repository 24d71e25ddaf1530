package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/empdir/internal/config"
	"github.com/hitoshi/empdir/internal/employee"
	"github.com/hitoshi/empdir/internal/form"
	"github.com/hitoshi/empdir/internal/handler"
	"github.com/hitoshi/empdir/internal/i18n"
	"github.com/hitoshi/empdir/internal/logger"
	"github.com/hitoshi/empdir/internal/metrics"
	"github.com/hitoshi/empdir/internal/middleware"
	"github.com/hitoshi/empdir/internal/model"
	"github.com/hitoshi/empdir/internal/search"
	"github.com/hitoshi/empdir/internal/security"
	"github.com/hitoshi/empdir/internal/view"
	"github.com/hitoshi/empdir/internal/viewstate"
)

// shutdownTimeout はグレースフルシャットダウンの待機上限。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、LOG_LEVEL に従ってJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, _ := cfg.SlogLevel()
	logger.SetupDefault(w, level)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", ":"+cfg.ServerPort)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return serve(ctx, cfg, ln)
}

// components は1プロセス分の組み立て済み依存関係。
type components struct {
	store   *employee.Store
	handler http.Handler
	hub     *handler.EventHub
	closers []func()
}

// close は生成と逆順に後始末を行う。
func (c *components) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// build は設定から全依存関係をワイヤリングし、ルーターを構築する。
func build(cfg *config.Config, log *slog.Logger) (*components, error) {
	c := &components{}

	// 1. ストアとメトリクス
	// シード前にコレクターを購読させ、件数ゲージに初期データを反映させる。
	c.store = employee.NewStore(nil, nil)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)
	c.closers = append(c.closers, c.store.Subscribe(collector.ObserveChange))
	c.closers = append(c.closers, c.store.Subscribe(func(change model.Change) {
		log.Debug("employee change",
			slog.String("kind", string(change.Kind)),
			slog.String("employee_id", change.ID),
			slog.Uint64("version", change.Version),
			slog.Int("count", change.Count),
		)
	}))

	if cfg.SeedEmployees {
		n := c.store.Seed(employee.SeedEmployees(time.Now()))
		log.Info("seeded employees", slog.Int("count", n))
	}

	// 2. 表示・検索・検証
	catalog, err := i18n.New(cfg.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	validator, err := form.NewValidator(catalog, security.NewTextSanitizer())
	if err != nil {
		return nil, fmt.Errorf("failed to build validator: %w", err)
	}
	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	searcher := search.New(search.Options{Threshold: cfg.SearchThreshold})

	// 3. セッション・レート制限・イベント
	registry := viewstate.NewRegistry(c.store, viewstate.RegistryConfig{
		TTL:             cfg.SessionTTL,
		CleanupInterval: cfg.SessionCleanupInterval,
		OnLenChange:     collector.SetViewSessions,
	}, log)
	c.closers = append(c.closers, registry.Close)

	rateLimiter := middleware.NewRateLimiter(
		middleware.PerMinuteRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitMutation),
	)
	c.closers = append(c.closers, rateLimiter.Stop)

	c.hub = handler.NewEventHub(c.store, log)
	c.closers = append(c.closers, c.hub.Close)

	// 4. ルーターの構築
	c.handler = handler.NewRouter(&handler.RouterDeps{
		Store:             c.store,
		Searcher:          searcher,
		Sessions:          registry,
		Renderer:          renderer,
		Catalog:           catalog,
		Validator:         validator,
		Events:            c.hub,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRF: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		ViewSession: middleware.ViewSessionConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		Metrics:    collector,
		Gatherer:   reg,
		PageSize:   cfg.PageSize,
		MaxVisible: cfg.PaginationMaxVisible,
		Logger:     log,
	})

	return c, nil
}

// serve はlnでHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルシャットダウンを行う。
func serve(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	c, err := build(cfg, slog.Default())
	if err != nil {
		ln.Close()
		return err
	}
	defer c.close()

	// WriteTimeout はSSEのハンドラーが接続ごとに解除する。
	server := &http.Server{
		Handler:           c.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	// Shutdown はハイジャックされていない長時間接続を待つため、先にSSEを終了させる
	server.RegisterOnShutdown(c.hub.Close)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", ln.Addr().String()),
			slog.Int("employees", c.store.Count()),
		)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("HTTP server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	return checkHealth(fmt.Sprintf("http://localhost:%s/health", port))
}

func checkHealth(url string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
