// Package handler はHTTPのルーティングと、画面・JSON API・イベント配信のハンドラーを提供する。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/empdir/internal/employee"
	"github.com/hitoshi/empdir/internal/form"
	"github.com/hitoshi/empdir/internal/i18n"
	"github.com/hitoshi/empdir/internal/metrics"
	"github.com/hitoshi/empdir/internal/middleware"
	"github.com/hitoshi/empdir/internal/model"
	"github.com/hitoshi/empdir/internal/view"
)

// EmployeeStore はハンドラーが必要とする社員ストアのインターフェース。
// employee.Store の部分集合として定義する。
type EmployeeStore interface {
	Add(fields model.EmployeeFields) model.Employee
	Update(id string, changes model.EmployeeChanges) (model.Employee, bool)
	Remove(id string) bool
	SelectAll() []model.Employee
	SelectByID(id string) (model.Employee, bool)
	Count() int
	Subscribe(fn employee.Listener) (unsubscribe func())
}

// Searcher は社員スナップショットを検索するインターフェース。
type Searcher interface {
	Filter(snapshot []model.Employee, query string) []model.Employee
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Store     EmployeeStore
	Searcher  Searcher
	Sessions  middleware.SessionRegistry
	Renderer  *view.Renderer
	Catalog   *i18n.Catalog
	Validator *form.Validator
	Events    *EventHub

	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRF              middleware.CSRFConfig
	ViewSession       middleware.ViewSessionConfig

	// メトリクス。nilの場合は記録しない。
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer

	// ページネーション
	PageSize   int
	MaxVisible int

	Logger *slog.Logger
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders
//	  画面:     RateLimit(General) → ViewSession → CSRF → RateLimit(Mutation)
//	  JSON API: CORS → RateLimit(General) → CSRF → RateLimit(Mutation)
//
// 全体のレート制限はセッション生成より前に接続元IP単位で適用し、
// 変更リクエストの制限は一覧画面セッション単位で適用する。
// /health と /metrics は画面・APIのミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}

	r := chi.NewRouter()

	pages := NewPageHandler(PageHandlerConfig{
		Store:      deps.Store,
		Searcher:   deps.Searcher,
		Renderer:   deps.Renderer,
		Catalog:    deps.Catalog,
		Validator:  deps.Validator,
		Metrics:    deps.Metrics,
		Routes:     r,
		PageSize:   deps.PageSize,
		MaxVisible: deps.MaxVisible,
		Live:       deps.Events != nil,
		Logger:     deps.Logger,
	})
	api := NewEmployeeAPIHandler(deps.Store, deps.Searcher, deps.Validator, deps.Catalog, deps.PageSize, deps.Logger)

	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	// --- 監視用のルート ---
	r.Get("/health", healthHandler(deps.Store))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 画面 ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewViewSessionMiddleware(deps.Sessions, deps.ViewSession))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRF))
		r.Use(deps.RateLimiter.MutationMiddleware())

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			navigate(w, r, view.PathList)
		})

		r.Route(view.PathList, func(r chi.Router) {
			r.Get("/", pages.List)
			if deps.Events != nil {
				r.Get("/events", deps.Events.ServeHTTP)
			}
			r.Get("/new", pages.New)
			r.Post("/new", pages.Create)
			r.Get("/edit/{id}", pages.Edit)
			r.Post("/edit/{id}", pages.Update)
			r.Get("/delete/{id}", pages.ConfirmDelete)
			r.Post("/delete/{id}", pages.Delete)
			r.NotFound(pages.NotFound)
		})

		r.NotFound(pages.NotFound)
	})

	// --- JSON API ---
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRF))
		r.Use(deps.RateLimiter.MutationMiddleware())

		r.Get("/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF).ServeHTTP)

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", api.List)
			r.Post("/", api.Create)
			r.Get("/{id}", api.Get)
			r.Patch("/{id}", api.Patch)
			r.Delete("/{id}", api.Delete)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewRouteNotFoundError(r.URL.Path))
		})
	})

	return r
}

// MatchRoute は method と path に一致するルートが routes にあるかを返す。副作用はない。
func MatchRoute(routes chi.Routes, method, path string) bool {
	return routes.Match(chi.NewRouteContext(), method, path)
}

// navigate は target へ 303 See Other でリダイレクトする。
// フォーム送信後の再読み込みで二重送信にならないよう、常にGETで遷移させる。
func navigate(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
