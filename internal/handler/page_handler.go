package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/empdir/internal/form"
	"github.com/hitoshi/empdir/internal/i18n"
	"github.com/hitoshi/empdir/internal/metrics"
	"github.com/hitoshi/empdir/internal/middleware"
	"github.com/hitoshi/empdir/internal/model"
	"github.com/hitoshi/empdir/internal/pagination"
	"github.com/hitoshi/empdir/internal/view"
	"github.com/hitoshi/empdir/internal/viewstate"
)

// langParam は表示言語を切り替えるクエリパラメータ名。
const langParam = "lang"

// returnParam は削除確認画面の戻り先を渡すクエリパラメータ名。
const returnParam = "return"

// PageHandlerConfig は PageHandler の依存関係。
type PageHandlerConfig struct {
	Store     EmployeeStore
	Searcher  Searcher
	Renderer  *view.Renderer
	Catalog   *i18n.Catalog
	Validator *form.Validator
	Metrics   metrics.MetricsCollector
	// Routes は戻り先アドレスの検証に使うルート表。
	Routes     chi.Routes
	PageSize   int
	MaxVisible int
	// Live が true の場合、一覧画面はストアの変更イベントを購読する。
	Live   bool
	Logger *slog.Logger
}

// PageHandler は社員名簿の画面（一覧・追加・編集・削除確認・404）のHTTPハンドラー。
type PageHandler struct {
	cfg PageHandlerConfig
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(cfg PageHandlerConfig) *PageHandler {
	if cfg.PageSize < 1 {
		cfg.PageSize = pagination.DefaultPageSize
	}
	if cfg.MaxVisible < 1 {
		cfg.MaxVisible = pagination.DefaultMaxVisible
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &PageHandler{cfg: cfg}
}

// List は GET /employees を処理する。
// アドレスの page・view・q を一覧画面セッションの状態に同期し、
// 検索 → ページ分割した結果を描画する。検索文字列が変わった場合は
// page=1 を示すアドレスへリダイレクトする。
func (h *PageHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.ViewSessionFromContext(r.Context())
	if !ok {
		h.internalError(w, r, errors.New("view session missing from context"))
		return
	}
	locale := h.locale(r, session)

	compute := func(search string) []model.Employee {
		start := time.Now()
		filtered := h.cfg.Searcher.Filter(h.cfg.Store.SelectAll(), search)
		h.cfg.Metrics.RecordSearchLatency(time.Since(start))
		return filtered
	}
	totalPages := func(search string) int {
		return pagination.TotalPages(len(session.Filtered(search, compute)), h.cfg.PageSize)
	}

	res := viewstate.Sync(session.State(), r.URL.Query(), totalPages)
	session.SetState(res.State)
	if res.Redirect {
		navigate(w, r, res.State.URL(view.PathList))
		return
	}

	state := res.State
	filtered := session.Filtered(state.Search, compute)
	pages := pagination.TotalPages(len(filtered), h.cfg.PageSize)

	h.render(w, r, http.StatusOK, view.PageList, view.ListPage{
		Layout:    h.layout(r, locale, h.cfg.Live),
		State:     state,
		Employees: pagination.Paginate(filtered, state.Page, h.cfg.PageSize),
		Pager:     pagination.NewPager(state.Page, pages, h.cfg.MaxVisible),
		Total:     len(filtered),
	})
}

// New は GET /employees/new を処理し、空の追加フォームを描画する。
func (h *PageHandler) New(w http.ResponseWriter, r *http.Request) {
	locale := h.locale(r, h.session(r))
	h.render(w, r, http.StatusOK, view.PageForm, view.FormPage{
		Layout: h.layout(r, locale, false),
		Action: view.PathNew,
		Values: form.EmployeeInput{}.Values(),
	})
}

// Create は POST /employees/new を処理する。
// 入力が正しければ社員を追加して一覧へ遷移し、誤りがあればメッセージ付きでフォームを再表示する。
func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	locale := h.locale(r, h.session(r))

	in, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	fields, err := h.cfg.Validator.Validate(in, locale)
	if err != nil {
		h.formError(w, r, err, view.FormPage{
			Layout: h.layout(r, locale, false),
			Action: view.PathNew,
			Values: in.Values(),
		})
		return
	}

	e := h.cfg.Store.Add(fields)
	h.cfg.Logger.Info("employee added", slog.String("employee_id", e.ID))
	navigate(w, r, view.PathList)
}

// Edit は GET /employees/edit/{id} を処理し、既存の値を入れた編集フォームを描画する。
func (h *PageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	locale := h.locale(r, h.session(r))

	e, ok := h.cfg.Store.SelectByID(chi.URLParam(r, "id"))
	if !ok {
		h.NotFound(w, r)
		return
	}

	h.render(w, r, http.StatusOK, view.PageForm, view.FormPage{
		Layout:  h.layout(r, locale, false),
		Editing: &e,
		Action:  view.EditPath(e.ID),
		Values:  form.FromEmployee(e).Values(),
	})
}

// Update は POST /employees/edit/{id} を処理する。
// 全フィールドを送信値で置き換え、一覧へ遷移する。
func (h *PageHandler) Update(w http.ResponseWriter, r *http.Request) {
	locale := h.locale(r, h.session(r))

	e, ok := h.cfg.Store.SelectByID(chi.URLParam(r, "id"))
	if !ok {
		h.NotFound(w, r)
		return
	}

	in, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	fields, err := h.cfg.Validator.Validate(in, locale)
	if err != nil {
		h.formError(w, r, err, view.FormPage{
			Layout:  h.layout(r, locale, false),
			Editing: &e,
			Action:  view.EditPath(e.ID),
			Values:  in.Values(),
		})
		return
	}

	// 検証中に削除された場合は何も更新されない
	if _, ok := h.cfg.Store.Update(e.ID, model.ChangesFromFields(fields)); !ok {
		h.NotFound(w, r)
		return
	}
	h.cfg.Logger.Info("employee updated", slog.String("employee_id", e.ID))
	navigate(w, r, view.PathList)
}

// ConfirmDelete は GET /employees/delete/{id} を処理し、削除確認ダイアログを描画する。
func (h *PageHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	locale := h.locale(r, h.session(r))

	e, ok := h.cfg.Store.SelectByID(chi.URLParam(r, "id"))
	if !ok {
		h.NotFound(w, r)
		return
	}

	back := h.returnURL(r)
	h.render(w, r, http.StatusOK, view.PageDelete, view.DeletePage{
		Layout:    h.layout(r, locale, false),
		Employee:  e,
		Action:    view.DeletePath(e.ID) + "?" + url.Values{returnParam: {back}}.Encode(),
		CancelURL: back,
	})
}

// Delete は POST /employees/delete/{id} を処理する。
// 削除は冪等で、存在しないIDでも戻り先へ遷移する。
func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.cfg.Store.Remove(id) {
		h.cfg.Logger.Info("employee removed", slog.String("employee_id", id))
	}
	navigate(w, r, h.returnURL(r))
}

// NotFound は未定義のパスや存在しない社員に対して404画面を描画する。
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	locale := h.locale(r, h.session(r))
	h.render(w, r, http.StatusNotFound, view.PageNotFound, view.NotFoundPage{
		Layout: h.layout(r, locale, false),
	})
}

// session はリクエストの一覧画面セッションを返す。ない場合は nil。
func (h *PageHandler) session(r *http.Request) *viewstate.Session {
	s, _ := middleware.ViewSessionFromContext(r.Context())
	return s
}

// locale は表示言語を決める。
// ?lang= が対応言語ならセッションに記録して使い、次にセッションの記録、
// 最後に Accept-Language のネゴシエーション結果を使う。
func (h *PageHandler) locale(r *http.Request, session *viewstate.Session) string {
	if lang := r.URL.Query().Get(langParam); lang != "" && h.cfg.Catalog.Supported(lang) {
		if session != nil {
			session.SetLocale(lang)
		}
		return lang
	}
	if session != nil {
		if lang := session.Locale(); lang != "" {
			return lang
		}
	}
	return h.cfg.Catalog.Negotiate(r.Header.Get("Accept-Language"))
}

// layout は全画面共通の表示モデルを組み立てる。
func (h *PageHandler) layout(r *http.Request, locale string, live bool) view.Layout {
	return view.Layout{
		L:               h.cfg.Catalog.Localizer(locale),
		CSRFToken:       middleware.CSRFTokenFromContext(r.Context()),
		SwitchLocaleURL: switchLocaleURL(r, locale),
		Live:            live,
	}
}

// switchLocaleURL は現在のアドレスに lang パラメータを付けて、もう一方の言語へ切り替えるアドレスを返す。
// フォーム送信後の再表示では送信先ではなく同じ画面のGETアドレスになる。
func switchLocaleURL(r *http.Request, locale string) string {
	other := i18n.LocaleTR
	if locale == i18n.LocaleTR {
		other = i18n.LocaleEN
	}
	q := r.URL.Query()
	q.Set(langParam, other)
	return r.URL.Path + "?" + q.Encode()
}

// returnURL は削除後の戻り先を返す。
// 同一オリジンの一覧画面アドレスのみ許可し、それ以外は一覧の先頭とする。
func (h *PageHandler) returnURL(r *http.Request) string {
	raw := r.URL.Query().Get(returnParam)
	if raw == "" {
		return view.PathList
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" || u.Path != view.PathList {
		return view.PathList
	}
	if h.cfg.Routes != nil && !MatchRoute(h.cfg.Routes, http.MethodGet, u.Path) {
		return view.PathList
	}
	return u.RequestURI()
}

// parseForm はフォームの送信値を読み取る。失敗した場合はエラーレスポンスを書き込み ok=false を返す。
func (h *PageHandler) parseForm(w http.ResponseWriter, r *http.Request) (form.EmployeeInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("malformed form body"))
		return form.EmployeeInput{}, false
	}
	return form.FromValues(r.PostForm), true
}

// formError はバリデーションエラーを 422 でフォームに表示する。それ以外のエラーは500とする。
func (h *PageHandler) formError(w http.ResponseWriter, r *http.Request, err error, page view.FormPage) {
	var verr *form.ValidationError
	if !errors.As(err, &verr) {
		h.internalError(w, r, err)
		return
	}
	page.Errors = verr.Fields
	h.render(w, r, http.StatusUnprocessableEntity, view.PageForm, page)
}

// render は画面を描画する。描画に失敗した場合は500を返す。
func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	var buf bytes.Buffer
	if err := h.cfg.Renderer.Render(&buf, page, data); err != nil {
		h.internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *PageHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.cfg.Logger.Error("page handler failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}
