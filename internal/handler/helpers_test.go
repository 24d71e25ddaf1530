package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/html"

	"github.com/hitoshi/empdir/internal/employee"
	"github.com/hitoshi/empdir/internal/form"
	"github.com/hitoshi/empdir/internal/i18n"
	"github.com/hitoshi/empdir/internal/metrics"
	"github.com/hitoshi/empdir/internal/middleware"
	"github.com/hitoshi/empdir/internal/search"
	"github.com/hitoshi/empdir/internal/security"
	"github.com/hitoshi/empdir/internal/view"
	"github.com/hitoshi/empdir/internal/viewstate"
)

var seedTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fixture は本番と同じ構成のルーターとその依存関係。
type fixture struct {
	store     *employee.Store
	registry  *viewstate.Registry
	hub       *EventHub
	collector *metrics.Collector
	router    http.Handler
}

type fixtureOption func(*RouterDeps)

func newFixture(t *testing.T, seed bool, opts ...fixtureOption) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := employee.NewStore(nil, nil)

	catalog, err := i18n.New(i18n.LocaleEN)
	if err != nil {
		t.Fatalf("i18n.New: %v", err)
	}
	validator, err := form.NewValidator(catalog, security.NewTextSanitizer())
	if err != nil {
		t.Fatalf("form.NewValidator: %v", err)
	}
	renderer, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("view.NewRenderer: %v", err)
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	store.Subscribe(collector.ObserveChange)
	if seed {
		store.Seed(employee.SeedEmployees(seedTime))
	}

	registry := viewstate.NewRegistry(store, viewstate.DefaultRegistryConfig(), logger)
	rateLimiter := middleware.NewRateLimiter(middleware.PerMinuteRateLimiterConfig(10000, 10000))
	hub := NewEventHub(store, logger)
	t.Cleanup(func() {
		hub.Close()
		rateLimiter.Stop()
		registry.Close()
	})

	deps := &RouterDeps{
		Store:       store,
		Searcher:    search.New(search.Options{}),
		Sessions:    registry,
		Renderer:    renderer,
		Catalog:     catalog,
		Validator:   validator,
		Events:      hub,
		RateLimiter: rateLimiter,
		Metrics:     collector,
		Gatherer:    reg,
		PageSize:    9,
		MaxVisible:  5,
		Logger:      logger,
	}
	for _, opt := range opts {
		opt(deps)
	}

	return &fixture{
		store:     store,
		registry:  registry,
		hub:       hub,
		collector: collector,
		router:    NewRouter(deps),
	}
}

// browser はCookieを保持してルーターにリクエストを送るテスト用クライアント。
type browser struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
	header  http.Header
}

func newBrowser(t *testing.T, h http.Handler) *browser {
	return &browser{t: t, handler: h, cookies: make(map[string]*http.Cookie), header: http.Header{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	for k, v := range b.header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	b.handler.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	b.t.Helper()
	return b.do(httptest.NewRequest(http.MethodGet, target, nil))
}

// post はCSRFトークンを付けてフォームを送信する。
func (b *browser) post(target string, values url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	if values == nil {
		values = url.Values{}
	}
	if c, ok := b.cookies["csrf_token"]; ok {
		values.Set(middleware.CSRFFormField, c.Value)
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// follow は 303 の遷移先をGETする。
func (b *browser) follow(w *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	b.t.Helper()
	if w.Code != http.StatusSeeOther {
		b.t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	return b.get(w.Header().Get("Location"))
}

func parseHTML(t *testing.T, w *httptest.ResponseRecorder) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(w.Body.String()))
	if err != nil {
		t.Fatalf("html.Parse: %v", err)
	}
	return doc
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// rowIDs は一覧テーブルの行の社員IDを表示順に返す。
func rowIDs(doc *html.Node) []string {
	var ids []string
	for _, n := range findAll(doc, func(n *html.Node) bool { return n.Data == "tr" && attr(n, "data-id") != "" }) {
		ids = append(ids, attr(n, "data-id"))
	}
	return ids
}

// currentPage はページネーションで現在ページとして示された番号を返す。
func currentPage(doc *html.Node) string {
	nodes := findAll(doc, func(n *html.Node) bool { return attr(n, "aria-current") == "page" })
	if len(nodes) != 1 {
		return ""
	}
	return text(nodes[0])
}

func validForm() url.Values {
	return url.Values{
		form.FieldFirstName:        {"Zack"},
		form.FieldLastName:         {"Zephyr"},
		form.FieldDateOfEmployment: {"2024-03-01"},
		form.FieldDateOfBirth:      {"1990-07-14"},
		form.FieldPhone:            {"+(90) 555 000 11 22"},
		form.FieldEmail:            {"zack.zephyr@example.com"},
		form.FieldDepartment:       {"Tech"},
		form.FieldPosition:         {"Senior"},
	}
}
