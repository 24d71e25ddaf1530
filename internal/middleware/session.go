// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"
	"sync"

	"github.com/hitoshi/empdir/internal/viewstate"
)

// ViewSessionCookieName は一覧画面セッションIDを保持するCookieの名前。
const ViewSessionCookieName = "empdir_view"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// viewSessionContextKey はリクエストコンテキストに一覧画面セッションを格納するためのキー。
var viewSessionContextKey = contextKey("view_session")

// SessionRegistry は一覧画面セッションの取得・生成に必要なインターフェース。
// viewstate.Registry の部分集合として定義する。
type SessionRegistry interface {
	GetOrCreate(id string) (*viewstate.Session, bool)
}

// ViewSessionConfig は一覧画面セッションミドルウェアの設定。
type ViewSessionConfig struct {
	CookieSecure bool
	CookieDomain string
	// MaxAge はCookieの有効期間（秒）。0の場合はブラウザセッション限り。
	MaxAge int
}

// NewViewSessionMiddleware はCookieから一覧画面セッションを読み取り、
// 存在しなければ新規作成してCookieを発行するミドルウェアを返す。
// セッションはリクエストコンテキストに注入される。
// 認証ではないため、Cookieがなくてもリクエストは拒否しない。
func NewViewSessionMiddleware(registry SessionRegistry, config ViewSessionConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if cookie, err := r.Cookie(ViewSessionCookieName); err == nil {
				id = cookie.Value
			}

			session, created := registry.GetOrCreate(id)
			if created {
				http.SetCookie(w, &http.Cookie{
					Name:     ViewSessionCookieName,
					Value:    session.ID,
					Path:     "/",
					Domain:   config.CookieDomain,
					MaxAge:   config.MaxAge,
					HttpOnly: true,
					Secure:   config.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			if holder, ok := r.Context().Value(sessionHolderContextKey).(*sessionHolder); ok {
				holder.set(session.ID)
			}

			next.ServeHTTP(w, r.WithContext(ContextWithViewSession(r.Context(), session)))
		})
	}
}

// ViewSessionFromContext はリクエストコンテキストから一覧画面セッションを取得する。
// ミドルウェアを通過していない場合は ok=false を返す。
func ViewSessionFromContext(ctx context.Context) (*viewstate.Session, bool) {
	session, ok := ctx.Value(viewSessionContextKey).(*viewstate.Session)
	return session, ok && session != nil
}

// ContextWithViewSession はコンテキストに一覧画面セッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithViewSession(ctx context.Context, session *viewstate.Session) context.Context {
	return context.WithValue(ctx, viewSessionContextKey, session)
}

// SessionIDFromContext はコンテキストの一覧画面セッションIDを返す。なければ空文字列。
func SessionIDFromContext(ctx context.Context) string {
	if session, ok := ViewSessionFromContext(ctx); ok {
		return session.ID
	}
	return ""
}

// sessionHolderContextKey はロギングミドルウェアとセッションIDを共有するためのキー。
var sessionHolderContextKey = contextKey("session_holder")

// sessionHolder は内側のミドルウェアで決まったセッションIDを外側へ渡す。
type sessionHolder struct {
	mu sync.Mutex
	id string
}

func (h *sessionHolder) set(id string) {
	h.mu.Lock()
	h.id = id
	h.mu.Unlock()
}

func (h *sessionHolder) sessionID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.id
}
