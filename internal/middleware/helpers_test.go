package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/hitoshi/empdir/internal/employee"
	"github.com/hitoshi/empdir/internal/viewstate"
)

func newTestRegistry(t *testing.T) *viewstate.Registry {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := viewstate.NewRegistry(employee.NewStore(nil, nil), viewstate.DefaultRegistryConfig(), logger)
	t.Cleanup(r.Close)
	return r
}

// withSession はリクエストに新しい一覧画面セッションを注入する。
func withSession(t *testing.T, r *viewstate.Registry, req *http.Request) (*http.Request, *viewstate.Session) {
	t.Helper()
	s := r.Create()
	return req.WithContext(ContextWithViewSession(req.Context(), s)), s
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})
