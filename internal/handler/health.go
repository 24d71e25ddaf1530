package handler

import "net/http"

// healthResponse はヘルスチェックのレスポンス。
type healthResponse struct {
	Status    string `json:"status"`
	Employees int    `json:"employees"`
}

// healthHandler は GET /health を処理する。
// ストアはプロセス内のため、応答できれば正常とみなす。
func healthHandler(store EmployeeStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Employees: store.Count()})
	}
}
