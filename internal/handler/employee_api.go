package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/empdir/internal/form"
	"github.com/hitoshi/empdir/internal/i18n"
	"github.com/hitoshi/empdir/internal/middleware"
	"github.com/hitoshi/empdir/internal/model"
	"github.com/hitoshi/empdir/internal/pagination"
)

// maxBodyBytes はリクエストボディの上限サイズ。
const maxBodyBytes = 1 << 20

// maxAPIPageSize は JSON API の size パラメータの上限。
const maxAPIPageSize = 100

// EmployeeAPIHandler は社員のJSON APIのHTTPハンドラー。
type EmployeeAPIHandler struct {
	store     EmployeeStore
	searcher  Searcher
	validator *form.Validator
	catalog   *i18n.Catalog
	pageSize  int
	logger    *slog.Logger
}

// NewEmployeeAPIHandler はEmployeeAPIHandlerを生成する。logger が nil の場合は slog.Default() を使う。
func NewEmployeeAPIHandler(store EmployeeStore, searcher Searcher, validator *form.Validator, catalog *i18n.Catalog, pageSize int, logger *slog.Logger) *EmployeeAPIHandler {
	if pageSize < 1 {
		pageSize = pagination.DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EmployeeAPIHandler{
		store:     store,
		searcher:  searcher,
		validator: validator,
		catalog:   catalog,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// employeeListResponse は社員一覧のAPIレスポンス。
type employeeListResponse struct {
	Items      []model.Employee `json:"items"`
	Page       int              `json:"page"`
	Size       int              `json:"size"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
}

// List は GET /api/employees を処理する。
// q で検索し、page と size でページ分割した結果を返す。範囲外のページは空の items になる。
func (h *EmployeeAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), 1)
	if err != nil || page < 1 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("page must be a positive integer"))
		return
	}
	size, err := intParam(q.Get("size"), h.pageSize)
	if err != nil || size < 1 || size > maxAPIPageSize {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("size must be between 1 and 100"))
		return
	}

	filtered := h.searcher.Filter(h.store.SelectAll(), q.Get("q"))
	items := pagination.Paginate(filtered, page, size)

	writeJSON(w, http.StatusOK, employeeListResponse{
		Items:      items,
		Page:       page,
		Size:       size,
		Total:      len(filtered),
		TotalPages: pagination.TotalPages(len(filtered), size),
	})
}

// Get は GET /api/employees/{id} を処理する。
func (h *EmployeeAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, ok := h.store.SelectByID(id)
	if !ok {
		h.handleServiceError(w, model.NewEmployeeNotFoundError(id))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Create は POST /api/employees を処理する。
// 全フィールドが必須。作成した社員を201で返す。
func (h *EmployeeAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := form.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	fields, err := h.validator.Validate(in, h.locale(r))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	e := h.store.Add(fields)
	h.logger.Info("employee added", slog.String("employee_id", e.ID), slog.String("via", "api"))

	w.Header().Set("Location", "/api/employees/"+e.ID)
	writeJSON(w, http.StatusCreated, e)
}

// Patch は PATCH /api/employees/{id} を処理する。
// 指定されたフィールドのみをサニタイズして変更し、変更後のレコード全体を検証する。
func (h *EmployeeAPIHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	current, ok := h.store.SelectByID(id)
	if !ok {
		h.handleServiceError(w, model.NewEmployeeNotFoundError(id))
		return
	}

	patch, err := form.DecodePatch(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	fields, err := h.validator.ValidatePatch(current, patch, h.locale(r))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	updated, ok := h.store.Update(id, model.ChangesFromFields(fields))
	if !ok {
		h.handleServiceError(w, model.NewEmployeeNotFoundError(id))
		return
	}
	h.logger.Info("employee updated", slog.String("employee_id", id), slog.String("via", "api"))

	writeJSON(w, http.StatusOK, updated)
}

// Delete は DELETE /api/employees/{id} を処理する。
// 削除は冪等で、存在しないIDでも204を返す。
func (h *EmployeeAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.store.Remove(id) {
		h.logger.Info("employee removed", slog.String("employee_id", id), slog.String("via", "api"))
	}
	w.WriteHeader(http.StatusNoContent)
}

// locale はバリデーションメッセージの言語を Accept-Language から決める。
func (h *EmployeeAPIHandler) locale(r *http.Request) string {
	return h.catalog.Negotiate(r.Header.Get("Accept-Language"))
}

// intParam は整数のクエリパラメータを読み取る。空の場合は def を返す。
func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeAPIErrorResponse はAPIErrorを統一フォーマットのJSONレスポンスとして書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はエラーを適切なHTTPステータスコードのAPIエラーレスポンスに変換する。
func (h *EmployeeAPIHandler) handleServiceError(w http.ResponseWriter, err error) {
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationFailedError(verr.Fields))
		return
	}

	if errors.Is(err, form.ErrMalformedBody) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("body must be a JSON object with known employee fields"))
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	h.logger.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeEmployeeNotFound, model.ErrCodeRouteNotFound:
		return http.StatusNotFound
	case model.ErrCodeValidationFailed, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
