// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hitoshi/empdir/internal/model"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ストアの購読者・ミドルウェア・ハンドラーから利用する。
type MetricsCollector interface {
	ObserveChange(change model.Change)
	RecordHTTPStatus(statusCode int)
	RecordSearchLatency(duration time.Duration)
	SetViewSessions(n int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	employees     prometheus.Gauge
	mutations     *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
	searchLatency prometheus.Histogram
	viewSessions  prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		employees: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "empdir_employees",
			Help: "ストアに登録されている社員数",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "empdir_store_mutations_total",
			Help: "種類別のストア変更数",
		}, []string{"kind"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "empdir_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		searchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "empdir_search_latency_seconds",
			Help:    "社員検索のレイテンシ（秒）",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		viewSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "empdir_view_sessions",
			Help: "有効な一覧画面セッション数",
		}),
	}

	reg.MustRegister(
		c.employees,
		c.mutations,
		c.httpStatus,
		c.searchLatency,
		c.viewSessions,
	)

	return c
}

// ObserveChange はストアの変更通知を記録する。employee.Store.Subscribe に渡して使う。
func (c *Collector) ObserveChange(change model.Change) {
	c.employees.Set(float64(change.Count))
	c.mutations.WithLabelValues(string(change.Kind)).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSearchLatency は検索のレイテンシを記録する。
func (c *Collector) RecordSearchLatency(duration time.Duration) {
	c.searchLatency.Observe(duration.Seconds())
}

// SetViewSessions は一覧画面セッション数を記録する。
func (c *Collector) SetViewSessions(n int) {
	c.viewSessions.Set(float64(n))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しない MetricsCollector。テストやメトリクス無効時に使う。
type Nop struct{}

func (Nop) ObserveChange(model.Change)        {}
func (Nop) RecordHTTPStatus(int)              {}
func (Nop) RecordSearchLatency(time.Duration) {}
func (Nop) SetViewSessions(int)               {}
