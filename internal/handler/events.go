package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hitoshi/empdir/internal/employee"
	"github.com/hitoshi/empdir/internal/model"
)

const (
	// eventBuffer はクライアントごとに保持する未送信イベント数。超えた分は破棄する。
	eventBuffer = 16
	// heartbeatInterval は接続維持のためのコメント送信間隔。
	heartbeatInterval = 25 * time.Second
)

// ChangeSubscriber はストアの変更通知を購読できるもの。
type ChangeSubscriber interface {
	Subscribe(fn employee.Listener) (unsubscribe func())
}

// changeEvent はSSEで送るイベントのペイロード。
type changeEvent struct {
	Kind    model.ChangeKind `json:"kind"`
	ID      string           `json:"id,omitempty"`
	Version uint64           `json:"version"`
	Count   int              `json:"count"`
}

// EventHub はストアの変更を Server-Sent Events として開いている画面へ配信する。
// 配信は送信側をブロックせず、受信が追いつかないクライアントへのイベントは破棄する。
type EventHub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[chan model.Change]struct{}

	unsubscribe func()
	closeOnce   sync.Once
	done        chan struct{}
}

// NewEventHub はストアを購読する EventHub を生成する。利用後は Close を呼ぶこと。
func NewEventHub(store ChangeSubscriber, logger *slog.Logger) *EventHub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &EventHub{
		logger:  logger,
		clients: make(map[chan model.Change]struct{}),
		done:    make(chan struct{}),
	}
	h.unsubscribe = store.Subscribe(h.publish)
	return h
}

// Close は購読を解除し、接続中のストリームを終了させる。複数回呼んでもよい。
func (h *EventHub) Close() {
	h.closeOnce.Do(func() {
		h.unsubscribe()
		close(h.done)
	})
}

// ClientCount は接続中のクライアント数を返す。
func (h *EventHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *EventHub) publish(change model.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- change:
		default:
			h.logger.Debug("change event dropped for slow client", slog.Uint64("version", change.Version))
		}
	}
}

func (h *EventHub) register() chan model.Change {
	ch := make(chan model.Change, eventBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) unregister(ch chan model.Change) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// ServeHTTP は GET /employees/events を処理する。
// 変更ごとに "change" イベントを送信し、クライアントの切断かハブの終了まで接続を維持する。
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// サーバーの WriteTimeout はストリームには適用しない
	_ = rc.SetWriteDeadline(time.Time{})

	ch := h.register()
	defer h.unregister(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		h.logger.Warn("event stream not supported", slog.String("error", err.Error()))
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
		case change := <-ch:
			data, err := json.Marshal(changeEvent{
				Kind:    change.Kind,
				ID:      change.ID,
				Version: change.Version,
				Count:   change.Count,
			})
			if err != nil {
				h.logger.Error("failed to encode change event", slog.String("error", err.Error()))
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: change\ndata: %s\n\n", change.Version, data)
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
