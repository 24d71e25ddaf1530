// Package employee は社員レコードのインメモリストアを提供する。
//
// Store はIDで正規化された社員コレクションを唯一保持し、
// 追加・部分更新・削除のミューテーションとセレクタを公開する。
// コミットされたミューテーションは購読者へ同期的に通知される。
package employee

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/empdir/internal/model"
)

// Clock は現在時刻を提供する。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Listener はコミット済みミューテーションの通知を受け取る関数。
// Listener 内からストアを変更してはならない（デッドロックする）。
// 読み取り（SelectAll など）は可能。
type Listener func(model.Change)

type subscription struct {
	id int
	fn Listener
}

// Store は社員レコードの正規化ストア。
// 既定の列挙順は CreatedAt 昇順で、同時刻は挿入順を保つ。
type Store struct {
	clock Clock
	newID func() string

	// writeMu はミューテーションと通知を直列化する。
	// 通知順序がコミット順序と一致することを保証する。
	writeMu sync.Mutex

	mu       sync.RWMutex
	entities map[string]model.Employee
	order    []string
	version  uint64

	subMu     sync.Mutex
	subs      []subscription
	nextSubID int
}

// NewStore は空のStoreを生成する。
// clock が nil の場合はUTCの実時刻を、newID が nil の場合はUUIDv4を使用する。
func NewStore(clock Clock, newID func() string) *Store {
	if clock == nil {
		clock = realClock{}
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Store{
		clock:    clock,
		newID:    newID,
		entities: make(map[string]model.Employee),
	}
}

// Add は新しいIDと現在時刻を採番してレコードを追加し、保存したレコードを返す。
// スキーマ検証は行わない（フォーム層の責務）。
func (s *Store) Add(fields model.EmployeeFields) model.Employee {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	id := s.newID()
	for _, exists := s.entities[id]; exists; _, exists = s.entities[id] {
		id = s.newID()
	}
	e := model.Employee{
		ID:               id,
		FirstName:        fields.FirstName,
		LastName:         fields.LastName,
		DateOfEmployment: fields.DateOfEmployment,
		DateOfBirth:      fields.DateOfBirth,
		Phone:            fields.Phone,
		Email:            fields.Email,
		Department:       fields.Department,
		Position:         fields.Position,
		CreatedAt:        s.clock.Now(),
	}
	s.insertLocked(e)
	change := s.commitLocked(model.ChangeAdded, id)
	s.mu.Unlock()

	s.notify(change)
	return e
}

// Update は指定IDのレコードに changes をマージする。
// 未存在IDは何もせず false を返す（通知もしない）。
func (s *Store) Update(id string, changes model.EmployeeChanges) (model.Employee, bool) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	current, ok := s.entities[id]
	if !ok {
		s.mu.Unlock()
		return model.Employee{}, false
	}
	updated := changes.Apply(current)
	s.entities[id] = updated
	change := s.commitLocked(model.ChangeUpdated, id)
	s.mu.Unlock()

	s.notify(change)
	return updated, true
}

// Remove は指定IDのレコードを削除する。
// 未存在IDは何もせず false を返すため、2回目以降の呼び出しは無操作になる。
func (s *Store) Remove(id string) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if _, ok := s.entities[id]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.entities, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	change := s.commitLocked(model.ChangeRemoved, id)
	s.mu.Unlock()

	s.notify(change)
	return true
}

// Seed はID・作成日時が設定済みのレコードを一括投入する。
// 既に存在するIDはスキップする。1件以上投入した場合のみ1回通知し、投入件数を返す。
func (s *Store) Seed(records []model.Employee) int {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	inserted := 0
	for _, e := range records {
		if e.ID == "" {
			continue
		}
		if _, exists := s.entities[e.ID]; exists {
			continue
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = s.clock.Now()
		}
		s.insertLocked(e)
		inserted++
	}
	if inserted == 0 {
		s.mu.Unlock()
		return 0
	}
	change := s.commitLocked(model.ChangeSeeded, "")
	s.mu.Unlock()

	s.notify(change)
	return inserted
}

// SelectAll は全レコードを作成順で返す。
// 戻り値は呼び出し時点のスナップショットで、呼び出し側が自由に保持・変更してよい。
func (s *Store) SelectAll() []model.Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Employee, len(s.order))
	for i, id := range s.order {
		out[i] = s.entities[id]
	}
	return out
}

// SelectByID は指定IDのレコードを返す。
func (s *Store) SelectByID(id string) (model.Employee, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[id]
	return e, ok
}

// Count は現在のレコード数を返す。
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Version はコミット済みミューテーションの通算数を返す。
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe は変更通知の購読者を登録し、購読解除関数を返す。
// 購読者は登録順に、コミットと同じgoroutine上で同期的に呼び出される。
// 購読解除関数は複数回呼んでも安全。
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// SubscriberCount は現在の購読者数を返す。テストおよびメトリクス用。
func (s *Store) SubscriberCount() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

// insertLocked は CreatedAt 順を保つ位置にレコードを挿入する。
// 同時刻のレコードの後ろに入るため、同時刻では挿入順が保たれる。
func (s *Store) insertLocked(e model.Employee) {
	s.entities[e.ID] = e
	pos := sort.Search(len(s.order), func(i int) bool {
		return s.entities[s.order[i]].CreatedAt.After(e.CreatedAt)
	})
	s.order = append(s.order, "")
	copy(s.order[pos+1:], s.order[pos:])
	s.order[pos] = e.ID
}

func (s *Store) commitLocked(kind model.ChangeKind, id string) model.Change {
	s.version++
	return model.Change{
		Kind:    kind,
		ID:      id,
		Version: s.version,
		Count:   len(s.order),
	}
}

func (s *Store) notify(change model.Change) {
	s.subMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(change)
	}
}
