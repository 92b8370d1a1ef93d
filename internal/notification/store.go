package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/nao1215/mitto/internal/metrics"
)

// entry はストアが保持する通知と、その削除タイマー。
type entry struct {
	// n は保持している通知。
	n Notification
	// timer は有効期限で通知を削除するタイマー。
	timer clockwork.Timer
}

// Store は有効期限付きで通知をメモリ上に保持する。
// 複数のゴルーチンから同時に利用できる。
type Store struct {
	// mu はentriesを保護する。
	mu sync.Mutex
	// entries は通知IDごとの保持中の通知。
	entries map[string]*entry
	// clock は有効期限の計測に使う時計。
	clock clockwork.Clock
	// newID は通知IDを生成する関数。
	newID func() string
}

// StoreOption はStoreの設定を変更する関数。
type StoreOption func(*Store)

// WithClock はStoreが使う時計を差し替える。
func WithClock(clock clockwork.Clock) StoreOption {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithIDGenerator は通知IDの生成関数を差し替える。
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *Store) {
		s.newID = newID
	}
}

// NewStore は空のStoreを生成する。
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		clock:   clockwork.NewRealClock(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert は通知をttlの間保持し、割り当てたIDを返す。
// IDは保持中の通知と重複しないよう生成し直す。
func (s *Store) Insert(n Notification, ttl time.Duration) string {
	s.mu.Lock()
	id := s.newID()
	for {
		if _, exists := s.entries[id]; !exists {
			break
		}
		id = s.newID()
	}
	n.ID = id
	n.ExpiresAt = s.clock.Now().Add(ttl)
	e := &entry{n: n}
	s.entries[id] = e
	live := len(s.entries)
	s.mu.Unlock()

	metrics.SetLiveNotifications(live)

	// コールバックはロックを取るので、タイマーはロックの外で登録する。
	timer := s.clock.AfterFunc(ttl, func() { s.expire(id, e) })

	s.mu.Lock()
	if s.entries[id] == e {
		e.timer = timer
	}
	s.mu.Unlock()

	return id
}

// expire は有効期限を迎えた通知を削除する。
// 同じIDで別の通知が保持されている場合は削除しない。
func (s *Store) expire(id string, e *entry) {
	s.mu.Lock()
	if s.entries[id] == e {
		delete(s.entries, id)
	}
	live := len(s.entries)
	s.mu.Unlock()

	metrics.SetLiveNotifications(live)
}

// Snapshot は有効期限内の全通知のコピーを返す。
// 送信元IPアドレスは取り除く。
func (s *Store) Snapshot() map[string]Notification {
	return s.snapshot(func(Notification) bool { return true })
}

// SnapshotForIP は送信元IPアドレスがipと一致する有効期限内の通知のコピーを返す。
// IPアドレスが記録されていない通知は含めない。ipが空の場合は常に空になる。
func (s *Store) SnapshotForIP(ip string) map[string]Notification {
	if ip == "" {
		return map[string]Notification{}
	}
	return s.snapshot(func(n Notification) bool { return n.IP != "" && n.IP == ip })
}

func (s *Store) snapshot(match func(Notification) bool) map[string]Notification {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Notification, len(s.entries))
	for id, e := range s.entries {
		if !now.Before(e.n.ExpiresAt) || !match(e.n) {
			continue
		}
		n := e.n
		n.IP = ""
		out[id] = n
	}
	return out
}

// Len は有効期限内の通知の件数を返す。
func (s *Store) Len() int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, e := range s.entries {
		if now.Before(e.n.ExpiresAt) {
			count++
		}
	}
	return count
}

// Close は全てのタイマーを停止し、保持中の通知を破棄する。
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(s.entries, id)
	}
	metrics.SetLiveNotifications(0)
}
