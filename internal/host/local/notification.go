package local

import (
	"slices"
	"sync"
	"time"

	"github.com/darkkaiser/push-worker/internal/host"
)

// NotificationInfo 표시 중인 알림의 스냅샷입니다.
type NotificationInfo struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	Icon    string    `json:"icon"`
	Tag     string    `json:"tag"`
	ShownAt time.Time `json:"shown_at"`
}

// notification 표시면에 떠 있는 알림 하나. Close하면 레지스트리에서 제거된다.
type notification struct {
	info    NotificationInfo
	onClose func(id string)
	once    sync.Once
}

var _ host.Notification = (*notification)(nil)

func (n *notification) ID() string    { return n.info.ID }
func (n *notification) Title() string { return n.info.Title }
func (n *notification) Body() string  { return n.info.Body }
func (n *notification) Icon() string  { return n.info.Icon }
func (n *notification) Tag() string   { return n.info.Tag }

func (n *notification) Close() {
	n.once.Do(func() {
		if n.onClose != nil {
			n.onClose(n.info.ID)
		}
	})
}

// registry 표시 중인 알림을 ID로 관리합니다.
type registry struct {
	mu    sync.RWMutex
	items map[string]*notification
}

func newRegistry() *registry {
	return &registry{items: make(map[string]*notification)}
}

func (r *registry) add(n *notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[n.info.ID] = n
}

func (r *registry) get(id string) (*notification, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.items[id]
	return n, ok
}

func (r *registry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.items[id]
	delete(r.items, id)
	return ok
}

// list 표시된 순서대로 정렬된 스냅샷을 반환합니다.
func (r *registry) list() []NotificationInfo {
	r.mu.RLock()
	out := make([]NotificationInfo, 0, len(r.items))
	for _, n := range r.items {
		out = append(out, n.info)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b NotificationInfo) int {
		return a.ShownAt.Compare(b.ShownAt)
	})
	return out
}
