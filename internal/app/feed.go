package service

import (
	"sync"

	"github.com/okian/levelup/internal/domain/model"
	"github.com/okian/levelup/internal/domain/types"
)

// feed keeps the latest notifications per subject, oldest first.
type feed struct {
	mu      sync.RWMutex
	size    int
	entries map[string][]types.Notification
}

func newFeed(size int) *feed {
	return &feed{size: size, entries: make(map[string][]types.Notification)}
}

func (f *feed) push(n types.Notification) { //nolint:gocritic // hugeParam: copied into the feed anyway
	if f.size == 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	list := append(f.entries[n.Subject], n)
	if len(list) > f.size {
		list = append([]types.Notification(nil), list[len(list)-f.size:]...)
	}
	f.entries[n.Subject] = list
}

// list returns up to limit notifications, newest first.
func (f *feed) list(subject string, limit int) []types.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	list := f.entries[subject]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]types.Notification, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out
}

// clear drops the notices produced by one log kind.
func (f *feed) clear(subject string, kind model.Kind) {
	want := types.NotifyLevelUp
	if kind == model.KindDamage {
		want = types.NotifyStageClear
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.entries[subject][:0]
	for _, n := range f.entries[subject] {
		if n.Kind != want {
			kept = append(kept, n)
		}
	}
	if len(kept) == 0 {
		delete(f.entries, subject)
		return
	}
	f.entries[subject] = kept
}
