package repository

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/okian/levelup/pkg/metrics"
)

// Treap-based, in-memory Store.
//
// Ordering: total DESC, then subject ASC. "less" means ranks earlier, so an
// in-order walk yields the leaderboard from best to worst.

type node struct {
	id    string
	total int64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aTotal int64, aID string, bTotal int64, bID string) bool {
	if aTotal != bTotal {
		return aTotal > bTotal
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, total int64, prio uint64) *node {
	if n == nil {
		return &node{id: id, total: total, prio: prio, size: 1}
	}
	if less(total, id, n.total, n.id) {
		n.left = insert(n.left, id, total, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, total, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, total int64) *node {
	if n == nil {
		return nil
	}
	switch {
	case total == n.total && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, total)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, total)
		}
	case less(total, id, n.total, n.id):
		n.left = deleteNode(n.left, id, total)
	default:
		n.right = deleteNode(n.right, id, total)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes have a strictly greater total.
func countAbove(n *node, total int64) int {
	count := 0
	for n != nil {
		if n.total > total {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit subjects in rank order.
func collectTopN(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.id)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// TreapStore is a Store with O(log n) expected updates and rank queries.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]Standing
}

// NewTreapStore returns an empty store.
func NewTreapStore() *TreapStore {
	return &TreapStore{byID: make(map[string]Standing)}
}

// Update implements Store.
func (s *TreapStore) Update(_ context.Context, st Standing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byID[st.Subject]; ok {
		s.root = deleteNode(s.root, st.Subject, old.TotalPoints)
	}
	s.byID[st.Subject] = st
	s.root = insert(s.root, st.Subject, st.TotalPoints, rand.Uint64())
	return nil
}

// Remove implements Store.
func (s *TreapStore) Remove(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byID[subject]; ok {
		s.root = deleteNode(s.root, subject, old.TotalPoints)
		delete(s.byID, subject)
	}
	return nil
}

// Rank implements Store.
func (s *TreapStore) Rank(_ context.Context, subject string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.byID[subject]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	return Entry{Rank: countAbove(s.root, st.TotalPoints) + 1, Standing: st}, nil
}

// TopN implements Store.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, &ids)

	out := make([]Entry, len(ids))
	for i, id := range ids {
		st := s.byID[id]
		rank := i + 1
		if i > 0 && st.TotalPoints == out[i-1].TotalPoints {
			rank = out[i-1].Rank
		}
		out[i] = Entry{Rank: rank, Standing: st}
	}
	return out, nil
}

// Count implements Store.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
