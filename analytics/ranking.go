package analytics

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"

	"tripquest/core"
)

// RankEntry is one award reason with its accumulated points.
type RankEntry struct {
	Reason string `json:"reason"`
	Score  int64  `json:"score"`
}

// A skip list keyed by (score desc, reason asc) keeps reason ranking updates
// at O(log n).

const maxLevel = 16
const pFactor = 0.25

type node struct {
	e    RankEntry
	next [maxLevel]*node
}

// Ranking orders award reasons by accumulated points.
type Ranking struct {
	mu       sync.RWMutex
	head     *node
	lvl      int
	byReason map[string]*node
	rng      *rand.Rand
}

func NewRanking() *Ranking {
	// Seed PCG from crypto/rand so level distribution differs per process.
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		seed = [16]byte{}
	}
	seed1 := binary.BigEndian.Uint64(seed[:8])
	seed2 := binary.BigEndian.Uint64(seed[8:])

	return &Ranking{
		head:     &node{},
		lvl:      1,
		byReason: map[string]*node{},
		rng:      rand.New(rand.NewPCG(seed1, seed2)),
	}
}

func (r *Ranking) randomLevel() int {
	lvl := 1
	for lvl < maxLevel && r.rng.Float64() < pFactor {
		lvl++
	}
	return lvl
}

func less(a, b RankEntry) bool {
	if a.Score == b.Score {
		return a.Reason < b.Reason
	}
	return a.Score > b.Score // higher score first
}

// Observe adds one history entry to the ranking.
func (r *Ranking) Observe(entry core.PointsEntry) {
	r.Add(entry.Reason, int64(entry.Amount))
}

// Load rebuilds the ranking from a full history.
func (r *Ranking) Load(history []core.PointsEntry) {
	for _, entry := range history {
		r.Observe(entry)
	}
}

// Add accumulates points onto a reason and repositions it.
func (r *Ranking) Add(reason string, amount int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	score := amount
	if old, ok := r.byReason[reason]; ok {
		score += old.e.Score
		r.removeLocked(reason, old.e)
	}
	e := RankEntry{Reason: reason, Score: score}
	update := [maxLevel]*node{}
	cur := r.head
	for i := r.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && less(cur.next[i].e, e) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	lvl := r.randomLevel()
	if lvl > r.lvl {
		for i := r.lvl; i < lvl; i++ {
			update[i] = r.head
		}
		r.lvl = lvl
	}
	n := &node{e: e}
	for i := 0; i < lvl; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
	}
	r.byReason[reason] = n
}

func (r *Ranking) removeLocked(reason string, e RankEntry) {
	update := [maxLevel]*node{}
	cur := r.head
	for i := r.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && less(cur.next[i].e, e) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	target := update[0].next[0]
	if target == nil || target.e.Reason != reason {
		return
	}
	for i := 0; i < r.lvl; i++ {
		if update[i].next[i] == target {
			update[i].next[i] = target.next[i]
		}
	}
	delete(r.byReason, reason)
	for r.lvl > 1 && r.head.next[r.lvl-1] == nil {
		r.lvl--
	}
}

// Remove drops a reason from the ranking entirely.
func (r *Ranking) Remove(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.byReason[reason]; ok {
		r.removeLocked(reason, n.e)
	}
}

// TopN returns the n highest-scoring reasons, best first.
func (r *Ranking) TopN(n int) []RankEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	out := make([]RankEntry, 0, n)
	cur := r.head.next[0]
	for cur != nil && len(out) < n {
		out = append(out, cur.e)
		cur = cur.next[0]
	}
	return out
}

// Get returns the accumulated entry for one reason.
func (r *Ranking) Get(reason string) (RankEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n, ok := r.byReason[reason]; ok {
		return n.e, true
	}
	return RankEntry{}, false
}
