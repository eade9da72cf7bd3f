// Package frontier is a multi-reader FIFO keyed on priority: an indexed
// binary heap (container/heap) plus a per-URL presence map, so pause/resume
// and domain freeze/boost can reorder or elide entries without an O(n)
// scan. It maintains BFS-ish ordering, deduplicates URLs, tracks crawl
// depth, and enforces max_pages — and knows nothing about fetching,
// extraction, or storage. Vocabulary (CrawlToken, CrawlAdmissionCandidate,
// Submit/Dequeue) is generalized from the teacher's internal/frontier; the
// backing FIFO queue is replaced with a priority heap per spec.
package frontier

import (
	"container/heap"
	"sync"
	"time"
)

// Frontier is the sole keeper of crawl ordering. The engine is the only
// caller: all admission decisions (robots-equivalent domain policy, scope,
// depth) happen before Submit is called.
type Frontier struct {
	mu            sync.Mutex
	cond          *sync.Cond
	h             entryHeap
	visited       Set[string]
	domainIndex   map[string]Set[string]
	frozenDomains Set[string]
	maxPages      int
	version       int64
}

func New(maxPages int) *Frontier {
	f := &Frontier{
		h:             entryHeap{},
		visited:       NewSet[string](),
		domainIndex:   map[string]Set[string]{},
		frozenDomains: NewSet[string](),
		maxPages:      maxPages,
	}
	f.cond = sync.NewCond(&f.mu)
	heap.Init(&f.h)
	return f
}

// Submit enqueues an already-admitted candidate. Returns false (silent
// no-op) when the URL was already visited/queued, the domain is frozen, or
// max_pages has been reached — callers don't need to special-case these,
// matching spec's "if frozen, discard silently".
func (f *Frontier) Submit(candidate CrawlAdmissionCandidate) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.frozenDomains.Contains(candidate.Domain) {
		return false
	}
	if f.visited.Contains(candidate.TargetURL) {
		return false
	}
	if f.maxPages > 0 && f.visited.Size() >= f.maxPages {
		return false
	}

	f.visited.Add(candidate.TargetURL)

	priority := 50 + candidate.DiscoveryMetadata.PriorityBoost
	e := &entry{
		token:    NewCrawlToken(candidate.TargetURL, candidate.DiscoveryMetadata.Depth),
		domain:   candidate.Domain,
		priority: priority,
		enqueued: time.Now(),
	}
	heap.Push(&f.h, e)

	if _, ok := f.domainIndex[candidate.Domain]; !ok {
		f.domainIndex[candidate.Domain] = NewSet[string]()
	}
	f.domainIndex[candidate.Domain].Add(candidate.TargetURL)

	f.version++
	f.cond.Broadcast()
	return true
}

// Dequeue pops the highest-priority token, blocking up to timeout while the
// heap is empty. Returns (zero, false) on timeout so the caller (a worker)
// can decide whether to treat an empty frontier as shutdown-worthy.
func (f *Frontier) Dequeue(timeout time.Duration) (CrawlToken, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	deadline := time.Now().Add(timeout)
	for f.h.Len() == 0 {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return CrawlToken{}, false
		}
		if !f.waitWithTimeout(remaining) {
			return CrawlToken{}, false
		}
	}

	e := heap.Pop(&f.h).(*entry)
	if domainSet, ok := f.domainIndex[e.domain]; ok {
		domainSet.Remove(e.token.URL())
	}
	return e.token, true
}

// waitWithTimeout blocks on cond until the next Broadcast or remaining
// elapses, returning false on the timeout path. f.mu must be held on entry
// and is held again on return (sync.Cond.Wait's usual contract).
func (f *Frontier) waitWithTimeout(remaining time.Duration) bool {
	timer := time.AfterFunc(remaining, func() {
		f.mu.Lock()
		f.cond.Broadcast()
		f.mu.Unlock()
	})
	defer timer.Stop()

	startVersion := f.version
	f.cond.Wait()
	return f.version != startVersion || f.h.Len() > 0
}

// Size returns the count of currently queued (not yet dequeued) tokens.
func (f *Frontier) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.h.Len()
}

// VisitedCount returns how many distinct URLs have ever been submitted.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visited.Size()
}

// Contains reports whether a URL has already been visited/queued.
func (f *Frontier) Contains(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visited.Contains(url)
}

// MarkVisited seeds the visited set without enqueueing anything, so a
// restarted crawl can replay its store's visited URLs and never
// re-admit them.
func (f *Frontier) MarkVisited(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visited.Add(url)
}

// FreezeDomain marks a domain so future Submit calls for it are dropped.
// Entries already queued for that domain are left in place — a frozen
// domain stops growing, it is not retroactively purged.
func (f *Frontier) FreezeDomain(domain string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frozenDomains.Add(domain)
}

func (f *Frontier) UnfreezeDomain(domain string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frozenDomains.Remove(domain)
}

// BoostDomain raises the priority of every currently queued entry for a
// domain by delta and re-heapifies just those entries in O(k log n), k
// being the domain's queued-entry count (tracked via domainIndex, so this
// never scans the whole heap).
func (f *Frontier) BoostDomain(domain string, delta int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	urls, ok := f.domainIndex[domain]
	if !ok {
		return
	}
	for _, e := range f.h {
		if e.domain == domain && urls.Contains(e.token.URL()) {
			e.priority += delta
			heap.Fix(&f.h, e.heapIndex)
		}
	}
}

// Snapshot returns the currently queued tokens in heap order (not strict
// priority order beyond the root), for the boundary's queue-contents read.
func (f *Frontier) Snapshot() []CrawlToken {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]CrawlToken, len(f.h))
	for i, e := range f.h {
		out[i] = e.token
	}
	return out
}
