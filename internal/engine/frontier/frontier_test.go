package frontier_test

import (
	"testing"
	"time"

	"github.com/onionwatch/onionwatch/internal/engine/frontier"
)

func candidate(url, domain string, depth, boost int) frontier.CrawlAdmissionCandidate {
	return frontier.NewCrawlAdmissionCandidate(url, domain, frontier.SourceCrawl, frontier.DiscoveryMetadata{Depth: depth, PriorityBoost: boost})
}

func TestSubmit_RejectsDuplicateURL(t *testing.T) {
	f := frontier.New(0)

	if !f.Submit(candidate("http://a.onion/", "a.onion", 0, 0)) {
		t.Fatalf("expected first submit to succeed")
	}
	if f.Submit(candidate("http://a.onion/", "a.onion", 0, 0)) {
		t.Fatalf("expected duplicate submit to be rejected")
	}
	if f.VisitedCount() != 1 {
		t.Errorf("expected visited count 1, got %d", f.VisitedCount())
	}
}

func TestSubmit_RejectsAtMaxPages(t *testing.T) {
	f := frontier.New(1)

	if !f.Submit(candidate("http://a.onion/", "a.onion", 0, 0)) {
		t.Fatalf("expected first submit within max_pages to succeed")
	}
	if f.Submit(candidate("http://b.onion/", "b.onion", 0, 0)) {
		t.Fatalf("expected submit beyond max_pages to be rejected")
	}
}

func TestSubmit_SilentlyDropsFrozenDomain(t *testing.T) {
	f := frontier.New(0)
	f.FreezeDomain("frozen.onion")

	if f.Submit(candidate("http://frozen.onion/x", "frozen.onion", 0, 0)) {
		t.Fatalf("expected submit to a frozen domain to be rejected")
	}
}

func TestDequeue_OrdersByPriorityDescending(t *testing.T) {
	f := frontier.New(0)
	f.Submit(candidate("http://low.onion/", "low.onion", 0, 0))
	f.Submit(candidate("http://high.onion/", "high.onion", 0, 50))

	first, ok := f.Dequeue(time.Second)
	if !ok {
		t.Fatalf("expected a token")
	}
	if first.URL() != "http://high.onion/" {
		t.Errorf("expected higher-priority URL first, got %s", first.URL())
	}
}

func TestDequeue_TimesOutOnEmptyFrontier(t *testing.T) {
	f := frontier.New(0)
	_, ok := f.Dequeue(20 * time.Millisecond)
	if ok {
		t.Fatalf("expected timeout on empty frontier")
	}
}

func TestBoostDomain_ReordersQueuedEntries(t *testing.T) {
	f := frontier.New(0)
	f.Submit(candidate("http://a.onion/", "a.onion", 0, 0))
	f.Submit(candidate("http://b.onion/", "b.onion", 0, 0))

	f.BoostDomain("b.onion", 100)

	first, _ := f.Dequeue(time.Second)
	if first.URL() != "http://b.onion/" {
		t.Errorf("expected boosted domain's URL first, got %s", first.URL())
	}
}

func TestFreezeDomain_DoesNotAffectAlreadyQueuedEntries(t *testing.T) {
	f := frontier.New(0)
	f.Submit(candidate("http://a.onion/", "a.onion", 0, 0))
	f.FreezeDomain("a.onion")

	_, ok := f.Dequeue(time.Second)
	if !ok {
		t.Fatalf("expected the already-queued entry to still be dequeueable")
	}
}
