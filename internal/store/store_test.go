package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/onionwatch/onionwatch/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "onionwatch.db")
	s, err := store.Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSavePage_RecomputesRiskScore(t *testing.T) {
	s := openTestStore(t)

	page := store.NewPage("http://abc123.onion/market", "abc123.onion", "Dark Market - buy and sell", 200, 1, 1024).
		SetSecrets(map[string][]string{"aws_key": {"AKIA..."}}).
		SetCryptos(map[string][]string{"monero": {"4x..."}}).
		SetEmails([]string{"a@b.com"})

	err := s.SavePage(page)
	require.Nil(t, err)
	require.Greater(t, page.RiskScore(), 0)

	pages, rerr := s.AllPages()
	require.Nil(t, rerr)
	require.Len(t, pages, 1)
	require.Equal(t, page.RiskScore(), pages[0].RiskScore())
}

func TestSavePage_UpsertByURL(t *testing.T) {
	s := openTestStore(t)

	first := store.NewPage("http://abc123.onion/", "abc123.onion", "first", 0, 0, 0)
	require.Nil(t, s.SavePage(first))

	second := store.NewPage("http://abc123.onion/", "abc123.onion", "second", 200, 0, 512)
	require.Nil(t, s.SavePage(second))

	pages, err := s.AllPages()
	require.Nil(t, err)
	require.Len(t, pages, 1)
	require.Equal(t, "second", pages[0].Title())
	require.Equal(t, 200, pages[0].HTTPStatus())
}

func TestSavePage_InsertHookFiresOnlyOnNewSuccessfulPage(t *testing.T) {
	s := openTestStore(t)

	var hookCalls int
	s.SetPageInsertHook(func(p *store.Page) { hookCalls++ })

	pending := store.NewPage("http://abc123.onion/a", "abc123.onion", "a", 0, 0, 0)
	require.Nil(t, s.SavePage(pending))
	require.Equal(t, 0, hookCalls)

	success := store.NewPage("http://abc123.onion/b", "abc123.onion", "b", 200, 0, 0)
	require.Nil(t, s.SavePage(success))
	require.Equal(t, 1, hookCalls)

	updateAgain := store.NewPage("http://abc123.onion/b", "abc123.onion", "b again", 200, 0, 0)
	require.Nil(t, s.SavePage(updateAgain))
	require.Equal(t, 1, hookCalls, "hook must not fire again on update")
}

func TestPendingURLs_OrderedByDepthThenRecency(t *testing.T) {
	s := openTestStore(t)

	require.Nil(t, s.SavePage(store.NewPage("http://a.onion/deep", "a.onion", "", 0, 3, 0)))
	require.Nil(t, s.SavePage(store.NewPage("http://a.onion/shallow", "a.onion", "", 0, 1, 0)))
	require.Nil(t, s.SavePage(store.NewPage("http://a.onion/err", "a.onion", "", 500, 2, 0)))
	require.Nil(t, s.SavePage(store.NewPage("http://a.onion/ok", "a.onion", "", 200, 0, 0)))

	pending, err := s.PendingURLs(10)
	require.Nil(t, err)
	require.Len(t, pending, 3)
	require.Equal(t, "http://a.onion/shallow", pending[0].URL)
}

func TestBlacklist_AddRemoveIsBlacklisted(t *testing.T) {
	s := openTestStore(t)

	ok, err := s.IsBlacklisted("evil.onion")
	require.Nil(t, err)
	require.False(t, ok)

	require.Nil(t, s.BlacklistAdd("evil.onion", "scam market"))
	ok, err = s.IsBlacklisted("evil.onion")
	require.Nil(t, err)
	require.True(t, ok)

	require.Nil(t, s.BlacklistRemove("evil.onion"))
	ok, err = s.IsBlacklisted("evil.onion")
	require.Nil(t, err)
	require.False(t, ok)
}

func TestDomainPolicy_DefaultsWhenUnset(t *testing.T) {
	s := openTestStore(t)

	policy, err := s.DomainPolicyFor("unknown.onion")
	require.Nil(t, err)
	require.Equal(t, store.DomainStatusNormal, policy.Status())
	require.Equal(t, 50, policy.TrustLevel())
}

func TestDomainPolicy_SaveAndReload(t *testing.T) {
	s := openTestStore(t)

	policy := store.NewDomainPolicy("priority.onion").
		SetStatus(store.DomainStatusPriority).
		SetPriorityBoost(10).
		SetNotes("manually flagged")
	require.Nil(t, s.SaveDomainPolicy(policy))

	reloaded, err := s.DomainPolicyFor("priority.onion")
	require.Nil(t, err)
	require.Equal(t, store.DomainStatusPriority, reloaded.Status())
	require.Equal(t, 10, reloaded.PriorityBoost())
	require.Equal(t, "manually flagged", reloaded.Notes())
}

func TestPurge_DeletesOldRowsByDefault(t *testing.T) {
	s := openTestStore(t)

	old := store.NewPage("http://a.onion/old", "a.onion", "old", 200, 0, 0).
		SetFoundAt(time.Now().AddDate(0, 0, -90))
	require.Nil(t, s.SavePage(old))

	recent := store.NewPage("http://a.onion/new", "a.onion", "new", 200, 0, 0)
	require.Nil(t, s.SavePage(recent))

	n, err := s.Purge(30, false)
	require.Nil(t, err)
	require.EqualValues(t, 1, n)

	pages, rerr := s.AllPages()
	require.Nil(t, rerr)
	require.Len(t, pages, 1)
	require.Equal(t, "http://a.onion/new", pages[0].URL())
}

func TestPurge_AnonymizeClearsSensitiveFieldsInPlace(t *testing.T) {
	s := openTestStore(t)

	old := store.NewPage("http://a.onion/old", "a.onion", "old", 200, 0, 0).
		SetSecrets(map[string][]string{"aws_key": {"AKIA..."}}).
		SetEmails([]string{"a@b.com"}).
		SetFoundAt(time.Now().AddDate(0, 0, -90))
	require.Nil(t, s.SavePage(old))

	n, err := s.Purge(30, true)
	require.Nil(t, err)
	require.EqualValues(t, 1, n)

	pages, rerr := s.AllPages()
	require.Nil(t, rerr)
	require.Len(t, pages, 1)
	require.Empty(t, pages[0].Secrets())
	require.Empty(t, pages[0].Emails())
}

func TestGetStats_AggregatesAcrossPages(t *testing.T) {
	s := openTestStore(t)

	require.Nil(t, s.SavePage(store.NewPage("http://a.onion/1", "a.onion", "", 200, 0, 0)))
	require.Nil(t, s.SavePage(store.NewPage("http://a.onion/2", "a.onion", "", 200, 0, 0)))
	require.Nil(t, s.SavePage(store.NewPage("http://b.onion/1", "b.onion", "", 404, 0, 0)))

	stats, err := s.GetStats()
	require.Nil(t, err)
	require.Equal(t, 3, stats.TotalPages)
	require.Equal(t, 2, stats.PagesByStatus[200])
	require.Equal(t, 1, stats.PagesByStatus[404])
	require.Equal(t, 2, stats.DomainsSeen)
}
