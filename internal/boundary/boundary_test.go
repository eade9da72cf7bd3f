package boundary_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onionwatch/onionwatch/internal/alert"
	"github.com/onionwatch/onionwatch/internal/boundary"
	"github.com/onionwatch/onionwatch/internal/graph"
	"github.com/onionwatch/onionwatch/internal/logging"
	"github.com/onionwatch/onionwatch/internal/store"
)

func newTestBoundary(t *testing.T) *boundary.Boundary {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "onionwatch.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	g := graph.New()
	mgr := alert.New(alert.Watchlists{}, map[alert.Severity]bool{}, alert.WebhookTargets{}, 0)

	return boundary.New(st, g, mgr, nil, logging.NopSink{})
}

func TestStats_ReportsPersistedPageCount(t *testing.T) {
	b := newTestBoundary(t)

	res := b.Stats()
	require.True(t, res.Success)
	snap, ok := res.Details.(boundary.StatsSnapshot)
	require.True(t, ok)
	assert.Equal(t, 0, snap.TotalPages)
}

func TestAddSeeds_AdmitsValidOnionURLAndSkipsInvalid(t *testing.T) {
	b := newTestBoundary(t)
	validLabel := "abcdefghijklmnopqrstuvwxyz234567abcdefghijklmnopqrstuvwx"

	res := b.AddSeeds([]string{
		"http://" + validLabel + ".onion/",
		"https://example.com/",
	})

	require.True(t, res.Success)
	admitted, ok := res.Details.([]string)
	require.True(t, ok)
	assert.Len(t, admitted, 1)
}

func TestMarkIntel_RejectsUnknownMark(t *testing.T) {
	b := newTestBoundary(t)

	res := b.MarkIntel("http://example.onion/", "definitely_not_a_real_mark")
	assert.False(t, res.Success)
}

func TestControlCrawler_FailsCleanlyWithNoLiveEngine(t *testing.T) {
	b := newTestBoundary(t)

	res := b.ControlCrawler("pause")
	assert.False(t, res.Success)
}

func TestDomainList_IncludesDomainsSeenOnlyThroughCrawledPages(t *testing.T) {
	b := newTestBoundary(t)

	res := b.AddSeeds([]string{"http://" + "abcdefghijklmnopqrstuvwxyz234567abcdefghijklmnopqrstuvwx" + ".onion/"})
	require.True(t, res.Success)

	domains := b.DomainList()
	require.True(t, domains.Success)
	list, ok := domains.Details.([]boundary.DomainSummary)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "normal", list[0].Status)
}
