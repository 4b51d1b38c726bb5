package simulate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/siteinsight/internal/metrics"
)

func TestNewStore_UnknownModeFallsBackToRandom(t *testing.T) {
	s := NewStore(Mode("chaos"), 1)
	assert.Equal(t, ModeRandom, s.Mode())
}

func TestTrafficMetrics_RandomRanges(t *testing.T) {
	s := NewStore(ModeRandom, 42)
	for i := 0; i < 50; i++ {
		snap := metrics.NewSnapshot(s.TrafficMetrics("2024-01-01", "2024-01-31"))
		sessions := snap.Number("sessions")
		if sessions < 800 || sessions > 1200 {
			t.Fatalf("sessions %v out of range", sessions)
		}
		pps := snap.Number("pages_per_session")
		if pps < 2.1 || pps > 3.5 {
			t.Fatalf("pages_per_session %v out of range", pps)
		}
	}
}

func TestTrafficMetrics_EchoesDateRange(t *testing.T) {
	s := NewStore(ModeStatic, 0)
	out := s.TrafficMetrics("2024-01-01", "2024-01-31")
	dr, ok := out["date_range"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", dr["start_date"])
	assert.Equal(t, "2024-01-31", dr["end_date"])
}

func TestEngagementMetrics_RandomRanges(t *testing.T) {
	s := NewStore(ModeRandom, 7)
	for i := 0; i < 50; i++ {
		snap := metrics.NewSnapshot(s.EngagementMetrics("a", "b"))
		bounce := snap.Number("bounce_rate")
		if bounce < 35 || bounce > 65 {
			t.Fatalf("bounce_rate %v out of range", bounce)
		}
		dur := snap.Number("average_session_duration")
		if dur < 120 || dur > 300 {
			t.Fatalf("average_session_duration %v out of range", dur)
		}
		assert.Len(t, snap.Map("session_duration_distribution"), 4)
	}
}

func TestSeededStoresAreReproducible(t *testing.T) {
	a := NewStore(ModeRandom, 99)
	b := NewStore(ModeRandom, 99)
	assert.Equal(t, a.TrafficMetrics("x", "y"), b.TrafficMetrics("x", "y"))
	assert.Equal(t, a.TrafficSources(), b.TrafficSources())
}

func TestTopPages_SortedAndLimited(t *testing.T) {
	s := NewStore(ModeRandom, 3)
	snap := metrics.NewSnapshot(s.TopPages(3))
	pages := snap.Records("top_pages")
	require.Len(t, pages, 3)
	for i := 1; i < len(pages); i++ {
		if pages[i].Number("pageviews") > pages[i-1].Number("pageviews") {
			t.Errorf("pages not sorted at index %d", i)
		}
	}
	assert.Equal(t, 5, snap.Int("total_pages_analyzed"))
}

func TestTopPages_DefaultLimit(t *testing.T) {
	s := NewStore(ModeStatic, 0)
	snap := metrics.NewSnapshot(s.TopPages(0))
	pages := snap.Records("top_pages")
	require.Len(t, pages, 5)
	assert.Equal(t, "/", pages[0].String("page"))
	assert.Equal(t, "/products", pages[1].String("page"))
}

func TestTrafficSources_ChannelsPresent(t *testing.T) {
	s := NewStore(ModeRandom, 5)
	snap := metrics.NewSnapshot(s.TrafficSources())
	channels := snap.Map("channels")
	for _, name := range []string{"organic_search", "direct", "social", "referral", "paid_search", "email"} {
		if _, ok := channels[name]; !ok {
			t.Errorf("missing channel %q", name)
		}
	}
	assert.Len(t, snap.Records("top_referrers"), 4)
}

func TestDemographicData_Static(t *testing.T) {
	snap := metrics.NewSnapshot(NewStore(ModeStatic, 0).DemographicData())
	countries := snap.Records("countries")
	require.Len(t, countries, 5)
	assert.Equal(t, "United States", countries[0].String("country"))
	assert.Equal(t, 55.0, snap.Path("devices", "desktop"))
	assert.Len(t, snap.Map("age_groups"), 6)
}
