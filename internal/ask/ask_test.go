package ask

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/siteinsight/internal/metrics"
	"github.com/blackwell-systems/siteinsight/internal/source"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		q    string
		want Intent
		ok   bool
	}{
		{"How is my website TRAFFIC?", IntentTraffic, true},
		{"What's my bounce rate?", IntentEngagement, true},
		{"Where do my visitors come from?", IntentTraffic, true},
		{"Which referral sites matter?", IntentSources, true},
		{"What content is popular?", IntentTopPages, true},
		{"Which country do people browse from?", IntentDemographics, true},
		// "users" is tested before "time".
		{"how much time do users spend", IntentTraffic, true},
		// "search" wins before "pages".
		{"search pages", IntentSources, true},
		{"tell me a joke", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.q, func(t *testing.T) {
			got, ok := Match(tc.q)
			if got != tc.want || ok != tc.ok {
				t.Errorf("Match(%q) = (%q, %v), want (%q, %v)", tc.q, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestIntentFamily(t *testing.T) {
	assert.Equal(t, metrics.FamilyEngagement, IntentEngagement.Family())
	assert.Equal(t, metrics.FamilyDemographics, IntentDemographics.Family())
	assert.Equal(t, metrics.Family(""), Intent("weather").Family())
}

func TestAnswer_BounceScenario(t *testing.T) {
	snap := metrics.NewSnapshot(map[string]any{"bounce_rate": 45, "average_session_duration": 150})
	text, err := Answer(IntentEngagement, snap)
	require.NoError(t, err)
	assert.Contains(t, text, "45% bounce rate")
	assert.Contains(t, text, "2:30 minutes")
	assert.True(t, strings.HasSuffix(text, "This indicates good engagement."))
}

func TestAnswer_TinyBounceIsPlainDecimal(t *testing.T) {
	snap := metrics.NewSnapshot(map[string]any{"bounce_rate": 0.00001, "average_session_duration": 150})
	text, err := Answer(IntentEngagement, snap)
	require.NoError(t, err)
	assert.Contains(t, text, "0.00001% bounce rate")
}

func TestAnswer_HighBounce(t *testing.T) {
	snap := metrics.NewSnapshot(map[string]any{"bounce_rate": 50, "average_session_duration": 65})
	text, err := Answer(IntentEngagement, snap)
	require.NoError(t, err)
	assert.Contains(t, text, "1:05 minutes")
	assert.Contains(t, text, "Consider improving page content and loading speed to reduce bounce rate.")
}

func TestAnswer_Traffic(t *testing.T) {
	snap := metrics.NewSnapshot(map[string]any{
		"sessions": 12345, "users": 980, "pageviews": 40000, "pages_per_session": 3.24,
	})
	text, err := Answer(IntentTraffic, snap)
	require.NoError(t, err)
	assert.Equal(t,
		"Your website had 12,345 sessions from 980 users, generating 40,000 page views. Each user viewed an average of 3.2 pages per session.",
		text)
}

func TestAnswer_Sources(t *testing.T) {
	snap := metrics.NewSnapshot(map[string]any{"channels": map[string]any{
		"organic_search": 50.5, "direct": 25, "social": 15, "referral": 10, "email": 4,
	}})
	text, err := Answer(IntentSources, snap)
	require.NoError(t, err)
	assert.Equal(t,
		"Your top traffic source is organic search at 50.5%. Other significant sources include: direct: 25%, social: 15%, referral: 10%",
		text)
}

func TestAnswer_SourcesEmpty(t *testing.T) {
	_, err := Answer(IntentSources, metrics.NewSnapshot(nil))
	assert.Error(t, err)
}

func TestAnswer_TopPages(t *testing.T) {
	snap := metrics.NewSnapshot(map[string]any{"top_pages": []any{
		map[string]any{"page": "/", "pageviews": 450},
		map[string]any{"page": "/products", "pageviews": 220},
		map[string]any{"page": "/about", "pageviews": 150},
		map[string]any{"page": "/blog", "pageviews": 130},
	}})
	text, err := Answer(IntentTopPages, snap)
	require.NoError(t, err)
	assert.Equal(t, "Your top performing pages are: / (450 views), /products (220 views), /about (150 views)", text)
}

func TestAnswer_Demographics(t *testing.T) {
	snap := metrics.NewSnapshot(map[string]any{
		"countries": []any{
			map[string]any{"country": "United States", "percentage": 42.0},
			map[string]any{"country": "Canada", "percentage": 10.5},
		},
		"devices": map[string]any{"desktop": 55.0, "mobile": 37.0, "tablet": 8.0},
	})
	text, err := Answer(IntentDemographics, snap)
	require.NoError(t, err)
	assert.Equal(t,
		"Your top locations are: United States (42%), Canada (10.5%). Device breakdown: Desktop 55%, Mobile 37%, Tablet 8%.",
		text)
}

func TestAnswerer_Ask(t *testing.T) {
	src := source.NewStatic(map[metrics.Family]map[string]any{
		metrics.FamilyEngagement: {"bounce_rate": 45, "average_session_duration": 150},
	})
	a := NewAnswerer(src, nil)
	ctx := context.Background()

	assert.Contains(t, a.Ask(ctx, "What's my bounce rate?"), "45% bounce rate")
	assert.Equal(t, HelpText, a.Ask(ctx, "hello there"))

	failed := a.Ask(ctx, "What devices do people use?")
	assert.True(t, strings.HasPrefix(failed, "I encountered an error while retrieving data: "))
	assert.True(t, strings.HasSuffix(failed, "Please make sure the MCP server is running."))
}

func TestAnswerer_AskIsStateless(t *testing.T) {
	src := source.NewStatic(map[metrics.Family]map[string]any{
		metrics.FamilyEngagement: {"bounce_rate": 45, "average_session_duration": 150},
	})
	a := NewAnswerer(src, nil)
	first := a.Ask(context.Background(), "bounce?")
	a.Ask(context.Background(), "traffic?")
	assert.Equal(t, first, a.Ask(context.Background(), "bounce?"))
}
