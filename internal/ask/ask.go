// Package ask answers free-text questions about site analytics by mapping
// them to one metric family and formatting a single sentence.
package ask

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/blackwell-systems/siteinsight/internal/logging"
	"github.com/blackwell-systems/siteinsight/internal/metrics"
	"github.com/blackwell-systems/siteinsight/internal/source"
)

// Intent is the topic a question was matched to.
type Intent string

// Intents, in match order.
const (
	IntentTraffic      Intent = "traffic"
	IntentEngagement   Intent = "engagement"
	IntentSources      Intent = "sources"
	IntentTopPages     Intent = "top_pages"
	IntentDemographics Intent = "demographics"
)

// HelpText is returned when a question matches no intent.
const HelpText = "I can help you analyze traffic metrics, engagement data, traffic sources, top pages, and demographics. " +
	"Try asking: 'How is my website traffic?' or 'What's my bounce rate?' or 'Where do my visitors come from?'"

type intentRule struct {
	intent   Intent
	family   metrics.Family
	keywords []string
}

var intentRules = []intentRule{
	{IntentTraffic, metrics.FamilyTraffic, []string{"traffic", "visitors", "sessions", "users"}},
	{IntentEngagement, metrics.FamilyEngagement, []string{"engagement", "bounce", "duration", "time"}},
	{IntentSources, metrics.FamilySources, []string{"source", "referral", "social", "search"}},
	{IntentTopPages, metrics.FamilyTopPages, []string{"pages", "content", "popular"}},
	{IntentDemographics, metrics.FamilyDemographics, []string{"demographics", "location", "country", "device", "mobile"}},
}

// Match returns the first intent with a keyword contained in q, compared
// case-insensitively.
func Match(q string) (Intent, bool) {
	lower := strings.ToLower(q)
	for _, r := range intentRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.intent, true
			}
		}
	}
	return "", false
}

// Family returns the metric family an intent reads.
func (i Intent) Family() metrics.Family {
	for _, r := range intentRules {
		if r.intent == i {
			return r.family
		}
	}
	return ""
}

// ErrorText is the sentence shown when the data behind an answer could not
// be fetched.
func ErrorText(err error) string {
	return fmt.Sprintf("I encountered an error while retrieving data: %v. Please make sure the MCP server is running.", err)
}

var errNoChannels = errors.New("no traffic source data available")

// Answer formats the sentence for intent from snap.
func Answer(intent Intent, snap metrics.Snapshot) (string, error) {
	switch intent {
	case IntentTraffic:
		return fmt.Sprintf(
			"Your website had %s sessions from %s users, generating %s page views. Each user viewed an average of %.1f pages per session.",
			humanize.Comma(int64(snap.Int("sessions"))),
			humanize.Comma(int64(snap.Int("users"))),
			humanize.Comma(int64(snap.Int("pageviews"))),
			snap.Number("pages_per_session"),
		), nil

	case IntentEngagement:
		bounce := snap.Number("bounce_rate")
		duration := snap.Int("average_session_duration")
		verdict := "Consider improving page content and loading speed to reduce bounce rate."
		if bounce < 50 {
			verdict = "This indicates good engagement."
		}
		return fmt.Sprintf(
			"Your website has a %s%% bounce rate and users spend an average of %d:%02d minutes on the site. %s",
			metrics.FormatNumber(bounce), duration/60, duration%60, verdict,
		), nil

	case IntentSources:
		channels := rankChannels(snap.Map("channels"))
		if len(channels) == 0 {
			return "", errNoChannels
		}
		others := channels[1:]
		if len(others) > 3 {
			others = others[:3]
		}
		parts := make([]string, len(others))
		for i, c := range others {
			parts[i] = fmt.Sprintf("%s: %s%%", c.label(), metrics.FormatNumber(c.share))
		}
		return fmt.Sprintf("Your top traffic source is %s at %s%%. Other significant sources include: %s",
			channels[0].label(), metrics.FormatNumber(channels[0].share), strings.Join(parts, ", ")), nil

	case IntentTopPages:
		pages := snap.Records("top_pages")
		if len(pages) > 3 {
			pages = pages[:3]
		}
		parts := make([]string, len(pages))
		for i, p := range pages {
			parts[i] = fmt.Sprintf("%s (%s views)", p.String("page"), metrics.FormatNumber(p.Number("pageviews")))
		}
		return "Your top performing pages are: " + strings.Join(parts, ", "), nil

	case IntentDemographics:
		countries := snap.Records("countries")
		if len(countries) > 3 {
			countries = countries[:3]
		}
		parts := make([]string, len(countries))
		for i, c := range countries {
			parts[i] = fmt.Sprintf("%s (%s%%)", c.String("country"), metrics.FormatNumber(c.Number("percentage")))
		}
		return fmt.Sprintf("Your top locations are: %s. Device breakdown: Desktop %s%%, Mobile %s%%, Tablet %s%%.",
			strings.Join(parts, ", "),
			metrics.FormatNumber(snap.Path("devices", "desktop")),
			metrics.FormatNumber(snap.Path("devices", "mobile")),
			metrics.FormatNumber(snap.Path("devices", "tablet")),
		), nil
	}
	return HelpText, nil
}

// channelOrder breaks ties between equal shares.
var channelOrder = map[string]int{
	"organic_search": 0,
	"direct":         1,
	"social":         2,
	"referral":       3,
	"paid_search":    4,
	"email":          5,
}

type channel struct {
	name  string
	share float64
}

func (c channel) label() string {
	return strings.ReplaceAll(c.name, "_", " ")
}

func rankChannels(m map[string]float64) []channel {
	out := make([]channel, 0, len(m))
	for name, share := range m {
		out = append(out, channel{name, share})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].share != out[j].share {
			return out[i].share > out[j].share
		}
		oi, iok := channelOrder[out[i].name]
		oj, jok := channelOrder[out[j].name]
		if iok != jok {
			return iok
		}
		if oi != oj {
			return oi < oj
		}
		return out[i].name < out[j].name
	})
	return out
}

// Answerer fetches the family behind a question and answers it.
type Answerer struct {
	src    source.Source
	logger logging.Logger
	// TopPagesLimit is sent with top-page questions. Zero leaves the
	// server default.
	TopPagesLimit int
}

// NewAnswerer creates an Answerer reading from src. A nil logger discards.
func NewAnswerer(src source.Source, logger logging.Logger) *Answerer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Answerer{src: src, logger: logger}
}

// Ask answers q. It never returns an empty string: unmatched questions get
// HelpText and fetch failures get ErrorText.
func (a *Answerer) Ask(ctx context.Context, q string) string {
	intent, ok := Match(q)
	if !ok {
		return HelpText
	}
	sel := metrics.Selector{Family: intent.Family()}
	if sel.Family == metrics.FamilyTopPages {
		sel.Limit = a.TopPagesLimit
	}
	snap, err := a.src.Fetch(ctx, sel)
	if err != nil {
		a.logger.WithFields(logging.Fields{
			"intent": string(intent),
			"kind":   string(source.KindOf(err)),
		}).WithError(err).Warn("question fetch failed")
		return ErrorText(err)
	}
	text, err := Answer(intent, snap)
	if err != nil {
		return ErrorText(err)
	}
	return text
}
