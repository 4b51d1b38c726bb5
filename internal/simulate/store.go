// Package simulate generates Google-Analytics-shaped metric payloads for the
// server role. Values are either drawn at random within fixed ranges or
// returned from a static fixture.
package simulate

import (
	"math"
	"math/rand/v2"
	"sort"
	"sync"
)

// Mode selects how the store produces values.
type Mode string

// Data modes.
const (
	ModeRandom Mode = "random"
	ModeStatic Mode = "static"
)

// DefaultTopPagesLimit is used when a caller does not pass a limit.
const DefaultTopPagesLimit = 10

// Store produces simulated metric payloads. It is safe for concurrent use.
type Store struct {
	mode Mode
	mu   sync.Mutex
	rng  *rand.Rand
}

// NewStore creates a store. A seed of 0 in random mode seeds from the
// runtime's entropy source.
func NewStore(mode Mode, seed uint64) *Store {
	if mode != ModeStatic {
		mode = ModeRandom
	}
	var src rand.Source
	if seed == 0 {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	} else {
		src = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
	return &Store{mode: mode, rng: rand.New(src)}
}

// Mode returns the store's data mode.
func (s *Store) Mode() Mode {
	return s.mode
}

func (s *Store) intn(lo, hi int) int {
	return lo + s.rng.IntN(hi-lo+1)
}

func (s *Store) uniform(lo, hi float64) float64 {
	return round2(lo + s.rng.Float64()*(hi-lo))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TrafficMetrics returns sessions, pageviews, and users for a date range.
func (s *Store) TrafficMetrics(start, end string) map[string]any {
	dateRange := map[string]any{"start_date": start, "end_date": end}
	if s.mode == ModeStatic {
		return map[string]any{
			"sessions":          1000,
			"pageviews":         3000,
			"users":             800,
			"new_users":         300,
			"pages_per_session": 3.0,
			"date_range":        dateRange,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{
		"sessions":          s.intn(800, 1200),
		"pageviews":         s.intn(2000, 4000),
		"users":             s.intn(600, 1000),
		"new_users":         s.intn(200, 400),
		"pages_per_session": s.uniform(2.1, 3.5),
		"date_range":        dateRange,
	}
}

// EngagementMetrics returns bounce rate and session duration for a date range.
func (s *Store) EngagementMetrics(start, end string) map[string]any {
	dateRange := map[string]any{"start_date": start, "end_date": end}
	if s.mode == ModeStatic {
		return map[string]any{
			"bounce_rate":              50.0,
			"average_session_duration": 200,
			"pages_per_session":        3.0,
			"session_duration_distribution": map[string]any{
				"0-30s": 30, "30s-1m": 20, "1m-3m": 30, "3m+": 20,
			},
			"date_range": dateRange,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{
		"bounce_rate":              s.uniform(35.0, 65.0),
		"average_session_duration": s.intn(120, 300),
		"pages_per_session":        s.uniform(2.0, 4.0),
		"session_duration_distribution": map[string]any{
			"0-30s":  s.intn(20, 40),
			"30s-1m": s.intn(15, 25),
			"1m-3m":  s.intn(20, 35),
			"3m+":    s.intn(10, 25),
		},
		"date_range": dateRange,
	}
}

type page struct {
	path    string
	views   int
	uniques int
}

// TopPages returns up to limit pages sorted by pageviews descending.
func (s *Store) TopPages(limit int) map[string]any {
	if limit <= 0 {
		limit = DefaultTopPagesLimit
	}

	var pages []page
	if s.mode == ModeStatic {
		pages = []page{
			{"/", 450, 380},
			{"/about", 150, 130},
			{"/products", 220, 180},
			{"/contact", 85, 70},
			{"/blog", 130, 105},
		}
	} else {
		s.mu.Lock()
		pages = []page{
			{"/", s.intn(300, 600), s.intn(250, 500)},
			{"/about", s.intn(100, 200), s.intn(80, 180)},
			{"/products", s.intn(150, 300), s.intn(120, 250)},
			{"/contact", s.intn(50, 120), s.intn(40, 100)},
			{"/blog", s.intn(80, 180), s.intn(60, 150)},
		}
		s.mu.Unlock()
	}

	total := len(pages)
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].views > pages[j].views
	})
	if limit < len(pages) {
		pages = pages[:limit]
	}

	out := make([]any, len(pages))
	for i, p := range pages {
		out[i] = map[string]any{
			"page":             p.path,
			"pageviews":        p.views,
			"unique_pageviews": p.uniques,
		}
	}
	return map[string]any{
		"top_pages":            out,
		"total_pages_analyzed": total,
	}
}

// TrafficSources returns the channel percentage breakdown and top referrers.
func (s *Store) TrafficSources() map[string]any {
	if s.mode == ModeStatic {
		return map[string]any{
			"channels": map[string]any{
				"organic_search": 50.0,
				"direct":         25.0,
				"social":         15.0,
				"referral":       10.0,
				"paid_search":    6.0,
				"email":          4.0,
			},
			"top_referrers": []any{
				map[string]any{"source": "google.com", "sessions": 300},
				map[string]any{"source": "facebook.com", "sessions": 100},
				map[string]any{"source": "twitter.com", "sessions": 60},
				map[string]any{"source": "linkedin.com", "sessions": 40},
			},
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{
		"channels": map[string]any{
			"organic_search": s.uniform(40.0, 60.0),
			"direct":         s.uniform(20.0, 35.0),
			"social":         s.uniform(10.0, 20.0),
			"referral":       s.uniform(5.0, 15.0),
			"paid_search":    s.uniform(3.0, 10.0),
			"email":          s.uniform(2.0, 8.0),
		},
		"top_referrers": []any{
			map[string]any{"source": "google.com", "sessions": s.intn(200, 400)},
			map[string]any{"source": "facebook.com", "sessions": s.intn(50, 150)},
			map[string]any{"source": "twitter.com", "sessions": s.intn(30, 100)},
			map[string]any{"source": "linkedin.com", "sessions": s.intn(20, 80)},
		},
	}
}

// DemographicData returns countries, device shares, and age groups.
func (s *Store) DemographicData() map[string]any {
	if s.mode == ModeStatic {
		return map[string]any{
			"countries": []any{
				map[string]any{"country": "United States", "sessions": 420, "percentage": 42.0},
				map[string]any{"country": "United Kingdom", "sessions": 150, "percentage": 15.0},
				map[string]any{"country": "Canada", "sessions": 100, "percentage": 10.0},
				map[string]any{"country": "Germany", "sessions": 80, "percentage": 8.0},
				map[string]any{"country": "Australia", "sessions": 60, "percentage": 6.0},
			},
			"devices": map[string]any{"desktop": 55.0, "mobile": 37.0, "tablet": 8.0},
			"age_groups": map[string]any{
				"18-24": 20.0, "25-34": 30.0, "35-44": 25.0,
				"45-54": 20.0, "55-64": 15.0, "65+": 10.0,
			},
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{
		"countries": []any{
			map[string]any{"country": "United States", "sessions": s.intn(300, 500), "percentage": s.uniform(35.0, 50.0)},
			map[string]any{"country": "United Kingdom", "sessions": s.intn(100, 200), "percentage": s.uniform(10.0, 20.0)},
			map[string]any{"country": "Canada", "sessions": s.intn(50, 150), "percentage": s.uniform(5.0, 15.0)},
			map[string]any{"country": "Germany", "sessions": s.intn(40, 120), "percentage": s.uniform(4.0, 12.0)},
			map[string]any{"country": "Australia", "sessions": s.intn(30, 100), "percentage": s.uniform(3.0, 10.0)},
		},
		"devices": map[string]any{
			"desktop": s.uniform(45.0, 65.0),
			"mobile":  s.uniform(30.0, 45.0),
			"tablet":  s.uniform(5.0, 15.0),
		},
		"age_groups": map[string]any{
			"18-24": s.uniform(15.0, 25.0),
			"25-34": s.uniform(25.0, 35.0),
			"35-44": s.uniform(20.0, 30.0),
			"45-54": s.uniform(15.0, 25.0),
			"55-64": s.uniform(10.0, 20.0),
			"65+":   s.uniform(5.0, 15.0),
		},
	}
}
