package insight

import (
	"fmt"

	"github.com/blackwell-systems/siteinsight/internal/metrics"
)

// Source categories attached to insights.
const (
	SourceTraffic    = "traffic_metrics"
	SourceEngagement = "engagement_metrics"
	SourceChannels   = "traffic_sources"
)

// TrafficRules evaluate sessions and pages_per_session.
var TrafficRules = []Rule{
	{
		Group:    "sessions",
		Metric:   "sessions",
		When:     func(s metrics.Snapshot) bool { return s.Number("sessions") < 500 },
		Kind:     KindAlert,
		Severity: SeverityHigh,
		Title:    "Low Traffic Volume",
		Describe: func(s metrics.Snapshot) string {
			return fmt.Sprintf("Website received only %s sessions. This is below typical benchmarks.", metrics.FormatNumber(s.Number("sessions")))
		},
		Recommendations: []string{
			"Implement SEO optimization to improve organic search visibility",
			"Consider paid advertising campaigns to drive more traffic",
			"Analyze and improve content marketing strategy",
			"Check for technical issues that might be affecting site accessibility",
		},
		Source:     SourceTraffic,
		Confidence: 0.8,
	},
	{
		Group:    "sessions",
		Metric:   "sessions",
		When:     func(s metrics.Snapshot) bool { return s.Number("sessions") > 1000 },
		Kind:     KindPerformance,
		Severity: SeverityLow,
		Title:    "Strong Traffic Performance",
		Describe: func(s metrics.Snapshot) string {
			return fmt.Sprintf("Website achieved %s sessions, indicating good traffic performance.", metrics.FormatNumber(s.Number("sessions")))
		},
		Recommendations: []string{
			"Maintain current marketing strategies",
			"Consider scaling successful campaigns",
			"Focus on conversion optimization to maximize the high traffic",
		},
		Source:     SourceTraffic,
		Confidence: 0.9,
	},
	{
		Metric:   "pages_per_session",
		When:     func(s metrics.Snapshot) bool { return s.Number("pages_per_session") < 2.0 },
		Kind:     KindOptimization,
		Severity: SeverityMedium,
		Title:    "Low Page Engagement",
		Describe: func(s metrics.Snapshot) string {
			return fmt.Sprintf("Average of %s pages per session suggests users aren't exploring the site deeply.", metrics.FormatNumber(s.Number("pages_per_session")))
		},
		Recommendations: []string{
			"Improve internal linking between related content",
			"Add 'related articles' or 'you might also like' sections",
			"Review and optimize page loading speeds",
			"Enhance navigation menu and site structure",
		},
		Source:     SourceTraffic,
		Confidence: 0.7,
	},
}

// EngagementRules evaluate bounce_rate and average_session_duration.
var EngagementRules = []Rule{
	{
		Group:    "bounce_rate",
		Metric:   "bounce_rate",
		When:     func(s metrics.Snapshot) bool { return s.Number("bounce_rate") > 70 },
		Kind:     KindAlert,
		Severity: SeverityHigh,
		Title:    "High Bounce Rate",
		Describe: func(s metrics.Snapshot) string {
			return fmt.Sprintf("Bounce rate of %s%% is concerning and indicates users are leaving quickly.", metrics.FormatNumber(s.Number("bounce_rate")))
		},
		Recommendations: []string{
			"Improve page loading speed (target <3 seconds)",
			"Ensure content matches user expectations from search results",
			"Enhance page design and user experience",
			"Add clear calls-to-action to guide user behavior",
			"Review mobile responsiveness and mobile user experience",
		},
		Source:     SourceEngagement,
		Confidence: 0.9,
	},
	{
		Group:    "bounce_rate",
		Metric:   "bounce_rate",
		When:     func(s metrics.Snapshot) bool { return s.Number("bounce_rate") < 40 },
		Kind:     KindPerformance,
		Severity: SeverityLow,
		Title:    "Good User Engagement",
		Describe: func(s metrics.Snapshot) string {
			return fmt.Sprintf("Bounce rate of %s%% indicates good user engagement.", metrics.FormatNumber(s.Number("bounce_rate")))
		},
		Recommendations: []string{
			"Continue current content and UX strategies",
			"Identify top-performing pages and replicate their success factors",
		},
		Source:     SourceEngagement,
		Confidence: 0.8,
	},
	{
		Metric:   "average_session_duration",
		When:     func(s metrics.Snapshot) bool { return s.Number("average_session_duration") < 60 },
		Kind:     KindOptimization,
		Severity: SeverityMedium,
		Title:    "Short Session Duration",
		Describe: func(s metrics.Snapshot) string {
			return fmt.Sprintf("Average session duration of %s seconds suggests limited engagement.", metrics.FormatNumber(s.Number("average_session_duration")))
		},
		Recommendations: []string{
			"Add more engaging, interactive content",
			"Improve content readability and structure",
			"Include videos, images, and other media to increase engagement",
			"Create compelling content that encourages further exploration",
		},
		Source:     SourceEngagement,
		Confidence: 0.7,
	},
}

// SourceRules evaluate the channel percentage breakdown.
var SourceRules = []Rule{
	{
		Metric:   "channels.organic_search",
		When:     func(s metrics.Snapshot) bool { return s.Path("channels", "organic_search") > 70 },
		Kind:     KindAlert,
		Severity: SeverityMedium,
		Title:    "High Dependency on Organic Search",
		Describe: func(s metrics.Snapshot) string {
			return fmt.Sprintf("%s%% of traffic comes from organic search. This creates vulnerability to search algorithm changes.", metrics.FormatNumber(s.Path("channels", "organic_search")))
		},
		Recommendations: []string{
			"Diversify traffic sources through social media marketing",
			"Invest in email marketing campaigns",
			"Consider paid advertising to reduce organic dependency",
			"Build direct traffic through brand awareness campaigns",
		},
		Source:     SourceChannels,
		Confidence: 0.8,
	},
	{
		Metric:   "channels.direct",
		When:     func(s metrics.Snapshot) bool { return s.Path("channels", "direct") < 20 },
		Kind:     KindOptimization,
		Severity: SeverityMedium,
		Title:    "Low Brand Recognition",
		Describe: func(s metrics.Snapshot) string {
			return fmt.Sprintf("Only %s%% direct traffic suggests limited brand awareness.", metrics.FormatNumber(s.Path("channels", "direct")))
		},
		Recommendations: []string{
			"Invest in brand awareness campaigns",
			"Improve brand recall through consistent messaging",
			"Encourage repeat visits through email newsletters",
			"Build a community around your brand",
		},
		Source:     SourceChannels,
		Confidence: 0.7,
	},
	{
		Metric:   "channels.social",
		When:     func(s metrics.Snapshot) bool { return s.Path("channels", "social") < 10 },
		Kind:     KindRecommendation,
		Severity: SeverityLow,
		Title:    "Social Media Growth Opportunity",
		Describe: func(s metrics.Snapshot) string {
			return fmt.Sprintf("Social traffic is only %s%%, indicating untapped potential.", metrics.FormatNumber(s.Path("channels", "social")))
		},
		Recommendations: []string{
			"Develop a comprehensive social media strategy",
			"Create shareable content optimized for each platform",
			"Engage actively with your audience on social platforms",
			"Consider social media advertising to expand reach",
		},
		Source:     SourceChannels,
		Confidence: 0.6,
	},
}
