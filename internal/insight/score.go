package insight

import "github.com/blackwell-systems/siteinsight/internal/metrics"

// Score computes a 0-100 performance score from bounce rate, session
// duration, and session volume. A missing bounce rate scores as 100%.
func Score(traffic, engagement metrics.Snapshot) int {
	score := 0

	bounce := engagement.NumberOr("bounce_rate", 100)
	switch {
	case bounce <= 30:
		score += 40
	case bounce <= 50:
		score += 30
	case bounce <= 70:
		score += 20
	default:
		score += 10
	}

	duration := engagement.Number("average_session_duration")
	switch {
	case duration >= 300:
		score += 40
	case duration >= 180:
		score += 30
	case duration >= 120:
		score += 20
	default:
		score += 10
	}

	sessions := traffic.Number("sessions")
	switch {
	case sessions >= 1000:
		score += 20
	case sessions >= 500:
		score += 15
	case sessions >= 100:
		score += 10
	default:
		score += 5
	}

	return min(score, 100)
}

// ScoreInterpretation describes a performance score.
func ScoreInterpretation(score int) string {
	switch {
	case score >= 80:
		return "Excellent! Your website is performing very well."
	case score >= 60:
		return "Good performance with room for optimization."
	case score >= 40:
		return "Average performance - focus on key improvements."
	default:
		return "Poor performance - immediate action required."
	}
}
