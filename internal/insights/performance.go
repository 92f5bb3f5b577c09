package insights

import "math"

// moodScale maps a sentiment score in [0,1] onto the 0-5 mood scale.
const moodScale = 5

// Performance is the overall summary shown on the insights page.
type Performance struct {
	ActiveDays        int     `json:"active_days"`
	AverageMood       float64 `json:"average_mood"`
	AverageMotivation float64 `json:"average_motivation"`
	SkillsEnrolled    int     `json:"skills_enrolled"`
}

// Summarize computes the performance summary. Enrollments are counted for
// userID only, or all of them when userID is empty.
func Summarize(entries []JournalEntry, enrollments []Enrollment, userID string) Performance {
	var p Performance

	days := make(map[string]struct{}, len(entries))
	var total float64
	for _, e := range entries {
		days[e.CreatedAt.UTC().Format("2006-01-02")] = struct{}{}
		total += e.SentimentScore * moodScale
	}

	p.ActiveDays = len(days)
	if len(entries) > 0 {
		p.AverageMood = total / float64(len(entries))
	}
	p.AverageMotivation = roundTo(p.AverageMood, 1) * 100 / moodScale

	for _, en := range enrollments {
		if userID == "" || en.User == userID {
			p.SkillsEnrolled++
		}
	}

	return p
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
