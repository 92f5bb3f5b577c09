package insights

import "time"

type DayStatus string

const (
	StatusLogged  DayStatus = "logged"
	StatusUnknown DayStatus = "unknown"
	StatusFuture  DayStatus = "future"
	StatusMissing DayStatus = "missing"
)

// weekdays lists the days of a Monday-first week.
var weekdays = [7]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// DayMood is the mood shown for one day of the current week.
type DayMood struct {
	Day    string    `json:"day"`
	Mood   string    `json:"mood,omitempty"`
	Status DayStatus `json:"status"`
}

// WeekStart returns Monday 00:00 of the week containing now, in now's location.
func WeekStart(now time.Time) time.Time {
	offset := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location())
}

// WeekMoods returns Monday through Sunday of now's week. Each day carries the
// mood of its latest entry; entries from before the week are ignored.
func WeekMoods(entries []JournalEntry, now time.Time) []DayMood {
	start := WeekStart(now)
	loc := now.Location()

	var latest [7]*JournalEntry
	for i := range entries {
		created := entries[i].CreatedAt.In(loc)
		if created.Before(start) {
			continue
		}

		idx := (int(created.Weekday()) + 6) % 7
		if latest[idx] == nil || created.After(latest[idx].CreatedAt) {
			latest[idx] = &entries[i]
		}
	}

	today := (int(now.Weekday()) + 6) % 7
	days := make([]DayMood, 0, len(weekdays))
	for i, wd := range weekdays {
		day := DayMood{Day: wd.String()[:3]}

		switch {
		case latest[i] != nil:
			day.Mood = latest[i].Mood
			day.Status = StatusLogged
		case i == today:
			day.Status = StatusUnknown
		case i > today:
			day.Status = StatusFuture
		default:
			day.Status = StatusMissing
		}

		days = append(days, day)
	}

	return days
}
