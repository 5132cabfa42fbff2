package workflow

import (
	"math"
	"sort"
	"time"
)

// StreakWindowDays bounds how far back note activity feeds the day streak.
const StreakWindowDays = 30

// completedRecentlyWindow is the lookback for the completed-this-week count.
const completedRecentlyWindow = 7 * 24 * time.Hour

// Level is a presentational reliability tier.
type Level struct {
	Label string `json:"label"`
	Emoji string `json:"emoji"`
	// MinScore is the inclusive lower score bound for the tier.
	MinScore int `json:"min_score"`
}

// levels lists the reliability tiers from best to worst. Thresholds are part
// of the scoring contract and covered by tests.
var levels = []Level{
	{Label: "Rock Solid", Emoji: "🏆", MinScore: 95},
	{Label: "Dependable", Emoji: "🌟", MinScore: 85},
	{Label: "Steady", Emoji: "✅", MinScore: 75},
	{Label: "Improving", Emoji: "📈", MinScore: 60},
	{Label: "Slipping", Emoji: "⚠️", MinScore: 40},
	{Label: "At Risk", Emoji: "🔴", MinScore: 0},
}

// LevelForScore maps a 0-100 reliability score to its tier.
func LevelForScore(score int) Level {
	for _, l := range levels {
		if score >= l.MinScore {
			return l
		}
	}
	return levels[len(levels)-1]
}

// EligibleForScoring is the leaderboard inclusion predicate: only internal
// staff are scored. Third-party vendors are excluded unless they also hold
// an employee affiliation, and contacts with no affiliation at all are not
// scored.
func EligibleForScoring(c *Contact) bool {
	return c.IsInternalStaff()
}

// ContactScore aggregates one contact's task history into reliability
// metrics.
type ContactScore struct {
	Contact *Contact `json:"contact"`

	TotalTasks        int `json:"total_tasks"`
	WithinCadence     int `json:"within_cadence"`
	TotalOpen         int `json:"total_open"`
	Overdue           int `json:"overdue"`
	OnTrack           int `json:"on_track"`
	CompletedThisWeek int `json:"completed_this_week"`

	// AvgDaysToAct averages days-since-movement across the contact's tasks.
	AvgDaysToAct float64 `json:"avg_days_to_act"`

	// Score is round(100 * WithinCadence / TotalTasks), in [0, 100].
	Score int `json:"score"`
	// Streak counts consecutive note-activity days ending today or yesterday.
	Streak int `json:"streak"`
	Level  Level `json:"level"`
	// Rank is the 1-based leaderboard position.
	Rank int `json:"rank"`
}

// ScoreBoard computes reliability scores for every eligible contact with at
// least one owned task, ranked by (score desc, overdue asc). Contacts with
// no tasks produce no entry. Both task statuses count: closed tasks are
// handled regardless of how late, open tasks count as within cadence only
// while on track.
func ScoreBoard(tasks []*Task, contacts []*Contact, notes []*Note, now time.Time) []ContactScore {
	noteDays := noteDaysByAuthor(notes, now)

	scores := make([]ContactScore, 0, len(contacts))
	for _, c := range contacts {
		if !EligibleForScoring(c) {
			continue
		}

		cs := ContactScore{Contact: c}
		var daysSum, daysCount int

		for _, t := range tasks {
			if !t.OwnedBy(c.ID) {
				continue
			}
			cs.TotalTasks++
			daysSum += DaysSinceMovement(t, now)
			daysCount++

			if t.Status == StatusClosed {
				cs.WithinCadence++
				if now.Sub(t.LastMovementAt) <= completedRecentlyWindow {
					cs.CompletedThisWeek++
				}
				continue
			}

			cs.TotalOpen++
			if IsOverdue(t, now) {
				cs.Overdue++
			} else {
				cs.OnTrack++
				cs.WithinCadence++
			}
		}

		if cs.TotalTasks == 0 {
			continue
		}

		cs.AvgDaysToAct = float64(daysSum) / float64(daysCount)
		cs.Score = int(math.Round(100 * float64(cs.WithinCadence) / float64(cs.TotalTasks)))
		cs.Streak = streak(noteDays[c.ID], now)
		cs.Level = LevelForScore(cs.Score)
		scores = append(scores, cs)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		if scores[i].Overdue != scores[j].Overdue {
			return scores[i].Overdue < scores[j].Overdue
		}
		return scores[i].Contact.ID < scores[j].Contact.ID
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
	return scores
}

// noteDaysByAuthor builds, per author, the set of calendar days within the
// streak window on which they wrote at least one note.
func noteDaysByAuthor(notes []*Note, now time.Time) map[string]map[string]bool {
	cutoff := now.AddDate(0, 0, -StreakWindowDays)
	days := make(map[string]map[string]bool)
	for _, n := range notes {
		if n.CreatedAt.Before(cutoff) {
			continue
		}
		set := days[n.AuthorID]
		if set == nil {
			set = make(map[string]bool)
			days[n.AuthorID] = set
		}
		set[dayKey(n.CreatedAt, now.Location())] = true
	}
	return days
}

// streak walks backward from today counting consecutive days with note
// activity. A missing note for today specifically does not break the streak,
// since today may simply not have happened yet; any other gap stops the
// count.
func streak(days map[string]bool, now time.Time) int {
	if len(days) == 0 {
		return 0
	}
	count := 0
	for offset := 0; offset <= StreakWindowDays; offset++ {
		day := dayKey(now.AddDate(0, 0, -offset), now.Location())
		if days[day] {
			count++
			continue
		}
		if offset == 0 {
			continue
		}
		break
	}
	return count
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
