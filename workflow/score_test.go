package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staffContact(id, name string) *Contact {
	return &Contact{ID: id, Name: name, CompanyTags: []string{"acme"}}
}

func closedTask(id string, owner string, closedDaysAgo int) *Task {
	moved := clockNow.AddDate(0, 0, -closedDaysAgo)
	return &Task{
		ID:                  id,
		Status:              StatusClosed,
		FollowUpCadenceDays: 5,
		LastMovementAt:      moved,
		OwnerIDs:            []string{owner},
		ClosedAt:            &moved,
	}
}

func TestScoreBoard_ScoreFormula(t *testing.T) {
	// 10 tasks: 8 closed, 1 open on track, 1 open overdue → 9/10 = 90.
	ana := staffContact("contact:ana", "Ana")
	var tasks []*Task
	for i := 0; i < 8; i++ {
		tasks = append(tasks, closedTask(taskID("closed", i), ana.ID, 20))
	}
	tasks = append(tasks, ownedTask("open-ontrack", 10, 3, ana.ID))
	tasks = append(tasks, ownedTask("open-overdue", 5, 9, ana.ID))

	scores := ScoreBoard(tasks, []*Contact{ana}, nil, clockNow)
	require.Len(t, scores, 1)

	s := scores[0]
	assert.Equal(t, 10, s.TotalTasks)
	assert.Equal(t, 9, s.WithinCadence)
	assert.Equal(t, 2, s.TotalOpen)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 1, s.OnTrack)
	assert.Equal(t, 90, s.Score)
	assert.Equal(t, "Dependable", s.Level.Label)
	assert.Equal(t, 1, s.Rank)
}

func taskID(prefix string, i int) string {
	return prefix + "-" + string(rune('a'+i))
}

func TestScoreBoard_ClosedCountsRegardlessOfLateness(t *testing.T) {
	ana := staffContact("contact:ana", "Ana")
	// Closed long after its cadence expired still counts as handled.
	late := closedTask("late", ana.ID, 90)
	late.FollowUpCadenceDays = 1

	scores := ScoreBoard([]*Task{late}, []*Contact{ana}, nil, clockNow)
	require.Len(t, scores, 1)
	assert.Equal(t, 100, scores[0].Score)
}

func TestScoreBoard_VendorExclusion(t *testing.T) {
	vendor := &Contact{ID: "contact:v", Name: "VendorCo", ThirdPartyVendor: true}
	vendorStaff := &Contact{
		ID: "contact:vs", Name: "Embedded",
		ThirdPartyVendor: true, CompanyTags: []string{"acme"},
	}
	personal := &Contact{ID: "contact:p", Name: "Dentist"}

	tasks := []*Task{
		ownedTask("t1", 5, 1, vendor.ID),
		ownedTask("t2", 5, 1, vendorStaff.ID),
		ownedTask("t3", 5, 1, personal.ID),
	}

	scores := ScoreBoard(tasks, []*Contact{vendor, vendorStaff, personal}, nil, clockNow)
	require.Len(t, scores, 1, "only the vendor with an employee flag is scored")
	assert.Equal(t, "contact:vs", scores[0].Contact.ID)
}

func TestScoreBoard_NoTasksNoEntry(t *testing.T) {
	ana := staffContact("contact:ana", "Ana")
	idle := staffContact("contact:idle", "Idle")

	scores := ScoreBoard([]*Task{ownedTask("t1", 5, 1, ana.ID)}, []*Contact{ana, idle}, nil, clockNow)
	require.Len(t, scores, 1)
	assert.Equal(t, ana.ID, scores[0].Contact.ID)
}

func TestScoreBoard_CompletedThisWeek(t *testing.T) {
	ana := staffContact("contact:ana", "Ana")
	tasks := []*Task{
		closedTask("recent", ana.ID, 2),
		closedTask("old", ana.ID, 20),
	}

	scores := ScoreBoard(tasks, []*Contact{ana}, nil, clockNow)
	require.Len(t, scores, 1)
	assert.Equal(t, 1, scores[0].CompletedThisWeek)
}

func TestScoreBoard_Rank(t *testing.T) {
	ana := staffContact("contact:ana", "Ana")
	bob := staffContact("contact:bob", "Bob")
	cal := staffContact("contact:cal", "Cal")

	tasks := []*Task{
		// Ana: 1 closed, 1 overdue → 50.
		closedTask("a1", ana.ID, 10),
		ownedTask("a2", 5, 9, ana.ID),
		// Bob: 1 closed, 1 on track → 100.
		closedTask("b1", bob.ID, 10),
		ownedTask("b2", 30, 2, bob.ID),
		// Cal: 1 closed, 1 overdue, 1 on track, 1 more overdue → 2/4 = 50,
		// more overdue than Ana so ranked below her.
		closedTask("c1", cal.ID, 10),
		ownedTask("c2", 5, 9, cal.ID),
		ownedTask("c3", 30, 2, cal.ID),
		ownedTask("c4", 5, 20, cal.ID),
	}

	scores := ScoreBoard(tasks, []*Contact{cal, ana, bob}, nil, clockNow)
	require.Len(t, scores, 3)
	assert.Equal(t, bob.ID, scores[0].Contact.ID)
	assert.Equal(t, 1, scores[0].Rank)
	assert.Equal(t, ana.ID, scores[1].Contact.ID)
	assert.Equal(t, 2, scores[1].Rank)
	assert.Equal(t, cal.ID, scores[2].Contact.ID)
	assert.Equal(t, 3, scores[2].Rank)
}

func TestLevelForScore_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "Rock Solid"},
		{95, "Rock Solid"},
		{94, "Dependable"},
		{85, "Dependable"},
		{84, "Steady"},
		{75, "Steady"},
		{74, "Improving"},
		{60, "Improving"},
		{59, "Slipping"},
		{40, "Slipping"},
		{39, "At Risk"},
		{0, "At Risk"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForScore(tt.score).Label, "score %d", tt.score)
	}
}

func noteOn(author string, daysAgo int) *Note {
	return &Note{
		ID:        "note:" + author + "-" + time.Duration(daysAgo).String(),
		TaskID:    "task:x",
		AuthorID:  author,
		Body:      "checked in",
		CreatedAt: clockNow.AddDate(0, 0, -daysAgo),
	}
}

func TestScoreBoard_Streak(t *testing.T) {
	ana := staffContact("contact:ana", "Ana")
	tasks := []*Task{ownedTask("t1", 30, 1, ana.ID)}

	tests := []struct {
		name string
		days []int
		want int
	}{
		{name: "no notes", days: nil, want: 0},
		{name: "today only", days: []int{0}, want: 1},
		{name: "three consecutive ending today", days: []int{0, 1, 2}, want: 3},
		{
			// Today has no note yet; yesterday and the day before count.
			name: "missing today does not break",
			days: []int{1, 2},
			want: 2,
		},
		{name: "gap stops the count", days: []int{0, 1, 3, 4}, want: 2},
		{name: "only old activity", days: []int{5, 6}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var notes []*Note
			for _, d := range tt.days {
				notes = append(notes, noteOn(ana.ID, d))
			}
			scores := ScoreBoard(tasks, []*Contact{ana}, notes, clockNow)
			require.Len(t, scores, 1)
			assert.Equal(t, tt.want, scores[0].Streak)
		})
	}
}

func TestScoreBoard_EmptyInput(t *testing.T) {
	assert.Empty(t, ScoreBoard(nil, nil, nil, clockNow))
}
