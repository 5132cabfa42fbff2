package workflow

import "time"

// ProjectHealth is a five-tier project status derived from the overdue
// state of a project's tasks against its buffered deadline.
type ProjectHealth string

const (
	HealthOnTrack        ProjectHealth = "on_track"
	HealthNeedsAttention ProjectHealth = "needs_attention"
	HealthAtRisk         ProjectHealth = "at_risk"
	HealthCritical       ProjectHealth = "critical"
	HealthPastDeadline   ProjectHealth = "past_deadline"
)

// crunchWindowDays is how close to the buffered deadline a project must be
// before overdue tasks escalate it a tier.
const crunchWindowDays = 7

// ProjectStatus carries the classification plus the numbers behind it.
type ProjectStatus struct {
	Project       *Project      `json:"project"`
	Health        ProjectHealth `json:"health"`
	OpenTasks     int           `json:"open_tasks"`
	OverdueTasks  int           `json:"overdue_tasks"`
	DaysRemaining int           `json:"days_remaining"`
}

// ClassifyProject derives a project's health from its tasks' overdue counts
// against the deadline minus the buffer. Tasks not belonging to the project
// are ignored, so callers may pass an unfiltered snapshot.
func ClassifyProject(p *Project, tasks []*Task, now time.Time) ProjectStatus {
	status := ProjectStatus{Project: p}

	effective := p.Deadline.AddDate(0, 0, -p.BufferDays)
	status.DaysRemaining = DaysBetween(now, effective)

	for _, t := range tasks {
		if t.ProjectID != p.ID || t.Status == StatusClosed {
			continue
		}
		status.OpenTasks++
		if IsOverdue(t, now) {
			status.OverdueTasks++
		}
	}

	status.Health = classify(status.OpenTasks, status.OverdueTasks, status.DaysRemaining)
	return status
}

func classify(open, overdue, daysRemaining int) ProjectHealth {
	if daysRemaining < 0 {
		return HealthPastDeadline
	}
	if overdue == 0 {
		return HealthOnTrack
	}
	// Half or more of the open tasks stalled is the severe band.
	severe := 2*overdue >= open
	if daysRemaining <= crunchWindowDays {
		if severe {
			return HealthCritical
		}
		return HealthAtRisk
	}
	if severe {
		return HealthAtRisk
	}
	return HealthNeedsAttention
}
