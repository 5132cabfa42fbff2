package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func projectWith(deadlineDays, buffer int) *Project {
	return &Project{
		ID:         "project:p1",
		Name:       "Rollout",
		Deadline:   clockNow.AddDate(0, 0, deadlineDays),
		BufferDays: buffer,
	}
}

func projectTask(id string, cadence, daysAgo int) *Task {
	t := openTask(id, cadence, daysAgo)
	t.ProjectID = "project:p1"
	return t
}

func TestClassifyProject(t *testing.T) {
	tests := []struct {
		name    string
		project *Project
		tasks   []*Task
		want    ProjectHealth
	}{
		{
			name:    "no overdue tasks",
			project: projectWith(30, 5),
			tasks:   []*Task{projectTask("t1", 10, 2)},
			want:    HealthOnTrack,
		},
		{
			name:    "some overdue, plenty of runway",
			project: projectWith(30, 5),
			tasks: []*Task{
				projectTask("t1", 5, 9),
				projectTask("t2", 10, 2),
				projectTask("t3", 10, 2),
			},
			want: HealthNeedsAttention,
		},
		{
			name:    "half overdue, plenty of runway",
			project: projectWith(30, 5),
			tasks: []*Task{
				projectTask("t1", 5, 9),
				projectTask("t2", 10, 2),
			},
			want: HealthAtRisk,
		},
		{
			name:    "some overdue near the buffered deadline",
			project: projectWith(10, 5),
			tasks: []*Task{
				projectTask("t1", 5, 9),
				projectTask("t2", 10, 2),
				projectTask("t3", 10, 2),
			},
			want: HealthAtRisk,
		},
		{
			name:    "half overdue near the buffered deadline",
			project: projectWith(10, 5),
			tasks: []*Task{
				projectTask("t1", 5, 9),
				projectTask("t2", 5, 20),
				projectTask("t3", 10, 2),
			},
			want: HealthCritical,
		},
		{
			name:    "past the buffered deadline",
			project: projectWith(3, 5),
			tasks:   []*Task{projectTask("t1", 10, 2)},
			want:    HealthPastDeadline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := ClassifyProject(tt.project, tt.tasks, clockNow)
			assert.Equal(t, tt.want, status.Health)
		})
	}
}

func TestClassifyProject_IgnoresOtherProjectsAndClosed(t *testing.T) {
	other := openTask("other", 5, 30)
	other.ProjectID = "project:elsewhere"

	done := projectTask("done", 5, 30)
	done.Status = StatusClosed

	status := ClassifyProject(projectWith(30, 5), []*Task{other, done, projectTask("t1", 10, 2)}, clockNow)
	assert.Equal(t, 1, status.OpenTasks)
	assert.Equal(t, 0, status.OverdueTasks)
	assert.Equal(t, HealthOnTrack, status.Health)
}
