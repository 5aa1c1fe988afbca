package entities

import "time"

// CompletionAction says what an update does to a task's completed_at.
type CompletionAction int

const (
	CompletionNoChange CompletionAction = iota
	CompletionSetNow
	CompletionClear
)

func (a CompletionAction) String() string {
	switch a {
	case CompletionSetNow:
		return "set_now"
	case CompletionClear:
		return "clear"
	default:
		return "no_change"
	}
}

// CompletionTransition decides the completed_at action for a status update.
// next is nil when the update does not touch the status.
//
// Moving into completed always stamps a fresh time, so toggling a task away from
// completed and back never restores the original completion time.
func CompletionTransition(current TaskStatus, next *TaskStatus) CompletionAction {
	if next == nil {
		return CompletionNoChange
	}
	if *next == TaskStatusCompleted {
		if current != TaskStatusCompleted {
			return CompletionSetNow
		}
		return CompletionNoChange
	}
	return CompletionClear
}

// ApplyCompletion mutates t.CompletedAt according to action.
func (t *Task) ApplyCompletion(action CompletionAction, now time.Time) {
	switch action {
	case CompletionSetNow:
		stamp := now
		t.CompletedAt = &stamp
	case CompletionClear:
		t.CompletedAt = nil
	}
}

// ComputeTaskStats counts tasks by status plus overdue ones. Overdue is a
// cross-cutting flag: an overdue todo task is counted under both Todo and Overdue.
func ComputeTaskStats(tasks []*Task, now time.Time) TaskStats {
	stats := TaskStats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case TaskStatusCompleted:
			stats.Completed++
		case TaskStatusInProgress:
			stats.InProgress++
		case TaskStatusTodo:
			stats.Todo++
		}
		if t.IsOverdue(now) {
			stats.Overdue++
		}
	}
	return stats
}
