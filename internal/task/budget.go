package task

import "time"

// Budget bounds a single Engine.Run call, per spec.md §4.E / §7's
// BudgetExceeded status: a task count ceiling, a wall-clock deadline, or
// both. The zero Budget is unlimited.
type Budget struct {
	MaxTasks int
	Deadline time.Time
}

func (b Budget) exceeded(tasksRun int) bool {
	if b.MaxTasks > 0 && tasksRun >= b.MaxTasks {
		return true
	}
	if !b.Deadline.IsZero() && time.Now().After(b.Deadline) {
		return true
	}
	return false
}
