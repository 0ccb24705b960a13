package services

import "sort"

// taskPosition is the slice of a task the ordering bookkeeping needs.
type taskPosition struct {
	ID       string
	Position int
}

// nextPosition returns the position a newly created task takes:
// one past the current maximum, or 0 for an empty list.
func nextPosition(existing []int) int {
	next := 0
	for _, p := range existing {
		if p >= next {
			next = p + 1
		}
	}
	return next
}

// compactionPlan renumbers tasks into 0..n-1 by their current position
// and returns only the entries whose position actually changes. Ties
// (which can only appear if the permutation was already corrupted)
// break by ID so the plan is deterministic.
func compactionPlan(tasks []taskPosition) []taskPosition {
	sorted := make([]taskPosition, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Position != sorted[j].Position {
			return sorted[i].Position < sorted[j].Position
		}
		return sorted[i].ID < sorted[j].ID
	})

	var plan []taskPosition
	for i, t := range sorted {
		if t.Position != i {
			plan = append(plan, taskPosition{ID: t.ID, Position: i})
		}
	}
	return plan
}

// swapTarget finds the task other than the moving one that currently
// holds the target position. When no task holds it the move degrades
// to a plain position write and ok is false.
func swapTarget(tasks []taskPosition, movingID string, target int) (taskPosition, bool) {
	for _, t := range tasks {
		if t.ID != movingID && t.Position == target {
			return t, true
		}
	}
	return taskPosition{}, false
}
