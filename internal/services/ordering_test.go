package services

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPosition(t *testing.T) {
	tests := []struct {
		name     string
		existing []int
		want     int
	}{
		{name: "empty list", existing: nil, want: 0},
		{name: "contiguous", existing: []int{0, 1, 2}, want: 3},
		{name: "unsorted", existing: []int{2, 0, 1}, want: 3},
		{name: "with gap", existing: []int{0, 2}, want: 3},
		{name: "single", existing: []int{0}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextPosition(tt.existing))
		})
	}
}

func TestCompactionPlan(t *testing.T) {
	t.Run("closes a gap", func(t *testing.T) {
		plan := compactionPlan([]taskPosition{
			{ID: "a", Position: 0},
			{ID: "b", Position: 2},
			{ID: "c", Position: 3},
		})
		assert.Equal(t, []taskPosition{
			{ID: "b", Position: 1},
			{ID: "c", Position: 2},
		}, plan)
	})

	t.Run("already compact", func(t *testing.T) {
		plan := compactionPlan([]taskPosition{
			{ID: "a", Position: 0},
			{ID: "b", Position: 1},
		})
		assert.Empty(t, plan)
	})

	t.Run("unsorted input", func(t *testing.T) {
		plan := compactionPlan([]taskPosition{
			{ID: "c", Position: 5},
			{ID: "a", Position: 1},
		})
		assert.Equal(t, []taskPosition{
			{ID: "a", Position: 0},
			{ID: "c", Position: 1},
		}, plan)
	})

	t.Run("repairs duplicates", func(t *testing.T) {
		plan := compactionPlan([]taskPosition{
			{ID: "a", Position: 1},
			{ID: "b", Position: 1},
			{ID: "c", Position: 0},
		})
		// c keeps 0; a and b break the tie by ID.
		assert.Equal(t, []taskPosition{
			{ID: "a", Position: 1},
			{ID: "b", Position: 2},
		}, plan)
	})
}

func TestSwapTarget(t *testing.T) {
	tasks := []taskPosition{
		{ID: "a", Position: 0},
		{ID: "b", Position: 1},
		{ID: "c", Position: 2},
	}

	other, ok := swapTarget(tasks, "a", 1)
	require.True(t, ok)
	assert.Equal(t, taskPosition{ID: "b", Position: 1}, other)

	_, ok = swapTarget(tasks, "a", 7)
	assert.False(t, ok)

	// The moving task itself never counts as the displaced one.
	_, ok = swapTarget(tasks, "a", 0)
	assert.False(t, ok)
}

// listModel drives the ordering helpers the way the task service does,
// so create/delete/move sequences can be checked against the gapless
// invariant without a database.
type listModel struct {
	tasks []taskPosition
}

func (m *listModel) create(id string) {
	existing := make([]int, len(m.tasks))
	for i, t := range m.tasks {
		existing[i] = t.Position
	}
	m.tasks = append(m.tasks, taskPosition{ID: id, Position: nextPosition(existing)})
}

func (m *listModel) delete(id string) {
	for i, t := range m.tasks {
		if t.ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			break
		}
	}
	for _, p := range compactionPlan(m.tasks) {
		m.setPosition(p.ID, p.Position)
	}
}

func (m *listModel) move(id string, target int) {
	current := -1
	for _, t := range m.tasks {
		if t.ID == id {
			current = t.Position
		}
	}
	if current == -1 || current == target {
		return
	}
	if other, ok := swapTarget(m.tasks, id, target); ok {
		m.setPosition(other.ID, current)
	}
	m.setPosition(id, target)
}

func (m *listModel) setPosition(id string, position int) {
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks[i].Position = position
		}
	}
}

func (m *listModel) ordered() []string {
	sorted := make([]taskPosition, len(m.tasks))
	copy(sorted, m.tasks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	ids := make([]string, len(sorted))
	for i, t := range sorted {
		ids[i] = t.ID
	}
	return ids
}

func requireGapless(t *testing.T, m *listModel) {
	t.Helper()
	seen := make(map[int]bool, len(m.tasks))
	for _, task := range m.tasks {
		require.False(t, seen[task.Position], "duplicate position %d", task.Position)
		require.GreaterOrEqual(t, task.Position, 0)
		require.Less(t, task.Position, len(m.tasks), "gap: position %d with %d tasks", task.Position, len(m.tasks))
		seen[task.Position] = true
	}
}

func TestOrdering_CreateDeleteCreateScenario(t *testing.T) {
	m := &listModel{}
	m.create("A")
	m.create("B")
	m.create("C")
	require.Equal(t, []string{"A", "B", "C"}, m.ordered())
	requireGapless(t, m)

	m.delete("B")
	require.Equal(t, []string{"A", "C"}, m.ordered())
	requireGapless(t, m)

	m.create("D")
	require.Equal(t, []string{"A", "C", "D"}, m.ordered())
	requireGapless(t, m)
}

func TestOrdering_AdjacentSwapIsIdempotent(t *testing.T) {
	m := &listModel{}
	m.create("A")
	m.create("B")
	m.create("C")

	// The client's reorder protocol issues two updates. The first one
	// already swaps both tasks; the second must be a harmless no-op.
	m.move("A", 1)
	require.Equal(t, []string{"B", "A", "C"}, m.ordered())
	requireGapless(t, m)

	m.move("B", 0)
	require.Equal(t, []string{"B", "A", "C"}, m.ordered())
	requireGapless(t, m)
}

func TestOrdering_RandomishSequenceStaysGapless(t *testing.T) {
	m := &listModel{}
	ids := []string{"t1", "t2", "t3", "t4", "t5", "t6"}
	for _, id := range ids {
		m.create(id)
		requireGapless(t, m)
	}

	for _, op := range []struct {
		kind string
		id   string
		pos  int
	}{
		{kind: "delete", id: "t3"},
		{kind: "move", id: "t6", pos: 0},
		{kind: "delete", id: "t1"},
		{kind: "create", id: "t7"},
		{kind: "move", id: "t2", pos: 3},
		{kind: "delete", id: "t6"},
		{kind: "create", id: "t8"},
	} {
		switch op.kind {
		case "create":
			m.create(op.id)
		case "delete":
			m.delete(op.id)
		case "move":
			m.move(op.id, op.pos)
		}
		requireGapless(t, m)
	}
}
