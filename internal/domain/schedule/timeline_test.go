package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	t := day(s)
	return &t
}

func assignment(id, start string, end *time.Time) Assignment {
	employeeID := "emp-1"
	return Assignment{ID: id, EmployeeID: &employeeID, TemplateID: "tpl-" + id, StartDate: day(start), EndDate: end}
}

// requireNoGapOrOverlap checks that every date from the first start onwards
// is covered by at most one assignment and that coverage is continuous up to
// the last assignment.
func requireNoGapOrOverlap(t *testing.T, timeline []Assignment) {
	t.Helper()
	_, _, overlap := FindOverlap(timeline)
	require.False(t, overlap, "timeline has overlapping assignments")
	for i := 1; i < len(timeline); i++ {
		prev, next := timeline[i-1], timeline[i]
		require.NotNil(t, prev.EndDate)
		assert.Equal(t, DateOnly(next.StartDate), DateOnly(*prev.EndDate).AddDate(0, 0, 1), "gap between %s and %s", prev.ID, next.ID)
	}
}

// ===== RECONCILE TIMELINE TESTS =====

func TestReconcileTimeline_OpenEndedReplacesOpenEnded(t *testing.T) {
	existing := []Assignment{assignment("A", "2025-01-01", nil)}

	change := ReconcileTimeline(existing, day("2025-03-10"), nil)

	require.Len(t, change.Truncate, 1)
	assert.Equal(t, "A", change.Truncate[0].AssignmentID)
	assert.Equal(t, day("2025-03-09"), change.Truncate[0].EndDate)
	assert.Empty(t, change.Delete)

	next := assignment("B", "2025-03-10", nil)
	timeline := change.Apply(existing, &next)

	require.Len(t, timeline, 2)
	assert.Equal(t, day("2025-03-09"), *timeline[0].EndDate)
	assert.Equal(t, "B", timeline[1].ID)
	assert.Nil(t, timeline[1].EndDate)
	requireNoGapOrOverlap(t, timeline)

	// snapshot untouched
	assert.Nil(t, existing[0].EndDate)
}

func TestReconcileTimeline_BoundedCoversLaterAssignment(t *testing.T) {
	existing := []Assignment{
		assignment("A", "2025-01-01", dayPtr("2025-03-14")),
		assignment("C", "2025-03-15", dayPtr("2025-03-18")),
		assignment("D", "2025-03-25", nil),
	}

	change := ReconcileTimeline(existing, day("2025-03-10"), dayPtr("2025-03-20"))

	assert.Equal(t, []Truncation{{AssignmentID: "A", EndDate: day("2025-03-09")}}, change.Truncate)
	assert.Equal(t, []string{"C"}, change.Delete)

	next := assignment("B", "2025-03-10", dayPtr("2025-03-20"))
	timeline := change.Apply(existing, &next)
	ids := make([]string, 0, len(timeline))
	for _, a := range timeline {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"A", "B", "D"}, ids)
	_, _, overlap := FindOverlap(timeline)
	assert.False(t, overlap)
}

func TestReconcileTimeline_OpenEndedDeletesFuture(t *testing.T) {
	existing := []Assignment{
		assignment("A", "2025-01-01", dayPtr("2025-02-28")),
		assignment("B", "2025-03-01", dayPtr("2025-04-30")),
		assignment("C", "2025-05-01", nil),
	}

	change := ReconcileTimeline(existing, day("2025-03-01"), nil)

	assert.Empty(t, change.Truncate)
	assert.ElementsMatch(t, []string{"B", "C"}, change.Delete)
}

func TestReconcileTimeline_EndedBeforeStartIsKept(t *testing.T) {
	existing := []Assignment{assignment("A", "2025-01-01", dayPtr("2025-01-31"))}

	change := ReconcileTimeline(existing, day("2025-02-01"), nil)

	assert.True(t, change.IsEmpty())
}

func TestReconcileTimeline_TruncationNeverEndsBeforeStart(t *testing.T) {
	existing := []Assignment{assignment("A", "2025-03-09", nil)}

	change := ReconcileTimeline(existing, day("2025-03-10"), nil)

	require.Len(t, change.Truncate, 1)
	assert.Equal(t, day("2025-03-09"), change.Truncate[0].EndDate)
}

func TestReconcileTimeline_NeverLeavesOverlap(t *testing.T) {
	existing := []Assignment{
		assignment("A", "2025-01-01", dayPtr("2025-01-31")),
		assignment("B", "2025-02-01", dayPtr("2025-02-28")),
		assignment("C", "2025-03-01", dayPtr("2025-03-31")),
		assignment("D", "2025-04-01", nil),
	}
	windows := []struct {
		start string
		end   *time.Time
	}{
		{"2024-12-01", nil},
		{"2025-01-15", nil},
		{"2025-01-15", dayPtr("2025-01-20")},
		{"2025-02-10", dayPtr("2025-03-05")},
		{"2025-03-31", dayPtr("2025-03-31")},
		{"2025-06-01", nil},
	}

	for _, w := range windows {
		change := ReconcileTimeline(existing, day(w.start), w.end)
		next := assignment("N", w.start, w.end)
		timeline := change.Apply(existing, &next)

		_, _, overlap := FindOverlap(timeline)
		assert.False(t, overlap, "window %s", w.start)
		for _, a := range timeline {
			if a.EndDate != nil {
				assert.False(t, a.EndDate.Before(a.StartDate), "%s ends before it starts", a.ID)
			}
		}
	}
}

// ===== CLOSE OPEN ENDED TESTS =====

func TestCloseOpenEnded(t *testing.T) {
	existing := []Assignment{
		assignment("A", "2025-01-01", dayPtr("2025-01-31")),
		assignment("B", "2025-02-01", nil),
		assignment("C", "2025-07-01", nil),
	}

	change := CloseOpenEnded(existing, day("2025-06-15"))

	assert.Equal(t, []Truncation{{AssignmentID: "B", EndDate: day("2025-06-14")}}, change.Truncate)
	assert.Equal(t, []string{"C"}, change.Delete)
}

// ===== FIND OVERLAP TESTS =====

func TestFindOverlap(t *testing.T) {
	_, _, found := FindOverlap([]Assignment{
		assignment("A", "2025-01-01", dayPtr("2025-01-31")),
		assignment("B", "2025-02-01", nil),
	})
	assert.False(t, found)

	prev, next, found := FindOverlap([]Assignment{
		assignment("A", "2025-01-01", dayPtr("2025-02-01")),
		assignment("B", "2025-02-01", nil),
	})
	assert.True(t, found)
	assert.Equal(t, "A", prev.ID)
	assert.Equal(t, "B", next.ID)

	_, _, found = FindOverlap([]Assignment{
		assignment("A", "2025-01-01", nil),
		assignment("B", "2025-02-01", nil),
	})
	assert.True(t, found)
}
