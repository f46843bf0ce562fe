package schedule

import (
	"sort"
	"time"
)

// Truncation moves the end date of an existing assignment.
type Truncation struct {
	AssignmentID string
	EndDate      time.Time
}

// TimelineChange is the set of edits applied to one (company, employee)
// timeline before a new assignment is inserted.
type TimelineChange struct {
	Truncate []Truncation
	Delete   []string
}

func (c TimelineChange) IsEmpty() bool {
	return len(c.Truncate) == 0 && len(c.Delete) == 0
}

// ReconcileTimeline makes room for a new assignment covering [start, end]
// (end nil = open-ended) on a timeline that must belong to a single
// (company, employee) pair:
//
//   - assignments starting before start and still running on start are cut
//     to end the day before start;
//   - for an open-ended newcomer every assignment starting on or after start
//     is deleted, otherwise those starting inside [start, end] are.
//
// Assignments starting after a bounded newcomer's end are left alone.
func ReconcileTimeline(existing []Assignment, start time.Time, end *time.Time) TimelineChange {
	start = DateOnly(start)
	var change TimelineChange

	for _, a := range existing {
		aStart := DateOnly(a.StartDate)

		if aStart.Before(start) {
			if a.EndDate == nil || !DateOnly(*a.EndDate).Before(start) {
				newEnd := start.AddDate(0, 0, -1)
				if newEnd.Before(aStart) {
					newEnd = aStart
				}
				change.Truncate = append(change.Truncate, Truncation{AssignmentID: a.ID, EndDate: newEnd})
			}
			continue
		}

		if end == nil || !aStart.After(DateOnly(*end)) {
			change.Delete = append(change.Delete, a.ID)
		}
	}

	return change
}

// CloseOpenEnded ends every open-ended assignment so that nothing is planned
// from today on. Assignments that already started end yesterday; those that
// have not started yet are deleted since they never took effect.
func CloseOpenEnded(existing []Assignment, today time.Time) TimelineChange {
	today = DateOnly(today)
	yesterday := today.AddDate(0, 0, -1)
	var change TimelineChange

	for _, a := range existing {
		if a.EndDate != nil {
			continue
		}
		if DateOnly(a.StartDate).Before(today) {
			change.Truncate = append(change.Truncate, Truncation{AssignmentID: a.ID, EndDate: yesterday})
		} else {
			change.Delete = append(change.Delete, a.ID)
		}
	}

	return change
}

// Apply returns the timeline after change, plus next when not nil, sorted by
// start date. existing is not modified.
func (c TimelineChange) Apply(existing []Assignment, next *Assignment) []Assignment {
	deleted := make(map[string]bool, len(c.Delete))
	for _, id := range c.Delete {
		deleted[id] = true
	}
	truncated := make(map[string]time.Time, len(c.Truncate))
	for _, t := range c.Truncate {
		truncated[t.AssignmentID] = t.EndDate
	}

	out := make([]Assignment, 0, len(existing)+1)
	for _, a := range existing {
		if deleted[a.ID] {
			continue
		}
		if end, ok := truncated[a.ID]; ok {
			end := end
			a.EndDate = &end
		}
		out = append(out, a)
	}
	if next != nil {
		out = append(out, *next)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

// FindOverlap returns the first pair of assignments whose date ranges
// intersect. The timeline must be sorted by start date.
func FindOverlap(timeline []Assignment) (Assignment, Assignment, bool) {
	for i := 1; i < len(timeline); i++ {
		prev, next := timeline[i-1], timeline[i]
		if prev.EndDate == nil || !DateOnly(*prev.EndDate).Before(DateOnly(next.StartDate)) {
			return prev, next, true
		}
	}
	return Assignment{}, Assignment{}, false
}
