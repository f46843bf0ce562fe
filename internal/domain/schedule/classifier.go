package schedule

import "github.com/cmlabs-hris/workforce-backend-go/internal/domain/employee"

// Classify derives the shift type of a plan. It never fails: an empty plan is
// "other", any block wrapping past midnight makes it "night", otherwise the
// number of work blocks (or of all blocks when none is typed work) decides
// between "full" and "split".
func Classify(plan Plan) employee.ShiftType {
	if plan == nil {
		return employee.ShiftTypeOther
	}
	blocks := plan.Blocks()
	if len(blocks) == 0 {
		return employee.ShiftTypeOther
	}

	for _, b := range blocks {
		if b.End < b.Start {
			return employee.ShiftTypeNight
		}
	}

	work := 0
	for _, b := range blocks {
		if b.Type == BlockTypeWork {
			work++
		}
	}
	if work == 0 {
		work = len(blocks)
	}

	if work >= 2 {
		return employee.ShiftTypeSplit
	}
	return employee.ShiftTypeFull
}
