package employee

import "time"

type Employee struct {
	ID        string
	CompanyID string
	FullName  string
	ShiftType *ShiftType
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// ShiftType is the coarse classification derived from an employee's plan of
// the day and persisted on the employee row.
type ShiftType string

const (
	ShiftTypeFull  ShiftType = "full"  // one continuous working block
	ShiftTypeSplit ShiftType = "split" // two or more working blocks
	ShiftTypeNight ShiftType = "night" // a block crosses midnight
	ShiftTypeOther ShiftType = "other" // nothing planned
)

var ShiftTypeValues = []string{
	string(ShiftTypeFull),
	string(ShiftTypeSplit),
	string(ShiftTypeNight),
	string(ShiftTypeOther),
}
