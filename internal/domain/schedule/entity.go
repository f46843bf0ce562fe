package schedule

import "time"

type Template struct {
	ID          string
	CompanyID   string
	Name        string
	Description string
	Kind        TemplateKind
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Days       []WeeklyDay
	Exceptions []Exception
}

// TemplateKind only changes how a template is labelled; every kind is
// resolved through its weekly days and exceptions.
type TemplateKind string

const (
	TemplateKindWeekly  TemplateKind = "weekly"
	TemplateKindMonthly TemplateKind = "monthly"
	TemplateKindDaily   TemplateKind = "daily"
)

var TemplateKindValues = []string{
	string(TemplateKindWeekly),
	string(TemplateKindMonthly),
	string(TemplateKindDaily),
}

// TimeRange is a [Start, End) time-of-day interval. Both ends are
// zero-padded HH:MM:SS strings, so string comparison is chronological.
type TimeRange struct {
	Start string
	End   string
}

// Contains reports whether [start, end] lies inside r.
func (r TimeRange) Contains(start, end string) bool {
	return start >= r.Start && end <= r.End
}

type WeeklyDay struct {
	ID         string
	TemplateID string
	Weekday    int // 1=Monday, ..., 7=Sunday
	Range      *TimeRange
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Blocks []Block
}

// Configured reports whether the resolver may use this day. A day without a
// range has not been set up yet.
func (d WeeklyDay) Configured() bool {
	return d.IsActive && d.Range != nil
}

type Exception struct {
	ID         string
	TemplateID string
	Date       time.Time
	Range      *TimeRange
	IsActive   bool
	Note       string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Blocks []Block
}

type BlockType string

const (
	BlockTypeWork  BlockType = "work"
	BlockTypeBreak BlockType = "break"
	BlockTypeOther BlockType = "other"
)

// MaxBlockTypeLength bounds custom block types.
const MaxBlockTypeLength = 32

type Block struct {
	ID          string
	DayID       *string
	ExceptionID *string
	Type        BlockType
	Start       string
	End         string
	IsRequired  bool
	ClientID    *string
	CreatedAt   time.Time

	// Join
	ClientName *string
}

type BlockParentKind string

const (
	BlockParentDay       BlockParentKind = "day"
	BlockParentException BlockParentKind = "exception"
)

// BlockParent identifies the weekly day or exception owning a block set.
type BlockParent struct {
	Kind BlockParentKind
	ID   string
}

func DayParent(id string) BlockParent       { return BlockParent{Kind: BlockParentDay, ID: id} }
func ExceptionParent(id string) BlockParent { return BlockParent{Kind: BlockParentException, ID: id} }

type Assignment struct {
	ID             string
	CompanyID      string
	EmployeeID     *string // nil: default/unassigned pool
	TemplateID     string
	ClientID       *string
	StartDate      time.Time
	EndDate        *time.Time // nil: open-ended
	Alias          *string
	Color          *string
	IgnoreHolidays bool
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Join
	TemplateName string
	EmployeeName *string
	ClientName   *string
}

// ActiveOn reports whether date falls inside [StartDate, EndDate].
func (a Assignment) ActiveOn(date time.Time) bool {
	date = DateOnly(date)
	if DateOnly(a.StartDate).After(date) {
		return false
	}
	return a.EndDate == nil || !DateOnly(*a.EndDate).Before(date)
}

// IsOpenEnded reports whether the assignment has no end date.
func (a Assignment) IsOpenEnded() bool {
	return a.EndDate == nil
}

// EntityKind names the company-scoped rows checked by OwnershipGuard.
type EntityKind string

const (
	EntityTemplate   EntityKind = "template"
	EntityWeeklyDay  EntityKind = "weekly_day"
	EntityException  EntityKind = "exception"
	EntityAssignment EntityKind = "assignment"
	EntityEmployee   EntityKind = "employee"
	EntityClient     EntityKind = "client"
)
