package schedule

import (
	"sort"
	"time"
)

type PlanMode string

const (
	PlanModeNone      PlanMode = "none"
	PlanModeWeekly    PlanMode = "weekly"
	PlanModeException PlanMode = "exception"
)

// Plan is the resolved schedule of one employee on one date. It is one of
// NoPlan, WeeklyPlan or ExceptionPlan.
type Plan interface {
	Mode() PlanMode
	Date() time.Time
	Blocks() []PlannedBlock
	isPlan()
}

// PlannedBlock is a block with the client it takes place at.
type PlannedBlock struct {
	Type       BlockType
	Start      string
	End        string
	IsRequired bool
	ClientID   *string
	ClientName *string
}

type TemplateRef struct {
	ID   string
	Name string
}

type ClientRef struct {
	ID   string
	Name string
}

// NoPlan is returned when no assignment covers the date.
type NoPlan struct {
	On time.Time
}

func (p NoPlan) Mode() PlanMode         { return PlanModeNone }
func (p NoPlan) Date() time.Time        { return p.On }
func (p NoPlan) Blocks() []PlannedBlock { return []PlannedBlock{} }
func (NoPlan) isPlan()                  {}

// DayPlan holds what weekly and exception plans have in common.
type DayPlan struct {
	On           time.Time
	AssignmentID string
	Template     TemplateRef
	Client       *ClientRef
	Range        *TimeRange
	Items        []PlannedBlock
}

func (p DayPlan) Date() time.Time { return p.On }

func (p DayPlan) Blocks() []PlannedBlock {
	if p.Items == nil {
		return []PlannedBlock{}
	}
	return p.Items
}

type WeeklyPlan struct {
	DayPlan
	Weekday int
}

func (WeeklyPlan) Mode() PlanMode { return PlanModeWeekly }
func (WeeklyPlan) isPlan()        {}

type ExceptionPlan struct {
	DayPlan
	ExceptionID string
	Note        string
}

func (ExceptionPlan) Mode() PlanMode { return PlanModeException }
func (ExceptionPlan) isPlan()        {}

// NewExceptionPlan builds the plan for a date overridden by ex.
func NewExceptionPlan(date time.Time, a Assignment, tmpl TemplateRef, dayClient *ClientRef, ex Exception) ExceptionPlan {
	return ExceptionPlan{
		DayPlan: DayPlan{
			On:           DateOnly(date),
			AssignmentID: a.ID,
			Template:     tmpl,
			Client:       dayClient,
			Range:        ex.Range,
			Items:        annotateBlocks(ex.Blocks, dayClient),
		},
		ExceptionID: ex.ID,
		Note:        ex.Note,
	}
}

// NewWeeklyPlan builds the plan from the weekday pattern. A missing,
// inactive or unconfigured day yields a weekly plan without range or blocks.
func NewWeeklyPlan(date time.Time, a Assignment, tmpl TemplateRef, dayClient *ClientRef, day *WeeklyDay) WeeklyPlan {
	plan := WeeklyPlan{
		DayPlan: DayPlan{
			On:           DateOnly(date),
			AssignmentID: a.ID,
			Template:     tmpl,
			Client:       dayClient,
			Items:        []PlannedBlock{},
		},
		Weekday: ISOWeekday(date),
	}
	if day == nil || !day.Configured() {
		return plan
	}
	plan.Range = day.Range
	plan.Items = annotateBlocks(day.Blocks, dayClient)
	return plan
}

func annotateBlocks(blocks []Block, dayClient *ClientRef) []PlannedBlock {
	sorted := make([]Block, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := make([]PlannedBlock, 0, len(sorted))
	for _, b := range sorted {
		pb := PlannedBlock{
			Type:       b.Type,
			Start:      b.Start,
			End:        b.End,
			IsRequired: b.IsRequired,
			ClientID:   b.ClientID,
			ClientName: b.ClientName,
		}
		if pb.ClientID == nil && dayClient != nil {
			id, name := dayClient.ID, dayClient.Name
			pb.ClientID, pb.ClientName = &id, &name
		}
		out = append(out, pb)
	}
	return out
}

// PickActiveAssignment chooses the assignment governing a date among the
// candidates active on it. Employee-specific assignments win over the
// unassigned pool; among several of the same kind the latest start wins.
// conflicting is true when more than one employee-specific assignment
// matched, which the timeline manager should never allow.
func PickActiveAssignment(candidates []Assignment) (chosen Assignment, found bool, conflicting bool) {
	var specific, pool []Assignment
	for _, a := range candidates {
		if a.EmployeeID != nil {
			specific = append(specific, a)
		} else {
			pool = append(pool, a)
		}
	}

	pick := specific
	if len(pick) == 0 {
		pick = pool
	}
	if len(pick) == 0 {
		return Assignment{}, false, false
	}

	latest := pick[0]
	for _, a := range pick[1:] {
		if a.StartDate.After(latest.StartDate) {
			latest = a
		}
	}
	return latest, true, len(specific) > 1
}
