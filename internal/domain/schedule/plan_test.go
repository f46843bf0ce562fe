package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewWeeklyPlan_AnnotatesBlocksWithDayClient(t *testing.T) {
	date := day("2025-03-12") // Wednesday
	a := assignment("A", "2025-01-01", nil)
	tmpl := TemplateRef{ID: "tpl-1", Name: "Oficina"}
	site := &ClientRef{ID: "cli-1", Name: "Sede Norte"}
	wd := &WeeklyDay{
		ID:       "day-3",
		Weekday:  3,
		IsActive: true,
		Range:    &TimeRange{Start: "08:00:00", End: "17:00:00"},
		Blocks: []Block{
			{Type: BlockTypeWork, Start: "13:00:00", End: "17:00:00", ClientID: strPtr("cli-2"), ClientName: strPtr("Almacen")},
			{Type: BlockTypeWork, Start: "08:00:00", End: "13:00:00"},
		},
	}

	plan := NewWeeklyPlan(date, a, tmpl, site, wd)

	assert.Equal(t, PlanModeWeekly, plan.Mode())
	assert.Equal(t, 3, plan.Weekday)
	assert.Equal(t, wd.Range, plan.Range)
	blocks := plan.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, "08:00:00", blocks[0].Start)
	assert.Equal(t, "cli-1", *blocks[0].ClientID)
	assert.Equal(t, "Sede Norte", *blocks[0].ClientName)
	assert.Equal(t, "cli-2", *blocks[1].ClientID)
	assert.Equal(t, "Almacen", *blocks[1].ClientName)
}

func TestNewWeeklyPlan_UnconfiguredDay(t *testing.T) {
	date := day("2025-03-12")
	a := assignment("A", "2025-01-01", nil)

	for name, wd := range map[string]*WeeklyDay{
		"missing":  nil,
		"inactive": {IsActive: false, Range: &TimeRange{Start: "08:00:00", End: "17:00:00"}, Blocks: []Block{work("08:00:00", "17:00:00")}},
		"no range": {IsActive: true},
	} {
		t.Run(name, func(t *testing.T) {
			plan := NewWeeklyPlan(date, a, TemplateRef{ID: "tpl-1"}, nil, wd)

			assert.Equal(t, PlanModeWeekly, plan.Mode())
			assert.Nil(t, plan.Range)
			assert.NotNil(t, plan.Blocks())
			assert.Empty(t, plan.Blocks())
		})
	}
}

func TestNewExceptionPlan(t *testing.T) {
	date := day("2025-12-24")
	a := assignment("A", "2025-01-01", nil)
	ex := Exception{
		ID:       "ex-1",
		Date:     date,
		IsActive: true,
		Note:     "Nochebuena",
		Range:    &TimeRange{Start: "08:00:00", End: "12:00:00"},
		Blocks:   []Block{work("08:00:00", "12:00:00")},
	}

	plan := NewExceptionPlan(date, a, TemplateRef{ID: "tpl-1", Name: "Oficina"}, nil, ex)

	assert.Equal(t, PlanModeException, plan.Mode())
	assert.Equal(t, "ex-1", plan.ExceptionID)
	assert.Equal(t, "Nochebuena", plan.Note)
	require.Len(t, plan.Blocks(), 1)
	assert.Nil(t, plan.Blocks()[0].ClientID)
}

func TestPickActiveAssignment(t *testing.T) {
	specificOld := assignment("S1", "2025-01-01", nil)
	specificNew := assignment("S2", "2025-02-01", nil)
	pool := Assignment{ID: "P", StartDate: day("2025-03-01")}

	chosen, found, conflicting := PickActiveAssignment([]Assignment{pool, specificOld})
	assert.True(t, found)
	assert.False(t, conflicting)
	assert.Equal(t, "S1", chosen.ID)

	chosen, found, conflicting = PickActiveAssignment([]Assignment{specificNew, pool, specificOld})
	assert.True(t, found)
	assert.True(t, conflicting)
	assert.Equal(t, "S2", chosen.ID)

	chosen, found, _ = PickActiveAssignment([]Assignment{pool})
	assert.True(t, found)
	assert.Equal(t, "P", chosen.ID)

	_, found, _ = PickActiveAssignment(nil)
	assert.False(t, found)
}

// ===== PLAN RESPONSE TESTS =====

func TestNewPlanResponse(t *testing.T) {
	date := day("2025-03-10")
	a := assignment("A", "2025-01-01", nil)
	site := &ClientRef{ID: "cli-1", Name: "Sede Norte"}

	none := NewPlanResponse(NoPlan{On: date})
	assert.Equal(t, PlanModeNoneJSON, none.Mode)
	assert.Equal(t, "2025-03-10", none.Date)
	assert.Nil(t, none.TemplateID)
	assert.Nil(t, none.Range)
	assert.NotNil(t, none.Blocks)
	assert.Empty(t, none.Blocks)
	assert.Equal(t, "other", none.ShiftType)

	weekly := NewPlanResponse(NewWeeklyPlan(date, a, TemplateRef{ID: "tpl-1", Name: "Oficina"}, site, &WeeklyDay{
		IsActive: true,
		Range:    &TimeRange{Start: "09:00:00", End: "17:00:00"},
		Blocks:   []Block{work("09:00:00", "17:00:00")},
	}))
	assert.Equal(t, PlanModeWeeklyJSON, weekly.Mode)
	assert.Equal(t, "tpl-1", *weekly.TemplateID)
	assert.Equal(t, "Oficina", *weekly.TemplateName)
	assert.Equal(t, &PlanClientResponse{ID: "cli-1", Name: "Sede Norte"}, weekly.Client)
	assert.Equal(t, &RangeResponse{Start: "09:00:00", End: "17:00:00"}, weekly.Range)
	require.Len(t, weekly.Blocks, 1)
	assert.Equal(t, "cli-1", *weekly.Blocks[0].ClientID)
	assert.Nil(t, weekly.Note)
	assert.Equal(t, "full", weekly.ShiftType)

	exception := NewPlanResponse(NewExceptionPlan(date, a, TemplateRef{ID: "tpl-1"}, nil, Exception{Note: "Inventario"}))
	assert.Equal(t, PlanModeExceptionJSON, exception.Mode)
	require.NotNil(t, exception.Note)
	assert.Equal(t, "Inventario", *exception.Note)
	assert.Nil(t, exception.Range)
}
