package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/employee"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== QUEUED TRIGGER TESTS =====

func TestQueuedTrigger_PublishesTask(t *testing.T) {
	publisher := &capturePublisher{}
	trigger := NewQueuedTrigger(publisher)

	err := trigger.OnTemplateBlocksChanged(context.Background(), tcA, "tmpl-1", datePtr("2025-03-10"))

	require.NoError(t, err)
	require.Len(t, publisher.bodies, 1)
	var task RecalculationTask
	require.NoError(t, json.Unmarshal(publisher.bodies[0], &task))
	assert.Equal(t, companyA, task.CompanyID)
	assert.Equal(t, "manager-a", task.UserID)
	assert.Equal(t, "tmpl-1", task.TemplateID)
	require.NotNil(t, task.Date)
	assert.Equal(t, "2025-03-10", *task.Date)
}

func TestQueuedTrigger_OmitsDateForToday(t *testing.T) {
	publisher := &capturePublisher{}

	err := NewQueuedTrigger(publisher).OnTemplateBlocksChanged(context.Background(), tcA, "tmpl-1", nil)

	require.NoError(t, err)
	assert.NotContains(t, string(publisher.bodies[0]), `"date"`)
}

func TestQueuedTrigger_PublishFailure(t *testing.T) {
	publisher := &capturePublisher{err: errors.New("channel closed")}

	err := NewQueuedTrigger(publisher).OnTemplateBlocksChanged(context.Background(), tcA, "tmpl-1", nil)

	assert.ErrorContains(t, err, "channel closed")
}

func TestQueuedTrigger_BlockWriteSucceedsWhenPublishFails(t *testing.T) {
	env := newTestEnv(t, monday)
	env.trigger.next = NewQueuedTrigger(&capturePublisher{err: errors.New("broker down")})
	templateID := env.createTemplate(t, tcA, "Morning")

	env.configureDay(t, tcA, templateID, 1, "09:00", "17:00", block("work", "09:00", "17:00"))

	tmpl, err := env.schedules.GetTemplate(context.Background(), tcA, templateID)
	require.NoError(t, err)
	assert.Len(t, tmpl.Days[0].Blocks, 1)
}

// ===== HANDLE TASK TESTS =====

func TestRecalculator_HandleTask(t *testing.T) {
	env := newTestEnv(t, monday)
	templateID := env.createTemplate(t, tcA, "Morning")
	env.configureDay(t, tcA, templateID, 1, "09:00", "17:00", block("work", "09:00", "17:00"))
	emp := env.addEmployee(companyA, "Ana")
	env.seedAssignment(companyA, &emp, templateID, date("2025-03-01"), nil)

	publisher := &capturePublisher{}
	require.NoError(t, NewQueuedTrigger(publisher).OnTemplateBlocksChanged(context.Background(), tcA, templateID, datePtr("2025-03-10")))

	result, err := env.recalculator.HandleTask(context.Background(), publisher.bodies[0])

	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, employee.ShiftTypeFull, *env.shiftTypeOf(emp))
}

func TestRecalculator_HandleTask_Rejects(t *testing.T) {
	env := newTestEnv(t, monday)

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `nope`},
		{name: "missing template", body: `{"company_id":"c1"}`},
		{name: "bad date", body: `{"company_id":"c1","template_id":"t1","date":"10/03/2025"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.recalculator.HandleTask(context.Background(), []byte(tt.body))
			assert.Error(t, err)
		})
	}
}
