package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/tenant"
)

type syncTrigger struct {
	recalculator *Recalculator
}

// NewSyncTrigger recalculates inline, inside the mutating request.
func NewSyncTrigger(recalculator *Recalculator) schedule.RecalculationTrigger {
	return &syncTrigger{recalculator: recalculator}
}

func (t *syncTrigger) OnTemplateBlocksChanged(ctx context.Context, tc tenant.Context, templateID string, date *time.Time) error {
	_, err := t.recalculator.Recalculate(ctx, tc, templateID, date)
	return err
}

// RecalculationTask is the message published for asynchronous
// recalculation.
type RecalculationTask struct {
	CompanyID  string  `json:"company_id"`
	UserID     string  `json:"user_id,omitempty"`
	TemplateID string  `json:"template_id"`
	Date       *string `json:"date,omitempty"`
}

func (t RecalculationTask) Tenant() tenant.Context {
	return tenant.Context{CompanyID: t.CompanyID, UserID: t.UserID}
}

// ParseDate returns the task date, nil meaning today.
func (t RecalculationTask) ParseDate() (*time.Time, error) {
	if t.Date == nil {
		return nil, nil
	}
	d, err := schedule.ParseDate(*t.Date)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Publisher delivers an encoded task to a queue.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

type queuedTrigger struct {
	publisher Publisher
}

// NewQueuedTrigger hands recalculation to a worker through publisher.
func NewQueuedTrigger(publisher Publisher) schedule.RecalculationTrigger {
	return &queuedTrigger{publisher: publisher}
}

func (t *queuedTrigger) OnTemplateBlocksChanged(ctx context.Context, tc tenant.Context, templateID string, date *time.Time) error {
	task := RecalculationTask{CompanyID: tc.CompanyID, UserID: tc.UserID, TemplateID: templateID}
	if date != nil {
		d := schedule.FormatDate(*date)
		task.Date = &d
	}
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode recalculation task: %w", err)
	}
	if err := t.publisher.Publish(ctx, body); err != nil {
		return fmt.Errorf("publish recalculation task: %w", err)
	}
	return nil
}

// HandleTask decodes and runs one queued recalculation.
func (r *Recalculator) HandleTask(ctx context.Context, body []byte) (schedule.RecalculationResult, error) {
	var task RecalculationTask
	if err := json.Unmarshal(body, &task); err != nil {
		return schedule.RecalculationResult{}, fmt.Errorf("decode recalculation task: %w", err)
	}
	if task.CompanyID == "" || task.TemplateID == "" {
		return schedule.RecalculationResult{}, fmt.Errorf("decode recalculation task: missing company or template")
	}
	date, err := task.ParseDate()
	if err != nil {
		return schedule.RecalculationResult{}, err
	}
	return r.Recalculate(ctx, task.Tenant(), task.TemplateID, date)
}
