package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/client"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/tenant"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/validator"
)

// Repositories groups the stores the schedule services read and write.
type Repositories struct {
	Templates   schedule.TemplateRepository
	Days        schedule.WeeklyDayRepository
	Exceptions  schedule.ExceptionRepository
	Blocks      schedule.BlockRepository
	Assignments schedule.AssignmentRepository
	Employees   employee.EmployeeRepository
	Clients     client.ClientRepository
	Guard       schedule.OwnershipGuard
}

// notifyBlocksChanged runs after commit. Recalculation failures never fail
// the write that caused them.
func notifyBlocksChanged(ctx context.Context, trigger schedule.RecalculationTrigger, tc tenant.Context, templateID string) {
	if trigger == nil {
		return
	}
	if err := trigger.OnTemplateBlocksChanged(ctx, tc, templateID, nil); err != nil {
		slog.Error("failed to trigger shift type recalculation",
			"company_id", tc.CompanyID,
			"template_id", templateID,
			"error", err,
		)
	}
}

// ensureActiveClient checks that the client belongs to the company and can
// receive schedules.
func ensureActiveClient(ctx context.Context, clients client.ClientRepository, tc tenant.Context, clientID string) (client.Client, error) {
	c, err := clients.GetByID(ctx, clientID, tc.CompanyID)
	if err != nil {
		return client.Client{}, err
	}
	if !c.IsActive {
		return client.Client{}, client.ErrClientInactive
	}
	return c, nil
}

// parseOptionalDate parses s unless it is nil or blank.
func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || validator.IsEmpty(*s) {
		return nil, nil
	}
	d, err := schedule.ParseDate(strings.TrimSpace(*s))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// calculateShowingText generates the "showing X-Y of Z results" text
func calculateShowingText(page, limit int, total int64) string {
	if total == 0 {
		return "0-0 of 0 results"
	}

	start := (page-1)*limit + 1
	end := start + limit - 1

	if end > int(total) {
		end = int(total)
	}

	return fmt.Sprintf("%d-%d of %d results", start, end, total)
}
