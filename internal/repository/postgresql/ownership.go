package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
)

type ownershipGuardImpl struct {
	db *database.DB
}

func NewOwnershipGuard(db *database.DB) schedule.OwnershipGuard {
	return &ownershipGuardImpl{db: db}
}

var ownershipQueries = map[schedule.EntityKind]string{
	schedule.EntityTemplate: `
		SELECT EXISTS (SELECT 1 FROM schedule_templates WHERE id = $1 AND company_id = $2)`,
	schedule.EntityWeeklyDay: `
		SELECT EXISTS (
			SELECT 1 FROM schedule_template_days d
			JOIN schedule_templates t ON t.id = d.template_id
			WHERE d.id = $1 AND t.company_id = $2
		)`,
	schedule.EntityException: `
		SELECT EXISTS (
			SELECT 1 FROM schedule_template_exceptions x
			JOIN schedule_templates t ON t.id = x.template_id
			WHERE x.id = $1 AND t.company_id = $2
		)`,
	schedule.EntityAssignment: `
		SELECT EXISTS (SELECT 1 FROM schedule_assignments WHERE id = $1 AND company_id = $2)`,
	schedule.EntityEmployee: `
		SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL)`,
	schedule.EntityClient: `
		SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1 AND company_id = $2)`,
}

// Ensure implements schedule.OwnershipGuard.
func (g *ownershipGuardImpl) Ensure(ctx context.Context, companyID string, kind schedule.EntityKind, id string) error {
	query, ok := ownershipQueries[kind]
	if !ok {
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	if !isUUID(id) {
		return kind.NotFoundErr()
	}

	q := GetQuerier(ctx, g.db)
	var exists bool
	if err := q.QueryRow(ctx, query, id, companyID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check %s ownership: %w", kind, err)
	}
	if !exists {
		return kind.NotFoundErr()
	}
	return nil
}
