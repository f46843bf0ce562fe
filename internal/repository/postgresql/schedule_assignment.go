package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/client"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type assignmentRepositoryImpl struct {
	db *database.DB
}

func NewAssignmentRepository(db *database.DB) schedule.AssignmentRepository {
	return &assignmentRepositoryImpl{db: db}
}

const assignmentSelect = `
	SELECT
		sa.id, sa.company_id, sa.employee_id, sa.template_id, sa.client_id,
		sa.start_date, sa.end_date, sa.alias, sa.color, sa.ignore_holidays,
		sa.created_at, sa.updated_at,
		st.name, e.full_name, c.name
	FROM schedule_assignments sa
	JOIN schedule_templates st ON st.id = sa.template_id
	LEFT JOIN employees e ON e.id = sa.employee_id
	LEFT JOIN clients c ON c.id = sa.client_id
`

func scanAssignment(row pgx.Row) (schedule.Assignment, error) {
	var a schedule.Assignment
	err := row.Scan(
		&a.ID, &a.CompanyID, &a.EmployeeID, &a.TemplateID, &a.ClientID,
		&a.StartDate, &a.EndDate, &a.Alias, &a.Color, &a.IgnoreHolidays,
		&a.CreatedAt, &a.UpdatedAt,
		&a.TemplateName, &a.EmployeeName, &a.ClientName,
	)
	if err != nil {
		return schedule.Assignment{}, err
	}
	a.StartDate = schedule.DateOnly(a.StartDate)
	if a.EndDate != nil {
		end := schedule.DateOnly(*a.EndDate)
		a.EndDate = &end
	}
	return a, nil
}

func collectAssignments(rows pgx.Rows) ([]schedule.Assignment, error) {
	defer rows.Close()

	assignments := make([]schedule.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// mapAssignmentWriteError translates constraint violations raised by
// assignment writes.
func mapAssignmentWriteError(err error, action string) error {
	if _, ok := isPgError(err, pgExclusionViolation); ok {
		return schedule.ErrTimelineConflict
	}
	if _, ok := isPgError(err, pgForeignKeyViolation); ok {
		return client.ErrClientNotFound
	}
	return fmt.Errorf("failed to %s schedule assignment: %w", action, err)
}

// Create implements schedule.AssignmentRepository.
func (r *assignmentRepositoryImpl) Create(ctx context.Context, assignment schedule.Assignment) (schedule.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO schedule_assignments (
			id, company_id, employee_id, template_id, client_id, start_date, end_date,
			alias, color, ignore_holidays, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
		) RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		newID(), assignment.CompanyID, assignment.EmployeeID, assignment.TemplateID, assignment.ClientID,
		schedule.DateOnly(assignment.StartDate), dateOrNil(assignment.EndDate),
		assignment.Alias, assignment.Color, assignment.IgnoreHolidays,
	).Scan(&id)
	if err != nil {
		return schedule.Assignment{}, mapAssignmentWriteError(err, "create")
	}

	return r.GetByID(ctx, id, assignment.CompanyID)
}

// GetByID implements schedule.AssignmentRepository.
func (r *assignmentRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (schedule.Assignment, error) {
	if !isUUID(id) {
		return schedule.Assignment{}, schedule.ErrAssignmentNotFound
	}
	q := GetQuerier(ctx, r.db)

	a, err := scanAssignment(q.QueryRow(ctx, assignmentSelect+` WHERE sa.id = $1 AND sa.company_id = $2`, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Assignment{}, schedule.ErrAssignmentNotFound
		}
		return schedule.Assignment{}, fmt.Errorf("failed to get schedule assignment: %w", err)
	}
	return a, nil
}

// LockTimeline implements schedule.AssignmentRepository.
func (r *assignmentRepositoryImpl) LockTimeline(ctx context.Context, companyID string, employeeID *string) error {
	q := GetQuerier(ctx, r.db)

	key := companyID + ":pool"
	if employeeID != nil {
		key = companyID + ":" + *employeeID
	}
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "schedule_assignments:"+key); err != nil {
		return fmt.Errorf("failed to lock assignment timeline: %w", err)
	}
	return nil
}

// ListTimeline implements schedule.AssignmentRepository.
func (r *assignmentRepositoryImpl) ListTimeline(ctx context.Context, companyID string, employeeID *string) ([]schedule.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := assignmentSelect + ` WHERE sa.company_id = $1 AND sa.employee_id IS NOT DISTINCT FROM $2 ORDER BY sa.start_date`
	rows, err := q.Query(ctx, query, companyID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignment timeline: %w", err)
	}
	return collectAssignments(rows)
}

// ListActiveOn implements schedule.AssignmentRepository.
func (r *assignmentRepositoryImpl) ListActiveOn(ctx context.Context, companyID string, employeeID string, date time.Time) ([]schedule.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := assignmentSelect + `
		WHERE sa.company_id = $1
		  AND (sa.employee_id = $2 OR sa.employee_id IS NULL)
		  AND sa.start_date <= $3
		  AND (sa.end_date IS NULL OR sa.end_date >= $3)
		ORDER BY sa.start_date DESC
	`
	rows, err := q.Query(ctx, query, companyID, employeeID, schedule.DateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list active assignments: %w", err)
	}
	return collectAssignments(rows)
}

// ListActiveByTemplate implements schedule.AssignmentRepository.
func (r *assignmentRepositoryImpl) ListActiveByTemplate(ctx context.Context, companyID string, templateID string, date time.Time) ([]schedule.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := assignmentSelect + `
		WHERE sa.company_id = $1
		  AND sa.template_id = $2
		  AND sa.employee_id IS NOT NULL
		  AND sa.start_date <= $3
		  AND (sa.end_date IS NULL OR sa.end_date >= $3)
		ORDER BY sa.employee_id
	`
	rows, err := q.Query(ctx, query, companyID, templateID, schedule.DateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list template assignments: %w", err)
	}
	return collectAssignments(rows)
}

// List implements schedule.AssignmentRepository.
func (r *assignmentRepositoryImpl) List(ctx context.Context, companyID string, filter schedule.AssignmentFilter) ([]schedule.Assignment, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := "sa.company_id = $1"
	args := []interface{}{companyID}

	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		where += fmt.Sprintf(" AND sa.employee_id = $%d", len(args))
	}
	if filter.Unassigned {
		where += " AND sa.employee_id IS NULL"
	}
	if filter.TemplateID != nil {
		args = append(args, *filter.TemplateID)
		where += fmt.Sprintf(" AND sa.template_id = $%d", len(args))
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		where += fmt.Sprintf(" AND sa.client_id = $%d", len(args))
	}
	if filter.ActiveOn != nil {
		args = append(args, schedule.DateOnly(*filter.ActiveOn))
		where += fmt.Sprintf(" AND sa.start_date <= $%d AND (sa.end_date IS NULL OR sa.end_date >= $%d)", len(args), len(args))
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM schedule_assignments sa WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count schedule assignments: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := assignmentSelect + fmt.Sprintf(" WHERE %s ORDER BY sa.start_date DESC, sa.id LIMIT $%d OFFSET $%d", where, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query schedule assignments: %w", err)
	}
	assignments, err := collectAssignments(rows)
	if err != nil {
		return nil, 0, err
	}
	return assignments, total, nil
}

// Update implements schedule.AssignmentRepository.
func (r *assignmentRepositoryImpl) Update(ctx context.Context, assignment schedule.Assignment) (schedule.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE schedule_assignments
		SET end_date = $1, alias = $2, color = $3, ignore_holidays = $4, updated_at = NOW()
		WHERE id = $5 AND company_id = $6
	`
	commandTag, err := q.Exec(ctx, query,
		dateOrNil(assignment.EndDate), assignment.Alias, assignment.Color, assignment.IgnoreHolidays,
		assignment.ID, assignment.CompanyID,
	)
	if err != nil {
		return schedule.Assignment{}, mapAssignmentWriteError(err, "update")
	}
	if commandTag.RowsAffected() != 1 {
		return schedule.Assignment{}, schedule.ErrAssignmentNotFound
	}

	return r.GetByID(ctx, assignment.ID, assignment.CompanyID)
}

// UpdateEnd implements schedule.AssignmentRepository.
func (r *assignmentRepositoryImpl) UpdateEnd(ctx context.Context, id string, companyID string, endDate time.Time) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx,
		`UPDATE schedule_assignments SET end_date = $1, updated_at = NOW() WHERE id = $2 AND company_id = $3`,
		schedule.DateOnly(endDate), id, companyID,
	)
	if err != nil {
		return mapAssignmentWriteError(err, "truncate")
	}
	if commandTag.RowsAffected() != 1 {
		return schedule.ErrAssignmentNotFound
	}
	return nil
}

// Delete implements schedule.AssignmentRepository.
func (r *assignmentRepositoryImpl) Delete(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM schedule_assignments WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete schedule assignment: %w", err)
	}
	if commandTag.RowsAffected() != 1 {
		return schedule.ErrAssignmentNotFound
	}
	return nil
}

// DeleteMany implements schedule.AssignmentRepository.
func (r *assignmentRepositoryImpl) DeleteMany(ctx context.Context, companyID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM schedule_assignments WHERE company_id = $1 AND id = ANY($2)`, companyID, ids); err != nil {
		return fmt.Errorf("failed to delete schedule assignments: %w", err)
	}
	return nil
}

func dateOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := schedule.DateOnly(*t)
	return &d
}
