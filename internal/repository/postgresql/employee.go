package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	if !isUUID(id) {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, company_id, full_name, shift_type, created_at, updated_at, deleted_at
		FROM employees
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`

	var emp employee.Employee
	err := q.QueryRow(ctx, query, id, companyID).Scan(
		&emp.ID, &emp.CompanyID, &emp.FullName, &emp.ShiftType, &emp.CreatedAt, &emp.UpdatedAt, &emp.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee with id %s: %w", id, err)
	}
	return emp, nil
}

// UpdateShiftType implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) UpdateShiftType(ctx context.Context, id string, companyID string, shiftType employee.ShiftType) error {
	q := GetQuerier(ctx, e.db)

	query := `
		UPDATE employees
		SET shift_type = $1, updated_at = NOW()
		WHERE id = $2 AND company_id = $3 AND deleted_at IS NULL
	`

	commandTag, err := q.Exec(ctx, query, string(shiftType), id, companyID)
	if err != nil {
		return fmt.Errorf("failed to update shift type for employee with id %s: %w", id, err)
	}
	if commandTag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// ListScheduled implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListScheduled(ctx context.Context, date time.Time) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT e.id, e.company_id, e.full_name, e.shift_type, e.created_at, e.updated_at, e.deleted_at
		FROM employees e
		WHERE e.deleted_at IS NULL
		  AND (
			e.shift_type IS NOT NULL
			OR EXISTS (
				SELECT 1 FROM schedule_assignments sa
				WHERE sa.company_id = e.company_id
				  AND (sa.employee_id = e.id OR sa.employee_id IS NULL)
				  AND sa.start_date <= $1
				  AND (sa.end_date IS NULL OR sa.end_date >= $1)
			)
		  )
		ORDER BY e.company_id, e.id
	`

	rows, err := q.Query(ctx, query, schedule.DateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled employees: %w", err)
	}
	defer rows.Close()

	employees := make([]employee.Employee, 0)
	for rows.Next() {
		var emp employee.Employee
		if err := rows.Scan(&emp.ID, &emp.CompanyID, &emp.FullName, &emp.ShiftType, &emp.CreatedAt, &emp.UpdatedAt, &emp.DeletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}
