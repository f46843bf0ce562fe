package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type exceptionRepositoryImpl struct {
	db *database.DB
}

func NewExceptionRepository(db *database.DB) schedule.ExceptionRepository {
	return &exceptionRepositoryImpl{db: db}
}

const exceptionColumns = `
	id, template_id, date,
	to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS'),
	is_active, note, created_at, updated_at`

func scanException(row pgx.Row) (schedule.Exception, error) {
	var (
		e          schedule.Exception
		start, end *string
	)
	if err := row.Scan(&e.ID, &e.TemplateID, &e.Date, &start, &end, &e.IsActive, &e.Note, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return schedule.Exception{}, err
	}
	e.Date = schedule.DateOnly(e.Date)
	e.Range = toTimeRange(start, end)
	return e, nil
}

// Upsert implements schedule.ExceptionRepository.
func (r *exceptionRepositoryImpl) Upsert(ctx context.Context, exception schedule.Exception) (schedule.Exception, error) {
	q := GetQuerier(ctx, r.db)
	start, end := fromTimeRange(exception.Range)

	query := `
		INSERT INTO schedule_template_exceptions (
			id, template_id, date, start_time, end_time, is_active, note, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4::time, $5::time, $6, $7, NOW(), NOW()
		)
		ON CONFLICT (template_id, date) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			end_time   = EXCLUDED.end_time,
			is_active  = EXCLUDED.is_active,
			note       = EXCLUDED.note,
			updated_at = NOW()
		RETURNING ` + exceptionColumns

	saved, err := scanException(q.QueryRow(ctx, query,
		newID(), exception.TemplateID, schedule.DateOnly(exception.Date), start, end, exception.IsActive, exception.Note,
	))
	if err != nil {
		return schedule.Exception{}, fmt.Errorf("failed to upsert schedule exception: %w", err)
	}
	return saved, nil
}

// GetByID implements schedule.ExceptionRepository.
func (r *exceptionRepositoryImpl) GetByID(ctx context.Context, id string) (schedule.Exception, error) {
	q := GetQuerier(ctx, r.db)

	e, err := scanException(q.QueryRow(ctx, `SELECT `+exceptionColumns+` FROM schedule_template_exceptions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Exception{}, schedule.ErrExceptionNotFound
		}
		return schedule.Exception{}, fmt.Errorf("failed to get schedule exception: %w", err)
	}
	return e, nil
}

// GetByDate implements schedule.ExceptionRepository.
func (r *exceptionRepositoryImpl) GetByDate(ctx context.Context, templateID string, date time.Time) (schedule.Exception, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + exceptionColumns + ` FROM schedule_template_exceptions WHERE template_id = $1 AND date = $2`
	e, err := scanException(q.QueryRow(ctx, query, templateID, schedule.DateOnly(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Exception{}, schedule.ErrExceptionNotFound
		}
		return schedule.Exception{}, fmt.Errorf("failed to get schedule exception: %w", err)
	}
	return e, nil
}

// ListByTemplate implements schedule.ExceptionRepository.
func (r *exceptionRepositoryImpl) ListByTemplate(ctx context.Context, templateID string, filter schedule.ExceptionFilter) ([]schedule.Exception, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + exceptionColumns + ` FROM schedule_template_exceptions WHERE template_id = $1`
	args := []interface{}{templateID}
	if filter.From != nil {
		args = append(args, schedule.DateOnly(*filter.From))
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, schedule.DateOnly(*filter.To))
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule exceptions: %w", err)
	}
	defer rows.Close()

	exceptions := make([]schedule.Exception, 0)
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule exception: %w", err)
		}
		exceptions = append(exceptions, e)
	}
	return exceptions, rows.Err()
}

// Delete implements schedule.ExceptionRepository.
func (r *exceptionRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM schedule_template_exceptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule exception: %w", err)
	}
	if commandTag.RowsAffected() != 1 {
		return schedule.ErrExceptionNotFound
	}
	return nil
}
