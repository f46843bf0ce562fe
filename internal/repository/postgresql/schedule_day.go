package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type weeklyDayRepositoryImpl struct {
	db *database.DB
}

func NewWeeklyDayRepository(db *database.DB) schedule.WeeklyDayRepository {
	return &weeklyDayRepositoryImpl{db: db}
}

// TIME columns are read back as text so that they keep the HH:MM:SS form
// used everywhere else.
const weeklyDayColumns = `
	id, template_id, weekday,
	to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS'),
	is_active, created_at, updated_at`

func scanWeeklyDay(row pgx.Row) (schedule.WeeklyDay, error) {
	var (
		d          schedule.WeeklyDay
		start, end *string
	)
	if err := row.Scan(&d.ID, &d.TemplateID, &d.Weekday, &start, &end, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return schedule.WeeklyDay{}, err
	}
	d.Range = toTimeRange(start, end)
	return d, nil
}

func toTimeRange(start, end *string) *schedule.TimeRange {
	if start == nil || end == nil {
		return nil
	}
	return &schedule.TimeRange{Start: *start, End: *end}
}

func fromTimeRange(r *schedule.TimeRange) (start, end *string) {
	if r == nil {
		return nil, nil
	}
	return &r.Start, &r.End
}

// Upsert implements schedule.WeeklyDayRepository.
func (r *weeklyDayRepositoryImpl) Upsert(ctx context.Context, day schedule.WeeklyDay) (schedule.WeeklyDay, error) {
	q := GetQuerier(ctx, r.db)
	start, end := fromTimeRange(day.Range)

	query := `
		INSERT INTO schedule_template_days (
			id, template_id, weekday, start_time, end_time, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4::time, $5::time, $6, NOW(), NOW()
		)
		ON CONFLICT (template_id, weekday) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			end_time   = EXCLUDED.end_time,
			is_active  = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING ` + weeklyDayColumns

	saved, err := scanWeeklyDay(q.QueryRow(ctx, query, newID(), day.TemplateID, day.Weekday, start, end, day.IsActive))
	if err != nil {
		return schedule.WeeklyDay{}, fmt.Errorf("failed to upsert weekly day: %w", err)
	}
	return saved, nil
}

// GetByID implements schedule.WeeklyDayRepository.
func (r *weeklyDayRepositoryImpl) GetByID(ctx context.Context, id string) (schedule.WeeklyDay, error) {
	q := GetQuerier(ctx, r.db)

	d, err := scanWeeklyDay(q.QueryRow(ctx, `SELECT `+weeklyDayColumns+` FROM schedule_template_days WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.WeeklyDay{}, schedule.ErrWeeklyDayNotFound
		}
		return schedule.WeeklyDay{}, fmt.Errorf("failed to get weekly day: %w", err)
	}
	return d, nil
}

// GetByWeekday implements schedule.WeeklyDayRepository.
func (r *weeklyDayRepositoryImpl) GetByWeekday(ctx context.Context, templateID string, weekday int) (schedule.WeeklyDay, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + weeklyDayColumns + ` FROM schedule_template_days WHERE template_id = $1 AND weekday = $2`
	d, err := scanWeeklyDay(q.QueryRow(ctx, query, templateID, weekday))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.WeeklyDay{}, schedule.ErrWeeklyDayNotFound
		}
		return schedule.WeeklyDay{}, fmt.Errorf("failed to get weekly day: %w", err)
	}
	return d, nil
}

// ListByTemplate implements schedule.WeeklyDayRepository.
func (r *weeklyDayRepositoryImpl) ListByTemplate(ctx context.Context, templateID string) ([]schedule.WeeklyDay, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+weeklyDayColumns+` FROM schedule_template_days WHERE template_id = $1 ORDER BY weekday`, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly days: %w", err)
	}
	defer rows.Close()

	days := make([]schedule.WeeklyDay, 0, 7)
	for rows.Next() {
		d, err := scanWeeklyDay(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weekly day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// Reset implements schedule.WeeklyDayRepository.
func (r *weeklyDayRepositoryImpl) Reset(ctx context.Context, id string) (schedule.WeeklyDay, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE schedule_template_days
		SET start_time = NULL, end_time = NULL, is_active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + weeklyDayColumns

	d, err := scanWeeklyDay(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.WeeklyDay{}, schedule.ErrWeeklyDayNotFound
		}
		return schedule.WeeklyDay{}, fmt.Errorf("failed to reset weekly day: %w", err)
	}
	return d, nil
}
