package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/client"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type blockRepositoryImpl struct {
	db *database.DB
}

func NewBlockRepository(db *database.DB) schedule.BlockRepository {
	return &blockRepositoryImpl{db: db}
}

func parentColumn(parent schedule.BlockParent) string {
	if parent.Kind == schedule.BlockParentException {
		return "exception_id"
	}
	return "day_id"
}

// LockParent implements schedule.BlockRepository.
func (r *blockRepositoryImpl) LockParent(ctx context.Context, parent schedule.BlockParent) (schedule.LockedParent, error) {
	q := GetQuerier(ctx, r.db)

	table, notFound := "schedule_template_days", schedule.ErrWeeklyDayNotFound
	if parent.Kind == schedule.BlockParentException {
		table, notFound = "schedule_template_exceptions", schedule.ErrExceptionNotFound
	}
	if !isUUID(parent.ID) {
		return schedule.LockedParent{}, notFound
	}

	query := fmt.Sprintf(`
		SELECT template_id, to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS')
		FROM %s
		WHERE id = $1
		FOR UPDATE
	`, table)

	var (
		locked     schedule.LockedParent
		start, end *string
	)
	if err := q.QueryRow(ctx, query, parent.ID).Scan(&locked.TemplateID, &start, &end); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.LockedParent{}, notFound
		}
		return schedule.LockedParent{}, fmt.Errorf("failed to lock block parent: %w", err)
	}
	locked.Range = toTimeRange(start, end)
	return locked, nil
}

// ListByParent implements schedule.BlockRepository.
func (r *blockRepositoryImpl) ListByParent(ctx context.Context, parent schedule.BlockParent) ([]schedule.Block, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT
			b.id, b.day_id, b.exception_id, b.type,
			to_char(b.start_time, 'HH24:MI:SS'), to_char(b.end_time, 'HH24:MI:SS'),
			b.is_required, b.client_id, b.created_at,
			c.name
		FROM schedule_blocks b
		LEFT JOIN clients c ON c.id = b.client_id
		WHERE b.%s = $1
		ORDER BY b.start_time, b.position
	`, parentColumn(parent))

	rows, err := q.Query(ctx, query, parent.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule blocks: %w", err)
	}
	defer rows.Close()

	blocks := make([]schedule.Block, 0)
	for rows.Next() {
		var b schedule.Block
		if err := rows.Scan(
			&b.ID, &b.DayID, &b.ExceptionID, &b.Type,
			&b.Start, &b.End,
			&b.IsRequired, &b.ClientID, &b.CreatedAt,
			&b.ClientName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan schedule block: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// ReplaceAll implements schedule.BlockRepository.
func (r *blockRepositoryImpl) ReplaceAll(ctx context.Context, parent schedule.BlockParent, blocks []schedule.Block) ([]schedule.Block, error) {
	if err := r.DeleteByParent(ctx, parent); err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return []schedule.Block{}, nil
	}

	q := GetQuerier(ctx, r.db)

	var dayID, exceptionID *string
	parentID := parent.ID
	if parent.Kind == schedule.BlockParentException {
		exceptionID = &parentID
	} else {
		dayID = &parentID
	}

	query := `
		INSERT INTO schedule_blocks (
			id, day_id, exception_id, type, start_time, end_time, is_required, client_id, position, created_at
		) VALUES (
			$1, $2, $3, $4, $5::time, $6::time, $7, $8, $9, NOW()
		) RETURNING created_at
	`

	batch := &pgx.Batch{}
	saved := make([]schedule.Block, len(blocks))
	for i, b := range blocks {
		b.ID = newID()
		b.DayID, b.ExceptionID = dayID, exceptionID
		saved[i] = b
		batch.Queue(query, b.ID, dayID, exceptionID, string(b.Type), b.Start, b.End, b.IsRequired, b.ClientID, i+1)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for i := range saved {
		if err := results.QueryRow().Scan(&saved[i].CreatedAt); err != nil {
			if _, ok := isPgError(err, pgForeignKeyViolation); ok {
				return nil, client.ErrClientNotFound
			}
			return nil, fmt.Errorf("failed to insert schedule block %d: %w", i+1, err)
		}
	}

	return saved, nil
}

// DeleteByParent implements schedule.BlockRepository.
func (r *blockRepositoryImpl) DeleteByParent(ctx context.Context, parent schedule.BlockParent) error {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`DELETE FROM schedule_blocks WHERE %s = $1`, parentColumn(parent))
	if _, err := q.Exec(ctx, query, parent.ID); err != nil {
		return fmt.Errorf("failed to delete schedule blocks: %w", err)
	}
	return nil
}
