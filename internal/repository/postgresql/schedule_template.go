package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type templateRepositoryImpl struct {
	db *database.DB
}

func NewTemplateRepository(db *database.DB) schedule.TemplateRepository {
	return &templateRepositoryImpl{db: db}
}

const templateColumns = `id, company_id, name, description, kind, is_active, created_at, updated_at`

func scanTemplate(row pgx.Row) (schedule.Template, error) {
	var t schedule.Template
	err := row.Scan(&t.ID, &t.CompanyID, &t.Name, &t.Description, &t.Kind, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// Create implements schedule.TemplateRepository.
func (r *templateRepositoryImpl) Create(ctx context.Context, template schedule.Template) (schedule.Template, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO schedule_templates (
			id, company_id, name, description, kind, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW()
		) RETURNING ` + templateColumns

	created, err := scanTemplate(q.QueryRow(ctx, query,
		newID(), template.CompanyID, template.Name, template.Description, string(template.Kind), template.IsActive,
	))
	if err != nil {
		if _, ok := isPgError(err, pgUniqueViolation); ok {
			return schedule.Template{}, schedule.ErrTemplateNameExists
		}
		return schedule.Template{}, fmt.Errorf("failed to create schedule template: %w", err)
	}
	return created, nil
}

// GetByID implements schedule.TemplateRepository.
func (r *templateRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (schedule.Template, error) {
	if !isUUID(id) {
		return schedule.Template{}, schedule.ErrTemplateNotFound
	}
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + templateColumns + ` FROM schedule_templates WHERE id = $1 AND company_id = $2`

	t, err := scanTemplate(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Template{}, schedule.ErrTemplateNotFound
		}
		return schedule.Template{}, fmt.Errorf("failed to get schedule template: %w", err)
	}
	return t, nil
}

// List implements schedule.TemplateRepository.
func (r *templateRepositoryImpl) List(ctx context.Context, companyID string, filter schedule.TemplateFilter) ([]schedule.Template, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := "company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.Name != nil && *filter.Name != "" {
		where += fmt.Sprintf(" AND name ILIKE $%d", argIdx)
		args = append(args, "%"+*filter.Name+"%")
		argIdx++
	}
	if filter.IsActive != nil {
		where += fmt.Sprintf(" AND is_active = $%d", argIdx)
		args = append(args, *filter.IsActive)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM schedule_templates WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count schedule templates: %w", err)
	}

	orderBy := "name"
	switch filter.SortBy {
	case "kind":
		orderBy = "kind"
	case "created_at":
		orderBy = "created_at"
	}
	sortOrder := "ASC"
	if strings.ToLower(filter.SortOrder) == "desc" {
		sortOrder = "DESC"
	}

	query := fmt.Sprintf("SELECT %s FROM schedule_templates WHERE %s ORDER BY %s %s, id", templateColumns, where, orderBy, sortOrder)
	if !filter.All {
		limit := filter.Limit
		if limit == 0 {
			limit = 20
		}
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, limit, (page-1)*limit)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query schedule templates: %w", err)
	}
	defer rows.Close()

	templates := make([]schedule.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan schedule template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return templates, total, nil
}

// Update implements schedule.TemplateRepository.
func (r *templateRepositoryImpl) Update(ctx context.Context, template schedule.Template) (schedule.Template, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE schedule_templates
		SET name = $1, description = $2, kind = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5 AND company_id = $6
		RETURNING ` + templateColumns

	updated, err := scanTemplate(q.QueryRow(ctx, query,
		template.Name, template.Description, string(template.Kind), template.IsActive, template.ID, template.CompanyID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Template{}, schedule.ErrTemplateNotFound
		}
		if _, ok := isPgError(err, pgUniqueViolation); ok {
			return schedule.Template{}, schedule.ErrTemplateNameExists
		}
		return schedule.Template{}, fmt.Errorf("failed to update schedule template: %w", err)
	}
	return updated, nil
}

// Delete implements schedule.TemplateRepository. Days, exceptions, blocks and
// assignments go with it through ON DELETE CASCADE.
func (r *templateRepositoryImpl) Delete(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM schedule_templates WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete schedule template: %w", err)
	}
	if commandTag.RowsAffected() != 1 {
		return schedule.ErrTemplateNotFound
	}
	return nil
}

// newID returns a time-ordered UUIDv7.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// isUUID guards lookups by caller-supplied ids: Postgres rejects a malformed
// uuid with 22P02 instead of finding nothing.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
