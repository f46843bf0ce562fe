package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/client"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type clientRepositoryImpl struct {
	db *database.DB
}

func NewClientRepository(db *database.DB) client.ClientRepository {
	return &clientRepositoryImpl{db: db}
}

// GetByID implements client.ClientRepository.
func (r *clientRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (client.Client, error) {
	if !isUUID(id) {
		return client.Client{}, client.ErrClientNotFound
	}
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, name, is_active, created_at, updated_at
		FROM clients
		WHERE id = $1 AND company_id = $2
	`

	var c client.Client
	err := q.QueryRow(ctx, query, id, companyID).Scan(&c.ID, &c.CompanyID, &c.Name, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return client.Client{}, client.ErrClientNotFound
		}
		return client.Client{}, fmt.Errorf("failed to get client: %w", err)
	}
	return c, nil
}

// GetActiveForEmployee implements client.ClientRepository. When several
// associations cover the date the most recent one wins.
func (r *clientRepositoryImpl) GetActiveForEmployee(ctx context.Context, employeeID string, companyID string, date time.Time) (client.Client, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT c.id, c.company_id, c.name, c.is_active, c.created_at, c.updated_at
		FROM employee_clients ec
		JOIN clients c ON c.id = ec.client_id
		WHERE ec.employee_id = $1
		  AND c.company_id = $2
		  AND c.is_active
		  AND ec.start_date <= $3
		  AND (ec.end_date IS NULL OR ec.end_date >= $3)
		ORDER BY ec.start_date DESC
		LIMIT 1
	`

	var c client.Client
	err := q.QueryRow(ctx, query, employeeID, companyID, date).Scan(&c.ID, &c.CompanyID, &c.Name, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return client.Client{}, client.ErrClientNotFound
		}
		return client.Client{}, fmt.Errorf("failed to get employee client: %w", err)
	}
	return c, nil
}
