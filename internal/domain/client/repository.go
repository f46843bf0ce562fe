package client

import (
	"context"
	"time"
)

type ClientRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Client, error)
	// GetActiveForEmployee returns the client the employee is associated with
	// on date, or ErrClientNotFound.
	GetActiveForEmployee(ctx context.Context, employeeID string, companyID string, date time.Time) (Client, error)
}
