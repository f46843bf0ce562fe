package client

import "time"

// Client is a customer site employees can be scheduled at.
type Client struct {
	ID        string
	CompanyID string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
