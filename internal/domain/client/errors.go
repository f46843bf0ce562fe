package client

import "errors"

var (
	ErrClientNotFound = errors.New("client not found")
	ErrClientInactive = errors.New("client is inactive")
)
