package settings

import (
	"errors"
	"time"
)

// ErrNotFound indicates the setting key has never been written.
var ErrNotFound = errors.New("settings: not found")

// KeyMaintenanceMode is the global maintenance toggle. It is deliberately
// not tenant-scoped: maintenance locks the whole platform down.
const KeyMaintenanceMode = "maintenance_mode"

// Setting is one key/value row with toggle metadata.
type Setting struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	UpdatedBy int64     `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MaintenanceMode is the decoded maintenance_mode value.
type MaintenanceMode struct {
	Enabled   bool      `json:"enabled"`
	Message   string    `json:"message,omitempty"`
	UpdatedBy int64     `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
