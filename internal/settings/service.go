package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Service reads and writes system settings.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Maintenance returns the decoded maintenance_mode setting. A key that was
// never written decodes as disabled.
func (s *Service) Maintenance(ctx context.Context) (MaintenanceMode, error) {
	setting, err := s.repo.Get(ctx, KeyMaintenanceMode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return MaintenanceMode{}, nil
		}
		return MaintenanceMode{}, err
	}
	var mode MaintenanceMode
	if err := json.Unmarshal(setting.Value, &mode); err != nil {
		return MaintenanceMode{}, fmt.Errorf("settings: decode maintenance_mode: %w", err)
	}
	mode.UpdatedBy = setting.UpdatedBy
	mode.UpdatedAt = setting.UpdatedAt
	return mode, nil
}

// MaintenanceEnabled implements authz.SettingsSource.
func (s *Service) MaintenanceEnabled(ctx context.Context) (bool, error) {
	mode, err := s.Maintenance(ctx)
	if err != nil {
		return false, err
	}
	return mode.Enabled, nil
}

// SetMaintenance writes the maintenance toggle, recording who flipped it.
func (s *Service) SetMaintenance(ctx context.Context, enabled bool, message string, actorID int64) error {
	value, err := json.Marshal(MaintenanceMode{Enabled: enabled, Message: message})
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, Setting{Key: KeyMaintenanceMode, Value: value, UpdatedBy: actorID})
}
