package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rows map[string]Setting
}

func (r *memoryRepo) Get(_ context.Context, key string) (*Setting, error) {
	s, ok := r.rows[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *memoryRepo) Set(_ context.Context, setting Setting) error {
	if r.rows == nil {
		r.rows = make(map[string]Setting)
	}
	r.rows[setting.Key] = setting
	return nil
}

func TestMaintenanceDefaultsDisabled(t *testing.T) {
	svc := NewService(&memoryRepo{})
	mode, err := svc.Maintenance(context.Background())
	require.NoError(t, err)
	require.False(t, mode.Enabled)
}

func TestMaintenanceRoundTrip(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.SetMaintenance(ctx, true, "upgrading database", 42))

	mode, err := svc.Maintenance(ctx)
	require.NoError(t, err)
	require.True(t, mode.Enabled)
	require.Equal(t, "upgrading database", mode.Message)
	require.Equal(t, int64(42), mode.UpdatedBy)

	enabled, err := svc.MaintenanceEnabled(ctx)
	require.NoError(t, err)
	require.True(t, enabled)
}

func TestMaintenanceCorruptValue(t *testing.T) {
	repo := &memoryRepo{rows: map[string]Setting{
		KeyMaintenanceMode: {Key: KeyMaintenanceMode, Value: []byte(`not-json`)},
	}}
	svc := NewService(repo)
	_, err := svc.Maintenance(context.Background())
	require.Error(t, err)
}
