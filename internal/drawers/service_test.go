package drawers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	nextID  int64
	drawers map[int64]*Drawer
	entries []Entry
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, drawers: map[int64]*Drawer{}}
}

func (m *memoryRepo) Open(_ context.Context, d *Drawer) error {
	for _, existing := range m.drawers {
		if existing.CompanyID == d.CompanyID && existing.LocationID == d.LocationID && existing.Status == StatusOpen {
			return ErrAlreadyOpen
		}
	}
	d.ID = m.nextID
	m.nextID++
	d.Status = StatusOpen
	d.ExpectedCents = d.FloatCents
	d.OpenedAt = time.Now().UTC()
	cp := *d
	m.drawers[d.ID] = &cp
	return nil
}

func (m *memoryRepo) Get(_ context.Context, companyID, id int64) (*Drawer, error) {
	d, ok := m.drawers[id]
	if !ok || d.CompanyID != companyID {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memoryRepo) OpenAtLocation(_ context.Context, companyID, locationID int64) (*Drawer, error) {
	for _, d := range m.drawers {
		if d.CompanyID == companyID && d.LocationID == locationID && d.Status == StatusOpen {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNoOpenDrawer
}

func (m *memoryRepo) AddEntry(_ context.Context, d *Drawer, e *Entry) error {
	stored, ok := m.drawers[d.ID]
	if !ok || stored.Status != StatusOpen {
		return ErrNotOpen
	}
	e.ID = int64(len(m.entries) + 1)
	e.CreatedAt = time.Now().UTC()
	m.entries = append(m.entries, *e)
	stored.ExpectedCents = d.ExpectedCents
	return nil
}

func (m *memoryRepo) Close(_ context.Context, d *Drawer) error {
	stored, ok := m.drawers[d.ID]
	if !ok || stored.Status != StatusOpen {
		return ErrNotOpen
	}
	cp := *d
	m.drawers[d.ID] = &cp
	return nil
}

func (m *memoryRepo) Entries(_ context.Context, _ int64, drawerID int64) ([]Entry, error) {
	var out []Entry
	for _, e := range m.entries {
		if e.DrawerID == drawerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryRepo) OpenedBefore(_ context.Context, cutoff time.Time) ([]Drawer, error) {
	var out []Drawer
	for _, d := range m.drawers {
		if d.Status == StatusOpen && !d.FlaggedStale && d.OpenedAt.Before(cutoff) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memoryRepo) MarkStale(_ context.Context, drawerID int64) error {
	d, ok := m.drawers[drawerID]
	if !ok {
		return ErrNotFound
	}
	d.FlaggedStale = true
	return nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestOpenDrawerSetsExpectedToFloat(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	d, err := svc.Open(context.Background(), 1, 10, OpenRequest{LocationID: 1, FloatCents: 5000})
	require.NoError(t, err)
	require.Equal(t, StatusOpen, d.Status)
	require.Equal(t, int64(5000), d.ExpectedCents)
}

func TestSecondOpenDrawerRejected(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.Open(context.Background(), 1, 10, OpenRequest{LocationID: 1, FloatCents: 5000})
	require.NoError(t, err)

	_, err = svc.Open(context.Background(), 1, 11, OpenRequest{LocationID: 1, FloatCents: 2000})
	require.ErrorIs(t, err, ErrAlreadyOpen)

	// Other locations are independent.
	_, err = svc.Open(context.Background(), 1, 11, OpenRequest{LocationID: 2, FloatCents: 2000})
	require.NoError(t, err)
}

func TestRecordSaleRaisesExpected(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	d, err := svc.Open(context.Background(), 1, 10, OpenRequest{LocationID: 1, FloatCents: 5000})
	require.NoError(t, err)

	require.NoError(t, svc.RecordSale(context.Background(), 1, 1, 10, "INV-000001", 3000))

	got, err := svc.Get(context.Background(), 1, d.ID)
	require.NoError(t, err)
	require.Equal(t, int64(8000), got.ExpectedCents)

	entries, err := svc.Entries(context.Background(), 1, d.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, EntrySale, entries[0].Type)
	require.Equal(t, "INV-000001", entries[0].Reference)
}

func TestRecordSaleNeedsOpenDrawer(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	err := svc.RecordSale(context.Background(), 1, 1, 10, "INV-000001", 3000)
	require.ErrorIs(t, err, ErrNoOpenDrawer)
}

func TestCashOutLowersExpected(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	d, err := svc.Open(context.Background(), 1, 10, OpenRequest{LocationID: 1, FloatCents: 5000})
	require.NoError(t, err)

	_, err = svc.RecordEntry(context.Background(), 1, d.ID, 10, EntryRequest{Type: "cash_out", AmountCents: 1500, Note: "courier"})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), 1, d.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3500), got.ExpectedCents)
}

func TestCloseComputesOverShort(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	d, err := svc.Open(context.Background(), 1, 10, OpenRequest{LocationID: 1, FloatCents: 5000})
	require.NoError(t, err)
	require.NoError(t, svc.RecordSale(context.Background(), 1, 1, 10, "INV-000001", 3000))

	closed, err := svc.Close(context.Background(), 1, d.ID, 10, CloseRequest{CountedCents: 7900})
	require.NoError(t, err)
	require.Equal(t, StatusClosed, closed.Status)
	require.NotNil(t, closed.OverShortCents)
	require.Equal(t, int64(-100), *closed.OverShortCents)

	_, err = svc.Close(context.Background(), 1, d.ID, 10, CloseRequest{CountedCents: 7900})
	require.ErrorIs(t, err, ErrNotOpen)
}

func TestSweepFlagsStaleDrawers(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	d, err := svc.Open(context.Background(), 1, 10, OpenRequest{LocationID: 1, FloatCents: 5000})
	require.NoError(t, err)
	repo.drawers[d.ID].OpenedAt = time.Now().UTC().Add(-48 * time.Hour)

	fresh, err := svc.Open(context.Background(), 1, 10, OpenRequest{LocationID: 2, FloatCents: 1000})
	require.NoError(t, err)

	flagged, err := svc.SweepStale(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, flagged)
	require.True(t, repo.drawers[d.ID].FlaggedStale)
	require.False(t, repo.drawers[fresh.ID].FlaggedStale)

	// Second sweep finds nothing new.
	flagged, err = svc.SweepStale(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Zero(t, flagged)
}
