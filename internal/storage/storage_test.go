package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/marketpulse/internal/analytics"
	"github.com/ignite/marketpulse/internal/config"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(context.Background(), config.StorageConfig{
		Type:      "local",
		LocalPath: t.TempDir(),
	})
	require.NoError(t, err)
	return s
}

func snapshotAt(campaign string, at time.Time, revenue float64) *Snapshot {
	return &Snapshot{
		CampaignID: campaign,
		CreatedAt:  at,
		Sources:    []string{"facebook.csv"},
		Report: analytics.Report{
			Campaign: "Spring Sale",
			Platform: "facebook",
			Metrics:  analytics.Metrics{"revenue": revenue, "spend": 100},
		},
	}
}

func TestNew(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Type: "local"})
	assert.Error(t, err)

	_, err = New(context.Background(), config.StorageConfig{Type: "ftp", LocalPath: t.TempDir()})
	assert.ErrorContains(t, err, "ftp")

	s := newTestStorage(t)
	assert.Equal(t, "local", s.Backend())
	assert.NoError(t, s.Ping(context.Background()))
}

func TestLocalSaveAndList(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, rev := range []float64{100, 300, 200} {
		require.NoError(t, s.SaveSnapshot(ctx, snapshotAt("c-1", base.Add(time.Duration(i)*24*time.Hour), rev)))
	}
	require.NoError(t, s.SaveSnapshot(ctx, snapshotAt("c-2", base, 999)))

	all, err := s.ListSnapshots(ctx, "c-1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 200.0, all[0].Report.Metrics["revenue"], "newest first")
	assert.Equal(t, 100.0, all[2].Report.Metrics["revenue"])
	assert.NotEmpty(t, all[0].ID)

	two, err := s.ListSnapshots(ctx, "c-1", 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)

	latest, err := s.LatestSnapshot(ctx, "c-2")
	require.NoError(t, err)
	assert.Equal(t, 999.0, latest.Report.Metrics["revenue"])
	assert.Equal(t, []string{"facebook.csv"}, latest.Sources)
}

func TestLocalLatestNotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.LatestSnapshot(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.ListSnapshots(context.Background(), "unknown", 5)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSaveSnapshotDefaults(t *testing.T) {
	s := newTestStorage(t)
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	snap := &Snapshot{CampaignID: "c-9"}
	require.NoError(t, s.SaveSnapshot(context.Background(), snap))
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, fixed, snap.CreatedAt)

	_, err := os.Stat(filepath.Join(s.config.LocalPath, "reports", "c-9", snap.SortKey()+".json"))
	assert.NoError(t, err)

	assert.Error(t, s.SaveSnapshot(context.Background(), &Snapshot{}))
}

func TestCampaignIDCannotEscapeRoot(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.SaveSnapshot(context.Background(), snapshotAt("../../etc", time.Now(), 1)))

	_, err := os.Stat(filepath.Join(s.config.LocalPath, "reports", "etc"))
	assert.NoError(t, err)
}

func TestSortKeyIsChronological(t *testing.T) {
	early := Snapshot{CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 5, time.UTC)}
	late := Snapshot{CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 40, time.UTC)}
	assert.Less(t, early.SortKey(), late.SortKey())
	assert.Len(t, early.SortKey(), len(late.SortKey()))
}
