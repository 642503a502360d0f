package inmemory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mohammad-safakhou/marketintel/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewReportRepository(0, 0)
	require.NoError(t, repo.SaveReport(ctx, "a", models.Report{Summary: "first"}))

	got, err := repo.GetReport(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Summary)

	_, err = repo.GetReport(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrReportNotFound)
}

func TestReportsExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewReportRepository(time.Hour, 0)
	repo.now = func() time.Time { return now }

	_ = repo.SaveReport(ctx, "a", models.Report{Summary: "a"})
	now = now.Add(30 * time.Minute)
	_, err := repo.GetReport(ctx, "a")
	require.NoError(t, err, "report expired early")

	now = now.Add(31 * time.Minute)
	_, err = repo.GetReport(ctx, "a")
	assert.ErrorIs(t, err, models.ErrReportNotFound)

	_ = repo.SaveReport(ctx, "b", models.Report{})
	assert.Equal(t, 1, repo.Len(), "expired entry not dropped on save")
}

func TestCapacityEvictsOldest(t *testing.T) {
	ctx := context.Background()
	repo := NewReportRepository(0, 2)
	_ = repo.SaveReport(ctx, "a", models.Report{})
	_ = repo.SaveReport(ctx, "b", models.Report{})
	_ = repo.SaveReport(ctx, "a", models.Report{Summary: "again"})
	_ = repo.SaveReport(ctx, "c", models.Report{})

	_, err := repo.GetReport(ctx, "b")
	assert.ErrorIs(t, err, models.ErrReportNotFound)

	got, err := repo.GetReport(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "again", got.Summary)
	assert.Equal(t, 2, repo.Len())
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := NewReportRepository(time.Minute, 50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			_ = repo.SaveReport(ctx, id, models.Report{Summary: id})
			_, _ = repo.GetReport(ctx, id)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, repo.Len())
}
