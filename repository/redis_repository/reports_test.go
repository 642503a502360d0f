package redis_repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/mohammad-safakhou/marketintel/models"
	"github.com/mohammad-safakhou/marketintel/repository/redis_repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisReportRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redisC, err := tcRedis.RunContainer(ctx, testcontainers.WithWaitStrategy(wait.ForListeningPort("6379/tcp")))
	require.NoError(t, err)
	defer func() { _ = redisC.Terminate(ctx) }()

	host, err := redisC.Host(ctx)
	require.NoError(t, err)
	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := redis_repository.Conn(ctx, host, port.Port(), "", 0, 5*time.Second)
	require.NoError(t, err)
	defer client.Close()

	repo := redis_repository.NewRedisReportRepository(client, time.Minute)
	report := models.Report{
		Summary:     "Lenders consolidate",
		Competitors: []string{"Bajaj Finance"},
		ImpactRadar: []models.ImpactItem{{Event: "e", ImpactLevel: models.ImpactHigh, Score: 80, Why: []string{}, Actions: []string{}}},
		Sources:     []string{"https://example.com/article1"},
	}
	require.NoError(t, repo.SaveReport(ctx, "r1", report))

	got, err := repo.GetReport(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, report.Summary, got.Summary)
	require.Len(t, got.ImpactRadar, 1)
	assert.Equal(t, 80, got.ImpactRadar[0].Score)

	ttl, err := client.TTL(ctx, "report:r1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "report:r1 should carry a ttl")

	_, err = repo.GetReport(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrReportNotFound)
}
