package redis_repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mohammad-safakhou/marketintel/models"
	"github.com/redis/go-redis/v9"
)

const reportKeyPrefix = "report:"

// RedisReportRepository keeps each report as a JSON string under report:{id}.
type RedisReportRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReportRepository stores reports in client. A ttl of zero keeps reports forever.
func NewRedisReportRepository(client *redis.Client, ttl time.Duration) *RedisReportRepository {
	return &RedisReportRepository{client: client, ttl: ttl}
}

func (r *RedisReportRepository) SaveReport(ctx context.Context, id string, report models.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, reportKeyPrefix+id, data, r.ttl).Err()
}

func (r *RedisReportRepository) GetReport(ctx context.Context, id string) (models.Report, error) {
	val, err := r.client.Get(ctx, reportKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Report{}, models.ErrReportNotFound
		}
		return models.Report{}, err
	}

	var report models.Report
	if err := json.Unmarshal([]byte(val), &report); err != nil {
		return models.Report{}, err
	}
	return report, nil
}
