package repository

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/marketintel/config"
	"github.com/mohammad-safakhou/marketintel/models"
	"github.com/mohammad-safakhou/marketintel/repository/inmemory"
	"github.com/mohammad-safakhou/marketintel/repository/redis_repository"
)

// ReportRepository stores generated reports by id. GetReport returns
// models.ErrReportNotFound for unknown or expired ids.
type ReportRepository interface {
	SaveReport(ctx context.Context, id string, report models.Report) error
	GetReport(ctx context.Context, id string) (models.Report, error)
}

type RepoType string

const (
	RepoTypeMemory RepoType = "memory"
	RepoTypeRedis  RepoType = "redis"
)

func NewReportRepository(ctx context.Context, cfg config.StorageConfig) (ReportRepository, error) {
	switch RepoType(cfg.Backend) {
	case RepoTypeMemory, "":
		return inmemory.NewReportRepository(cfg.TTL, cfg.MaxReports), nil
	case RepoTypeRedis:
		r := cfg.Redis
		c, err := redis_repository.Conn(ctx, r.Host, r.Port, r.Password, r.DB, r.Timeout)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return redis_repository.NewRedisReportRepository(c, cfg.TTL), nil
	}
	return nil, fmt.Errorf("invalid repository type: %s", cfg.Backend)
}
