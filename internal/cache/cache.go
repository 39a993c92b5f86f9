package cache

import (
	"context"
	"time"

	"ubmqi/backend/internal/domain"
)

type ReportCache interface {
	Get(ctx context.Context, key string) (*domain.FinancialReport, bool, error)
	Set(ctx context.Context, key string, value *domain.FinancialReport, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string) (*domain.FinancialReport, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ *domain.FinancialReport, _ time.Duration) error {
	return nil
}

func (NoopReportCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
