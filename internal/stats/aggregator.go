package stats

import (
	"context"

	"coupon-issuance-service/internal/models"
	"coupon-issuance-service/internal/repository"
)

// Aggregator computes issuance statistics from whichever store backs the
// deployment: the local database or the remote ERP.
type Aggregator interface {
	Summary(ctx context.Context, date string) (*models.StatsResponse, error)
}

// LocalAggregator reads statistics straight from the coupon table.
type LocalAggregator struct {
	repo repository.CouponRepositoryInterface
}

func NewLocalAggregator(repo repository.CouponRepositoryInterface) *LocalAggregator {
	return &LocalAggregator{repo: repo}
}

func (a *LocalAggregator) Summary(ctx context.Context, date string) (*models.StatsResponse, error) {
	return a.repo.GetStats(ctx, date)
}
