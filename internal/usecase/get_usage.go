package usecase

import (
	"context"
	"errors"

	"github.com/xavierca1/followup-core/internal/entity"
)

type GetUsageUseCase struct {
	Tenants entity.TenantRepositoryInterface
	Quota   entity.QuotaRepositoryInterface
	Now     Clock
}

func NewGetUsageUseCase(tenants entity.TenantRepositoryInterface, quota entity.QuotaRepositoryInterface) *GetUsageUseCase {
	return &GetUsageUseCase{Tenants: tenants, Quota: quota}
}

// Execute reads the counters of period, or of the current period when empty.
func (uc *GetUsageUseCase) Execute(ctx context.Context, tenantID, period string) (*UsageOutput, error) {
	if period == "" {
		period = entity.BillingPeriod(uc.Now.now())
	}

	plan, err := uc.Tenants.GetPlan(ctx, tenantID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, domainErr(CodeTenantNotFound, "tenant not found")
	}
	if err != nil {
		return nil, dbErr("failed to load tenant plan", err)
	}

	usage, err := uc.Quota.GetUsage(ctx, tenantID, period)
	if err != nil {
		return nil, dbErr("failed to read quota usage", err)
	}

	return &UsageOutput{
		TenantID: tenantID,
		Plan:     plan,
		Period:   period,
		Used:     usage,
		Limits:   entity.LimitsForPlan(plan),
	}, nil
}
