package entity

import (
	"context"
	"time"
)

const periodLayout = "2006-01"

// BillingPeriod is the UTC calendar month key ("YYYY-MM") quota counters live under.
// A new month simply starts a new key at zero.
func BillingPeriod(now time.Time) string {
	return now.UTC().Format(periodLayout)
}

type Usage struct {
	TenantID string `json:"tenant_id"`
	Period   string `json:"period"`
	SMS      int    `json:"sms_count"`
	MMS      int    `json:"mms_count"`
}

func (u Usage) For(c Channel) int {
	if c == ChannelMMS {
		return u.MMS
	}
	return u.SMS
}

// QuotaRepositoryInterface is the ledger. Increment must be a single atomic
// read-modify-write at the storage layer.
type QuotaRepositoryInterface interface {
	GetUsage(ctx context.Context, tenantID, period string) (Usage, error)
	Increment(ctx context.Context, tenantID, period string, channel Channel, now time.Time) (int, error)
}
