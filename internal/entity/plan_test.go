package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimitsForPlan(t *testing.T) {
	assert.Equal(t, PlanLimits{SMS: 500, MMS: 100}, LimitsForPlan("Starter"))
	assert.Equal(t, 1000, LimitsForPlan("ministry").For(ChannelMMS))
	assert.Equal(t, PlanLimits{}, LimitsForPlan("enterprise"), "unknown plans get free limits")
}

func TestBillingPeriodIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 21:00 on Jan 31 at UTC-5 is already February in UTC.
	now := time.Date(2025, 1, 31, 21, 0, 0, 0, loc)
	assert.Equal(t, "2025-02", BillingPeriod(now))
}
