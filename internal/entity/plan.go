package entity

import (
	"context"
	"strings"
	"time"
)

// Channel is an outbound text channel counted by the quota ledger.
type Channel string

const (
	ChannelSMS Channel = "sms"
	ChannelMMS Channel = "mms"
)

func (c Channel) Valid() bool { return c == ChannelSMS || c == ChannelMMS }

// PlanLimits caps monthly SMS/MMS sends for a tenant.
type PlanLimits struct {
	SMS int `json:"sms_limit"`
	MMS int `json:"mms_limit"`
}

func (l PlanLimits) For(c Channel) int {
	if c == ChannelMMS {
		return l.MMS
	}
	return l.SMS
}

const PlanFree = "free"

// planLimits is static configuration; a plan that is not listed gets the free limits.
var planLimits = map[string]PlanLimits{
	PlanFree:   {SMS: 0, MMS: 0},
	"starter":  {SMS: 500, MMS: 100},
	"growth":   {SMS: 2000, MMS: 500},
	"ministry": {SMS: 5000, MMS: 1000},
}

func LimitsForPlan(plan string) PlanLimits {
	if l, ok := planLimits[strings.ToLower(strings.TrimSpace(plan))]; ok {
		return l
	}
	return planLimits[PlanFree]
}

// Tenant is a ministry whose people and quotas are isolated from others.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

type TenantRepositoryInterface interface {
	Create(ctx context.Context, t *Tenant) error
	GetPlan(ctx context.Context, tenantID string) (string, error)
}
