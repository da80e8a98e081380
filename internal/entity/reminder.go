package entity

import (
	"context"
	"time"
)

// ReminderType identifies one kind of reminder per follow-up record.
type ReminderType string

const ReminderDayBefore ReminderType = "DAY_BEFORE"

// ReminderSentLog proves a reminder went out. Rows are written only after a
// confirmed send and are never updated or deleted.
type ReminderSentLog struct {
	FollowUpID        string       `json:"followup_id"`
	ReminderType      ReminderType `json:"reminder_type"`
	ProviderMessageID string       `json:"provider_message_id,omitempty"`
	SentAt            time.Time    `json:"sent_at"`
}

type ReminderLogRepositoryInterface interface {
	Exists(ctx context.Context, followUpID string, rt ReminderType) (bool, error)
	// Insert returns false when a row for (followUpID, type) already exists.
	Insert(ctx context.Context, log ReminderSentLog) (bool, error)
}

// LeaseRepositoryInterface hands out named, expiring leases so that only one
// process runs a scheduler pass at a time.
type LeaseRepositoryInterface interface {
	TryAcquire(ctx context.Context, name, holder string, now time.Time, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, holder string) error
}
