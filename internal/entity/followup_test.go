package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocalDates(t *testing.T) {
	// 02:00 UTC on the 10th is still the 9th in New York.
	now := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)

	today, tomorrow := LocalDates(now, nil)
	assert.Equal(t, "2025-03-10", today)
	assert.Equal(t, "2025-03-11", tomorrow)

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	today, tomorrow = LocalDates(now, ny)
	assert.Equal(t, "2025-03-09", today)
	assert.Equal(t, "2025-03-10", tomorrow)
}

func TestFollowUpDatePredicates(t *testing.T) {
	f := &FollowUpRecord{Outcome: OutcomeScheduledVisit, NextFollowUpDate: "2025-03-11"}

	assert.True(t, f.Pending("2025-03-11"))
	assert.False(t, f.Overdue("2025-03-11"))
	assert.True(t, f.Overdue("2025-03-12"))
	assert.True(t, f.DueTomorrow("2025-03-11"))

	f.Outcome = OutcomeConnected
	assert.False(t, f.Pending("2025-03-01"))
	assert.False(t, f.Overdue("2025-03-12"))
	assert.False(t, f.DueTomorrow("2025-03-11"))
}

func TestFollowUpValidate(t *testing.T) {
	now := time.Now()
	f := NewFollowUpRecord("t1", "p1", OutcomeScheduledVisit, NotifyEmail, now)
	assert.Error(t, f.Validate(), "scheduled visit without a date")

	f.NextFollowUpDate = "2025-03-11"
	f.NextFollowUpTime = "25:00"
	assert.Error(t, f.Validate())

	f.NextFollowUpTime = "09:30"
	assert.NoError(t, f.Validate())

	_, err := ParseNotificationMethod("pigeon")
	assert.Error(t, err)

	m, err := ParseNotificationMethod("")
	assert.NoError(t, err)
	assert.Equal(t, NotifyEmail, m)
}
