package entity

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is how calendar dates travel through the system (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// LocalDates returns today and tomorrow as calendar dates in loc.
func LocalDates(now time.Time, loc *time.Location) (today, tomorrow string) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return local.Format(DateLayout), local.AddDate(0, 0, 1).Format(DateLayout)
}

type Outcome string

const (
	OutcomeConnected      Outcome = "CONNECTED"
	OutcomeNoResponse     Outcome = "NO_RESPONSE"
	OutcomeNeedsFollowUp  Outcome = "NEEDS_FOLLOWUP"
	OutcomeNeedsPrayer    Outcome = "NEEDS_PRAYER"
	OutcomeScheduledVisit Outcome = "SCHEDULED_VISIT"
	OutcomeReferred       Outcome = "REFERRED"
	OutcomeNotCompleted   Outcome = "NOT_COMPLETED"
	OutcomeOther          Outcome = "OTHER"
)

func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(strings.ToUpper(strings.TrimSpace(s)))
	switch o {
	case OutcomeConnected, OutcomeNoResponse, OutcomeNeedsFollowUp, OutcomeNeedsPrayer,
		OutcomeScheduledVisit, OutcomeReferred, OutcomeNotCompleted, OutcomeOther:
		return o, nil
	}
	return "", errors.New("unknown outcome: " + s)
}

// NotificationMethod is how the person hears about a scheduled follow-up.
type NotificationMethod string

const (
	NotifyEmail NotificationMethod = "email"
	NotifySMS   NotificationMethod = "sms"
	NotifyMMS   NotificationMethod = "mms"
)

func ParseNotificationMethod(s string) (NotificationMethod, error) {
	m := NotificationMethod(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case "":
		return NotifyEmail, nil
	case NotifyEmail, NotifySMS, NotifyMMS:
		return m, nil
	}
	return "", errors.New("notification_method must be email, sms or mms")
}

var timeOfDay = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// FollowUpRecord is one contact attempt (checkin) with a person.
type FollowUpRecord struct {
	ID                 string             `json:"id"`
	TenantID           string             `json:"tenant_id"`
	PersonID           string             `json:"person_id"`
	CheckinDate        time.Time          `json:"checkin_date"`
	Outcome            Outcome            `json:"outcome"`
	NextFollowUpDate   string             `json:"next_followup_date,omitempty"` // YYYY-MM-DD
	NextFollowUpTime   string             `json:"next_followup_time,omitempty"` // HH:MM
	VideoLink          string             `json:"video_link,omitempty"`
	NotificationMethod NotificationMethod `json:"notification_method"`
	Notes              string             `json:"notes,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func NewFollowUpRecord(tenantID, personID string, outcome Outcome, method NotificationMethod, now time.Time) *FollowUpRecord {
	return &FollowUpRecord{
		ID:                 uuid.New().String(),
		TenantID:           tenantID,
		PersonID:           personID,
		CheckinDate:        now,
		Outcome:            outcome,
		NotificationMethod: method,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (f *FollowUpRecord) Validate() error {
	if f.TenantID == "" || f.PersonID == "" {
		return errors.New("tenant_id and person_id are required")
	}
	if _, err := ParseOutcome(string(f.Outcome)); err != nil {
		return err
	}
	if f.NextFollowUpDate != "" {
		if _, err := time.Parse(DateLayout, f.NextFollowUpDate); err != nil {
			return errors.New("next_followup_date must be YYYY-MM-DD")
		}
	}
	if f.NextFollowUpTime != "" && !timeOfDay.MatchString(f.NextFollowUpTime) {
		return errors.New("next_followup_time must be HH:MM")
	}
	if f.Outcome == OutcomeScheduledVisit && f.NextFollowUpDate == "" {
		return errors.New("a scheduled visit needs next_followup_date")
	}
	return nil
}

// Pending reports whether the record is a scheduled visit that has not
// happened yet relative to today (YYYY-MM-DD).
func (f *FollowUpRecord) Pending(today string) bool {
	return f.Outcome == OutcomeScheduledVisit && f.NextFollowUpDate >= today
}

// Overdue reports a scheduled visit whose date is strictly before today.
func (f *FollowUpRecord) Overdue(today string) bool {
	return f.Outcome == OutcomeScheduledVisit && f.NextFollowUpDate != "" && f.NextFollowUpDate < today
}

// DueTomorrow reports a scheduled visit happening on tomorrow's date.
func (f *FollowUpRecord) DueTomorrow(tomorrow string) bool {
	return f.Outcome == OutcomeScheduledVisit && f.NextFollowUpDate == tomorrow
}

// FollowUpWithPerson joins a record with the contact data needed for reminders.
type FollowUpWithPerson struct {
	FollowUp *FollowUpRecord
	Person   *Person
}

type FollowUpRepositoryInterface interface {
	Create(ctx context.Context, f *FollowUpRecord) error
	FindByID(ctx context.Context, tenantID, id string) (*FollowUpRecord, error)
	Delete(ctx context.Context, tenantID, id string) error
	ListByPerson(ctx context.Context, tenantID, personID string) ([]*FollowUpRecord, error)

	// ListScheduledBefore returns SCHEDULED_VISIT records dated strictly before date.
	ListScheduledBefore(ctx context.Context, date string) ([]*FollowUpRecord, error)
	// ListScheduledOn returns SCHEDULED_VISIT records dated on date, joined with their person.
	ListScheduledOn(ctx context.Context, date string) ([]FollowUpWithPerson, error)

	// ExpireIfOverdue flips SCHEDULED_VISIT -> NOT_COMPLETED when still dated before today.
	ExpireIfOverdue(ctx context.Context, id, today string, now time.Time) (bool, error)
	// CompleteScheduled flips SCHEDULED_VISIT -> outcome, returning false if the
	// record was no longer scheduled.
	CompleteScheduled(ctx context.Context, tenantID, id string, outcome Outcome, notes string, now time.Time) (bool, error)
	// Restore writes back a previously read copy of the record if it still
	// carries outcome from.
	Restore(ctx context.Context, f *FollowUpRecord, from Outcome) (bool, error)
}
