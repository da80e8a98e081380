package usecase

import "github.com/xavierca1/followup-core/internal/entity"

type CreatePersonInput struct {
	TenantID  string `json:"-"`
	Kind      string `json:"kind"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type ScheduleFollowUpInput struct {
	TenantID           string `json:"-"`
	PersonID           string `json:"-"`
	Date               string `json:"date"` // YYYY-MM-DD
	Time               string `json:"time"` // HH:MM
	VideoLink          string `json:"video_link"`
	NotificationMethod string `json:"notification_method"`
	Notes              string `json:"notes"`
}

type ScheduleFollowUpOutput struct {
	FollowUp     *entity.FollowUpRecord `json:"followup"`
	Stage        entity.Stage           `json:"stage,omitempty"`
	Status       entity.PersonStatus    `json:"status"`
	Notification *NotificationResult    `json:"notification,omitempty"`
}

// NotificationResult reports how the scheduling confirmation went. A failed
// confirmation does not undo the scheduling.
type NotificationResult struct {
	Channel   entity.Channel `json:"channel"`
	Status    string         `json:"status"`
	MessageID string         `json:"message_id,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type CompleteFollowUpInput struct {
	TenantID   string `json:"-"`
	FollowUpID string `json:"-"`
	Outcome    string `json:"outcome"`
	Notes      string `json:"notes"`
}

type CompleteFollowUpOutput struct {
	FollowUpID string              `json:"followup_id"`
	Outcome    entity.Outcome      `json:"outcome"`
	Stage      entity.Stage        `json:"stage,omitempty"`
	Status     entity.PersonStatus `json:"status"`
}

type RecordCheckinInput struct {
	TenantID     string `json:"-"`
	PersonID     string `json:"-"`
	Outcome      string `json:"outcome"`
	Notes        string `json:"notes"`
	StatusUpdate string `json:"status_update"`
}

const (
	MessageStatusSent          = "SENT"
	MessageStatusQuotaExceeded = "QUOTA_EXCEEDED"
	MessageStatusFailed        = "FAILED"
	MessageStatusSkipped       = "SKIPPED"
)

type SendMessageInput struct {
	TenantID string `json:"-"`
	Channel  string `json:"channel"`
	To       string `json:"to"`
	Body     string `json:"body"`
	MediaURL string `json:"media_url"`
}

type SendMessageOutput struct {
	Status    string         `json:"status"`
	Channel   entity.Channel `json:"channel"`
	To        string         `json:"to"`
	MessageID string         `json:"message_id,omitempty"`
	Period    string         `json:"period"`
	Used      int            `json:"used"`
	Limit     int            `json:"limit"`
}

type UsageOutput struct {
	TenantID string            `json:"tenant_id"`
	Plan     string            `json:"plan"`
	Period   string            `json:"period"`
	Used     entity.Usage      `json:"used"`
	Limits   entity.PlanLimits `json:"limits"`
}

const (
	ReminderStatusSent        = "SENT"
	ReminderStatusAlreadySent = "ALREADY_SENT"
	ReminderStatusNoEmail     = "NO_EMAIL"
	ReminderStatusNotDue      = "NOT_DUE"
)
