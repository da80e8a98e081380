package usecase

import (
	"context"
	"time"
)

// ReminderMailer delivers the day-before reminder email and returns the
// provider message id.
type ReminderMailer interface {
	SendFollowUpReminder(ctx context.Context, data ReminderEmail) (string, error)
}

type ReminderEmail struct {
	To        string
	Name      string
	Date      string
	Time      string
	VideoLink string
}

// SMSProvider sends text messages. Errors mean nothing was sent.
type SMSProvider interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
	SendMMS(ctx context.Context, to, body, mediaURL string) (string, error)
}

// MessageSender is the quota-checked SMS/MMS path used by other use cases.
type MessageSender interface {
	Execute(ctx context.Context, input SendMessageInput) (*SendMessageOutput, error)
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
