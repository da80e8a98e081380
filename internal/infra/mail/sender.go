package mail

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/followup-core/internal/usecase"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func NewEmailSender(host string, port int, user, password, from string, timeout time.Duration) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		Timeout:  timeout,
	}
}

// Send delivers one HTML email and returns the Message-ID it was sent with.
// A non-nil error means the message must be treated as not sent.
func (s *EmailSender) Send(ctx context.Context, to, subject, html string) (string, error) {
	if s.Host == "" {
		return "", errors.New("smtp host not configured")
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(s.From))

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/html", html)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// gomail cannot be cancelled. On timeout the goroutine keeps going and may
	// still deliver, so a reminder reported as failed here can arrive twice.
	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("send email via smtp: %w", err)
		}
		return messageID, nil
	case <-ctx.Done():
		return "", fmt.Errorf("send email via smtp: %w", ctx.Err())
	}
}

func (s *EmailSender) SendFollowUpReminder(ctx context.Context, r usecase.ReminderEmail) (string, error) {
	html, err := renderReminder(ReminderEmailData{
		Name:      r.Name,
		Date:      r.Date,
		Time:      r.Time,
		VideoLink: r.VideoLink,
	})
	if err != nil {
		return "", err
	}

	subject := fmt.Sprintf("Reminder: your follow-up visit is tomorrow, %s", r.Date)
	return s.Send(ctx, r.To, subject, html)
}

func renderReminder(data ReminderEmailData) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, "day_before.html", data); err != nil {
		return "", fmt.Errorf("render reminder template: %w", err)
	}
	return body.String(), nil
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return strings.Trim(addr[i+1:], "> ")
	}
	return "localhost"
}
