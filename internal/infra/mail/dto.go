package mail

import "time"

type ReminderEmailData struct {
	Name      string
	Date      string
	Time      string
	VideoLink string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
}
