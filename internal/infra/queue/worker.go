package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/xavierca1/followup-core/internal/entity"
)

var errMalformedJob = errors.New("malformed reminder job")

// ReminderSender performs the send for a queued job.
type ReminderSender interface {
	ExecuteByID(ctx context.Context, tenantID, followUpID string) (string, error)
}

type Worker struct {
	Channel *amqp.Channel
	Sender  ReminderSender
	Logger  zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewWorker(ch *amqp.Channel, sender ReminderSender, logger zerolog.Logger) *Worker {
	return &Worker{
		Channel:  ch,
		Sender:   sender,
		Logger:   logger.With().Str("component", "reminder_worker").Logger(),
		inFlight: make(map[string]struct{}),
	}
}

// Start consumes queueName until ctx is done or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	// One unacked job at a time: a duplicate job then sees the log row
	// written by the first and reports ALREADY_SENT.
	if err := w.Channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	w.Logger.Info().Str("queue", queueName).Msg("[*] reminder worker waiting for jobs")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	if !w.claim(d.MessageId) {
		w.Logger.Warn().Str("message_id", d.MessageId).Msg("⚠️ duplicate reminder job already in flight, skipping")
		d.Ack(false)
		return
	}
	defer w.release(d.MessageId)

	status, err := w.process(ctx, d.Body)
	if err != nil {
		// Failed sends are not requeued; the next scheduler pass publishes again.
		w.Logger.Error().Err(err).Str("message_id", d.MessageId).Msg("❌ reminder job failed")
		d.Nack(false, false)
		return
	}
	w.Logger.Info().Str("message_id", d.MessageId).Str("status", status).Msg("✅ reminder job done")
	d.Ack(false)
}

func (w *Worker) process(ctx context.Context, body []byte) (string, error) {
	var job ReminderJob
	if err := json.Unmarshal(body, &job); err != nil {
		return "", fmt.Errorf("%w: %v", errMalformedJob, err)
	}
	if job.TenantID == "" || job.FollowUpID == "" || job.ReminderType != entity.ReminderDayBefore {
		return "", errMalformedJob
	}
	return w.Sender.ExecuteByID(ctx, job.TenantID, job.FollowUpID)
}

// claim reserves a message id for this worker. Jobs without an id are never
// treated as duplicates.
func (w *Worker) claim(id string) bool {
	if id == "" {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, busy := w.inFlight[id]; busy {
		return false
	}
	w.inFlight[id] = struct{}{}
	return true
}

func (w *Worker) release(id string) {
	if id == "" {
		return
	}
	w.mu.Lock()
	delete(w.inFlight, id)
	w.mu.Unlock()
}
