package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/xavierca1/followup-core/internal/entity"
)

// ReminderJob asks the consumer to deliver one reminder.
type ReminderJob struct {
	TenantID     string              `json:"tenant_id"`
	FollowUpID   string              `json:"followup_id"`
	ReminderType entity.ReminderType `json:"reminder_type"`
}

type RabbitMQProducer struct {
	Ch *amqp.Channel
}

func NewProducer(ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishReminder(ctx context.Context, job ReminderJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode reminder job: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    job.FollowUpID + ":" + string(job.ReminderType),
		},
	)
	if err != nil {
		return fmt.Errorf("publish reminder job: %w", err)
	}
	return nil
}

// DispatchDayBefore queues the reminder instead of sending it inline.
func (p *RabbitMQProducer) DispatchDayBefore(ctx context.Context, item entity.FollowUpWithPerson, _ time.Time) (bool, error) {
	job := ReminderJob{
		TenantID:     item.FollowUp.TenantID,
		FollowUpID:   item.FollowUp.ID,
		ReminderType: entity.ReminderDayBefore,
	}
	if err := p.PublishReminder(ctx, job); err != nil {
		return false, err
	}
	return true, nil
}
