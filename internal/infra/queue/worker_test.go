package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/followup-core/internal/entity"
)

// MockReminderSender
type MockReminderSender struct {
	mock.Mock
}

func (m *MockReminderSender) ExecuteByID(ctx context.Context, tenantID, followUpID string) (string, error) {
	args := m.Called(ctx, tenantID, followUpID)
	return args.String(0), args.Error(1)
}

// fakeAcknowledger records what the worker did with a delivery.
type fakeAcknowledger struct {
	acked, nacked, requeued bool
}

func (a *fakeAcknowledger) Ack(uint64, bool) error { a.acked = true; return nil }

func (a *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

func (a *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

func delivery(t *testing.T, ack amqp.Acknowledger, job any) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(job)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body, DeliveryTag: 1, MessageId: "f-1:DAY_BEFORE"}
}

func TestWorkerAcksSentReminder(t *testing.T) {
	sender := new(MockReminderSender)
	sender.On("ExecuteByID", mock.Anything, "t-1", "f-1").Return("SENT", nil)
	w := NewWorker(nil, sender, zerolog.Nop())
	ack := &fakeAcknowledger{}

	w.handle(context.Background(), delivery(t, ack, ReminderJob{
		TenantID: "t-1", FollowUpID: "f-1", ReminderType: entity.ReminderDayBefore,
	}))

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestWorkerDeadLettersFailedSend(t *testing.T) {
	sender := new(MockReminderSender)
	sender.On("ExecuteByID", mock.Anything, "t-1", "f-1").Return("", errors.New("smtp timeout"))
	w := NewWorker(nil, sender, zerolog.Nop())
	ack := &fakeAcknowledger{}

	w.handle(context.Background(), delivery(t, ack, ReminderJob{
		TenantID: "t-1", FollowUpID: "f-1", ReminderType: entity.ReminderDayBefore,
	}))

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
	assert.False(t, ack.acked)
}

func TestWorkerRejectsMalformedJobs(t *testing.T) {
	sender := new(MockReminderSender)
	w := NewWorker(nil, sender, zerolog.Nop())

	_, err := w.process(context.Background(), []byte("{not json"))
	assert.ErrorIs(t, err, errMalformedJob)

	_, err = w.process(context.Background(), []byte(`{"tenant_id":"t-1","followup_id":"f-1","reminder_type":"WEEK_BEFORE"}`))
	assert.ErrorIs(t, err, errMalformedJob)

	sender.AssertNotCalled(t, "ExecuteByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestHealthyIsNilSafe(t *testing.T) {
	var r *RabbitMQ
	assert.False(t, r.Healthy())
}

func TestWorkerSkipsDuplicateJobInFlight(t *testing.T) {
	sender := new(MockReminderSender)
	sender.On("ExecuteByID", mock.Anything, "t-1", "f-1").Return("SENT", nil).Once()
	w := NewWorker(nil, sender, zerolog.Nop())
	job := ReminderJob{TenantID: "t-1", FollowUpID: "f-1", ReminderType: entity.ReminderDayBefore}

	require.True(t, w.claim("f-1:DAY_BEFORE"))
	dup := &fakeAcknowledger{}
	w.handle(context.Background(), delivery(t, dup, job))

	assert.True(t, dup.acked)
	sender.AssertNotCalled(t, "ExecuteByID", mock.Anything, mock.Anything, mock.Anything)

	w.release("f-1:DAY_BEFORE")
	ack := &fakeAcknowledger{}
	w.handle(context.Background(), delivery(t, ack, job))

	assert.True(t, ack.acked)
	sender.AssertNumberOfCalls(t, "ExecuteByID", 1)
	assert.Empty(t, w.inFlight)
}
