package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/xavierca1/followup-core/internal/entity"
	"github.com/xavierca1/followup-core/internal/infra/metrics"
)

// SendReminderUseCase delivers the day-before email at most once per record.
// The log row is written only after the provider confirms the send, so a
// failure leaves the record eligible for the next pass.
type SendReminderUseCase struct {
	Persons   entity.PersonRepositoryInterface
	FollowUps entity.FollowUpRepositoryInterface
	Log       entity.ReminderLogRepositoryInterface
	Mailer    ReminderMailer
	Location  *time.Location
	Now       Clock
	Logger    zerolog.Logger
}

func NewSendReminderUseCase(
	persons entity.PersonRepositoryInterface,
	followUps entity.FollowUpRepositoryInterface,
	log entity.ReminderLogRepositoryInterface,
	mailer ReminderMailer,
	location *time.Location,
	logger zerolog.Logger,
) *SendReminderUseCase {
	return &SendReminderUseCase{
		Persons:   persons,
		FollowUps: followUps,
		Log:       log,
		Mailer:    mailer,
		Location:  location,
		Logger:    logger.With().Str("component", "send_reminder").Logger(),
	}
}

// Execute sends the reminder for an already loaded record and returns one of
// the ReminderStatus values.
func (uc *SendReminderUseCase) Execute(ctx context.Context, item entity.FollowUpWithPerson) (string, error) {
	return uc.execute(ctx, item, uc.Now.now())
}

// execute decides "tomorrow" from asOf so a pass that crosses local midnight
// still sends what it selected.
func (uc *SendReminderUseCase) execute(ctx context.Context, item entity.FollowUpWithPerson, asOf time.Time) (string, error) {
	f, p := item.FollowUp, item.Person
	_, tomorrow := entity.LocalDates(asOf, uc.Location)

	if !f.DueTomorrow(tomorrow) {
		return ReminderStatusNotDue, nil
	}
	if p == nil || p.Email == "" {
		return ReminderStatusNoEmail, nil
	}

	sent, err := uc.Log.Exists(ctx, f.ID, entity.ReminderDayBefore)
	if err != nil {
		return "", dbErr("failed to check reminder log", err)
	}
	if sent {
		return ReminderStatusAlreadySent, nil
	}

	messageID, err := uc.Mailer.SendFollowUpReminder(ctx, ReminderEmail{
		To:        p.Email,
		Name:      p.FirstName,
		Date:      f.NextFollowUpDate,
		Time:      f.NextFollowUpTime,
		VideoLink: f.VideoLink,
	})
	if err != nil {
		metrics.RecordReminder(string(entity.ReminderDayBefore), "failed")
		metrics.RecordIntegrationError("smtp")
		return "", &TechnicalError{Code: CodeProvider, Message: "failed to send reminder email", Err: err}
	}
	metrics.RecordReminder(string(entity.ReminderDayBefore), "sent")

	inserted, err := uc.Log.Insert(ctx, entity.ReminderSentLog{
		FollowUpID:        f.ID,
		ReminderType:      entity.ReminderDayBefore,
		ProviderMessageID: messageID,
		SentAt:            uc.Now.now(),
	})
	if err != nil {
		// Sent but not logged: the next pass may send it again.
		uc.Logger.Error().Err(err).Str("followup_id", f.ID).Str("message_id", messageID).
			Msg("CRITICAL: reminder sent but log insert failed")
		return "", dbErr("failed to write reminder log", err)
	}
	if !inserted {
		uc.Logger.Warn().Str("followup_id", f.ID).Msg("reminder already logged by a concurrent sender")
	}

	uc.Logger.Info().
		Str("tenant_id", f.TenantID).
		Str("followup_id", f.ID).
		Str("message_id", messageID).
		Msg("day-before reminder sent")

	return ReminderStatusSent, nil
}

// ExecuteByID reloads the record and its person before sending. Used by the
// queue consumer, whose job may be stale by the time it runs.
func (uc *SendReminderUseCase) ExecuteByID(ctx context.Context, tenantID, followUpID string) (string, error) {
	f, err := uc.FollowUps.FindByID(ctx, tenantID, followUpID)
	if errors.Is(err, entity.ErrNotFound) {
		return "", domainErr(CodeFollowUpNotFound, "follow-up not found")
	}
	if err != nil {
		return "", dbErr("failed to load follow-up", err)
	}

	p, err := uc.Persons.FindByID(ctx, tenantID, f.PersonID)
	if errors.Is(err, entity.ErrNotFound) {
		return "", domainErr(CodePersonNotFound, "person not found")
	}
	if err != nil {
		return "", dbErr("failed to load person", err)
	}

	return uc.Execute(ctx, entity.FollowUpWithPerson{FollowUp: f, Person: p})
}

// DispatchDayBefore sends inline and satisfies the scheduler's dispatcher.
func (uc *SendReminderUseCase) DispatchDayBefore(ctx context.Context, item entity.FollowUpWithPerson, passTime time.Time) (bool, error) {
	status, err := uc.execute(ctx, item, passTime)
	if err != nil {
		return false, err
	}
	return status == ReminderStatusSent, nil
}
