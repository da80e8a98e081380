package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xavierca1/followup-core/internal/entity"
)

var errStageNotAllowed = errors.New("stage transition not allowed")

type ScheduleFollowUpUseCase struct {
	Persons   entity.PersonRepositoryInterface
	FollowUps entity.FollowUpRepositoryInterface
	Messages  MessageSender
	Location  *time.Location
	Now       Clock
	Logger    zerolog.Logger
}

func NewScheduleFollowUpUseCase(
	persons entity.PersonRepositoryInterface,
	followUps entity.FollowUpRepositoryInterface,
	messages MessageSender,
	location *time.Location,
	logger zerolog.Logger,
) *ScheduleFollowUpUseCase {
	return &ScheduleFollowUpUseCase{
		Persons:   persons,
		FollowUps: followUps,
		Messages:  messages,
		Location:  location,
		Logger:    logger.With().Str("component", "schedule_followup").Logger(),
	}
}

// Execute creates a SCHEDULED_VISIT record and moves the person along. The
// steps run as a saga: if the person can no longer be moved, the new record
// is deleted and any superseded visit is put back.
func (uc *ScheduleFollowUpUseCase) Execute(ctx context.Context, input ScheduleFollowUpInput) (*ScheduleFollowUpOutput, error) {
	now := uc.Now.now()
	today, _ := entity.LocalDates(now, uc.Location)

	if errs := ValidateScheduleFollowUpInput(input, today); len(errs) > 0 {
		return nil, errs
	}
	method, _ := entity.ParseNotificationMethod(input.NotificationMethod)

	person, err := uc.Persons.FindByID(ctx, input.TenantID, input.PersonID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, domainErr(CodePersonNotFound, "person not found")
	}
	if err != nil {
		return nil, dbErr("failed to load person", err)
	}

	existing, err := uc.FollowUps.ListByPerson(ctx, input.TenantID, input.PersonID)
	if err != nil {
		return nil, dbErr("failed to load follow-ups", err)
	}

	record := entity.NewFollowUpRecord(input.TenantID, input.PersonID, entity.OutcomeScheduledVisit, method, now)
	record.NextFollowUpDate = input.Date
	record.NextFollowUpTime = input.Time
	record.VideoLink = input.VideoLink
	record.Notes = input.Notes
	if err := record.Validate(); err != nil {
		return nil, domainErr(CodeValidation, err.Error())
	}

	out := &ScheduleFollowUpOutput{FollowUp: record, Status: entity.StatusScheduled}
	tx := NewTransaction(uc.Logger)

	tx.AddOperation("create_followup",
		func(ctx context.Context) error { return uc.FollowUps.Create(ctx, record) },
		func(ctx context.Context) error { return uc.FollowUps.Delete(ctx, record.TenantID, record.ID) },
	)

	// A person has at most one pending visit; scheduling again supersedes it.
	for _, prev := range existing {
		if !prev.Pending(today) {
			continue
		}
		tx.AddOperation("supersede_followup",
			func(ctx context.Context) error {
				_, err := uc.FollowUps.CompleteScheduled(ctx, prev.TenantID, prev.ID, entity.OutcomeNotCompleted, "rescheduled", now)
				return err
			},
			func(ctx context.Context) error {
				_, err := uc.FollowUps.Restore(ctx, prev, entity.OutcomeNotCompleted)
				return err
			},
		)
	}

	if person.Kind == entity.KindNewMember {
		from := person.FollowUpStage
		tx.AddOperation("transition_stage",
			func(ctx context.Context) error {
				target, ok := from.Next(entity.TriggerSchedule)
				if !ok {
					return fmt.Errorf("%w: %s cannot be scheduled", errStageNotAllowed, from)
				}
				tracker := person.StageTracker()
				if _, changed := tracker.ApplyManualTransition(target, now); !changed {
					return fmt.Errorf("%w: %s -> %s", errStageNotAllowed, from, target)
				}
				applied, err := uc.Persons.TransitionStage(ctx, entity.StageTransition{
					PersonID:      person.ID,
					TenantID:      person.TenantID,
					From:          from,
					To:            target,
					At:            now,
					EnteredBefore: person.StageUpdatedAt,
				})
				if err != nil {
					return err
				}
				if !applied {
					return fmt.Errorf("%w: stage changed concurrently", errStageNotAllowed)
				}
				out.Stage = target
				return nil
			},
			func(ctx context.Context) error {
				_, err := uc.Persons.TransitionStage(ctx, entity.StageTransition{
					PersonID: person.ID,
					TenantID: person.TenantID,
					From:     out.Stage,
					To:       from,
					At:       person.StageUpdatedAt,
				})
				return err
			},
		)
	}

	tx.AddOperation("update_status",
		func(ctx context.Context) error {
			return uc.Persons.UpdateStatus(ctx, person.TenantID, person.ID, entity.StatusScheduled, now)
		},
		nil,
	)

	if err := tx.Execute(ctx); err != nil {
		if errors.Is(err, errStageNotAllowed) {
			return nil, domainErr(CodeInvalidTransition, err.Error())
		}
		return nil, dbErr("failed to schedule follow-up", err)
	}

	uc.Logger.Info().
		Str("tenant_id", record.TenantID).
		Str("person_id", person.ID).
		Str("followup_id", record.ID).
		Str("date", record.NextFollowUpDate).
		Msg("follow-up scheduled")

	if method == entity.NotifySMS || method == entity.NotifyMMS {
		out.Notification = uc.confirm(ctx, person, record)
	}

	return out, nil
}

// confirm texts the person about the new visit. Its outcome is reported, not
// returned as an error.
func (uc *ScheduleFollowUpUseCase) confirm(ctx context.Context, person *entity.Person, record *entity.FollowUpRecord) *NotificationResult {
	channel := entity.Channel(record.NotificationMethod)
	result := &NotificationResult{Channel: channel}

	if person.Phone == "" {
		result.Status = MessageStatusSkipped
		result.Error = "person has no phone number"
		return result
	}

	body := fmt.Sprintf("Hi %s, your follow-up visit is scheduled for %s", person.FirstName, record.NextFollowUpDate)
	if record.NextFollowUpTime != "" {
		body += " at " + record.NextFollowUpTime
	}
	body += "."
	if record.VideoLink != "" {
		body += " Join here: " + record.VideoLink
	}

	msg, err := uc.Messages.Execute(ctx, SendMessageInput{
		TenantID: record.TenantID,
		Channel:  string(channel),
		To:       person.Phone,
		Body:     body,
	})
	if err != nil {
		uc.Logger.Warn().Err(err).Str("followup_id", record.ID).Msg("scheduling confirmation not sent")
		result.Status = MessageStatusFailed
		result.Error = err.Error()
		return result
	}

	result.Status = msg.Status
	result.MessageID = msg.MessageID
	return result
}
