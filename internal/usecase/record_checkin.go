package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xavierca1/followup-core/internal/entity"
)

type RecordCheckinUseCase struct {
	Persons   entity.PersonRepositoryInterface
	FollowUps entity.FollowUpRepositoryInterface
	Now       Clock
	Logger    zerolog.Logger
}

func NewRecordCheckinUseCase(
	persons entity.PersonRepositoryInterface,
	followUps entity.FollowUpRepositoryInterface,
	logger zerolog.Logger,
) *RecordCheckinUseCase {
	return &RecordCheckinUseCase{
		Persons:   persons,
		FollowUps: followUps,
		Logger:    logger.With().Str("component", "record_checkin").Logger(),
	}
}

// Execute stores an unscheduled contact. The person's status only changes
// when StatusUpdate is given; stages are never touched here.
func (uc *RecordCheckinUseCase) Execute(ctx context.Context, input RecordCheckinInput) (*entity.FollowUpRecord, error) {
	if errs := ValidateRecordCheckinInput(input); len(errs) > 0 {
		return nil, errs
	}
	outcome, _ := entity.ParseOutcome(input.Outcome)
	now := uc.Now.now()

	if _, err := uc.Persons.FindByID(ctx, input.TenantID, input.PersonID); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, domainErr(CodePersonNotFound, "person not found")
		}
		return nil, dbErr("failed to load person", err)
	}

	record := entity.NewFollowUpRecord(input.TenantID, input.PersonID, outcome, entity.NotifyEmail, now)
	record.Notes = strings.TrimSpace(input.Notes)

	if err := uc.FollowUps.Create(ctx, record); err != nil {
		return nil, dbErr("failed to save checkin", err)
	}

	if input.StatusUpdate != "" {
		status, _ := entity.ParsePersonStatus(input.StatusUpdate)
		if err := uc.Persons.UpdateStatus(ctx, input.TenantID, input.PersonID, status, now); err != nil {
			return nil, dbErr("failed to update person status", err)
		}
	}

	uc.Logger.Info().
		Str("tenant_id", input.TenantID).
		Str("person_id", input.PersonID).
		Str("followup_id", record.ID).
		Str("outcome", string(outcome)).
		Msg("checkin recorded")

	return record, nil
}
