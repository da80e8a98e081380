package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xavierca1/followup-core/internal/entity"
)

var errFollowUpNotPending = errors.New("follow-up is no longer scheduled")

type CompleteFollowUpUseCase struct {
	Persons   entity.PersonRepositoryInterface
	FollowUps entity.FollowUpRepositoryInterface
	Now       Clock
	Logger    zerolog.Logger
}

func NewCompleteFollowUpUseCase(
	persons entity.PersonRepositoryInterface,
	followUps entity.FollowUpRepositoryInterface,
	logger zerolog.Logger,
) *CompleteFollowUpUseCase {
	return &CompleteFollowUpUseCase{
		Persons:   persons,
		FollowUps: followUps,
		Logger:    logger.With().Str("component", "complete_followup").Logger(),
	}
}

// Execute closes a scheduled visit. A CONNECTED outcome also advances a new
// member to the matching *_COMPLETED stage, which starts the 20 day clock
// for the next follow-up.
func (uc *CompleteFollowUpUseCase) Execute(ctx context.Context, input CompleteFollowUpInput) (*CompleteFollowUpOutput, error) {
	if errs := ValidateCompleteFollowUpInput(input); len(errs) > 0 {
		return nil, errs
	}
	outcome, _ := entity.ParseOutcome(input.Outcome)
	now := uc.Now.now()

	record, err := uc.FollowUps.FindByID(ctx, input.TenantID, input.FollowUpID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, domainErr(CodeFollowUpNotFound, "follow-up not found")
	}
	if err != nil {
		return nil, dbErr("failed to load follow-up", err)
	}
	if record.Outcome != entity.OutcomeScheduledVisit {
		return nil, domainErr(CodeFollowUpNotPending, "follow-up is not a scheduled visit")
	}

	person, err := uc.Persons.FindByID(ctx, input.TenantID, record.PersonID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, domainErr(CodePersonNotFound, "person not found")
	}
	if err != nil {
		return nil, dbErr("failed to load person", err)
	}

	out := &CompleteFollowUpOutput{
		FollowUpID: record.ID,
		Outcome:    outcome,
		Stage:      person.FollowUpStage,
		Status:     entity.StatusForOutcome(outcome),
	}
	tx := NewTransaction(uc.Logger)

	tx.AddOperation("complete_followup",
		func(ctx context.Context) error {
			ok, err := uc.FollowUps.CompleteScheduled(ctx, record.TenantID, record.ID, outcome, strings.TrimSpace(input.Notes), now)
			if err != nil {
				return err
			}
			if !ok {
				return errFollowUpNotPending
			}
			return nil
		},
		func(ctx context.Context) error {
			_, err := uc.FollowUps.Restore(ctx, record, outcome)
			return err
		},
	)

	if person.Kind == entity.KindNewMember && outcome == entity.OutcomeConnected {
		from := person.FollowUpStage
		if target, ok := from.Next(entity.TriggerConnected); ok {
			tx.AddOperation("transition_stage",
				func(ctx context.Context) error {
					applied, err := uc.Persons.TransitionStage(ctx, entity.StageTransition{
						PersonID: person.ID,
						TenantID: person.TenantID,
						From:     from,
						To:       target,
						At:       now,
					})
					if err != nil {
						return err
					}
					if applied {
						out.Stage = target
					} else {
						uc.Logger.Warn().Str("person_id", person.ID).Str("from", string(from)).
							Msg("stage changed concurrently, completion edge not applied")
					}
					return nil
				},
				func(ctx context.Context) error {
					if out.Stage != target {
						return nil
					}
					_, err := uc.Persons.TransitionStage(ctx, entity.StageTransition{
						PersonID: person.ID,
						TenantID: person.TenantID,
						From:     target,
						To:       from,
						At:       person.StageUpdatedAt,
					})
					return err
				},
			)
		} else {
			uc.Logger.Info().Str("person_id", person.ID).Str("stage", string(from)).
				Msg("no completion edge from current stage")
		}
	}

	tx.AddOperation("update_status",
		func(ctx context.Context) error {
			return uc.Persons.UpdateStatus(ctx, person.TenantID, person.ID, out.Status, now)
		},
		nil,
	)

	if err := tx.Execute(ctx); err != nil {
		if errors.Is(err, errFollowUpNotPending) {
			return nil, domainErr(CodeFollowUpNotPending, errFollowUpNotPending.Error())
		}
		return nil, dbErr("failed to complete follow-up", err)
	}

	uc.Logger.Info().
		Str("tenant_id", record.TenantID).
		Str("followup_id", record.ID).
		Str("outcome", string(outcome)).
		Str("stage", string(out.Stage)).
		Msg("follow-up completed")

	return out, nil
}
