package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/followup-core/internal/entity"
	"github.com/xavierca1/followup-core/internal/usecase"
)

func newComplete(persons *MockPersonRepository, followUps *MockFollowUpRepository) *usecase.CompleteFollowUpUseCase {
	uc := usecase.NewCompleteFollowUpUseCase(persons, followUps, zerolog.Nop())
	uc.Now = clock
	return uc
}

func scheduledRecord() *entity.FollowUpRecord {
	return &entity.FollowUpRecord{
		ID: "f-1", TenantID: "t-1", PersonID: "p-1",
		Outcome: entity.OutcomeScheduledVisit, NextFollowUpDate: "2025-03-10",
	}
}

func TestCompleteFollowUpConnectedAdvancesStage(t *testing.T) {
	persons := new(MockPersonRepository)
	followUps := new(MockFollowUpRepository)

	followUps.On("FindByID", mock.Anything, "t-1", "f-1").Return(scheduledRecord(), nil)
	persons.On("FindByID", mock.Anything, "t-1", "p-1").Return(newMember(entity.StageSecondScheduled), nil)
	followUps.On("CompleteScheduled", mock.Anything, "t-1", "f-1", entity.OutcomeConnected, "good talk", fixedNow).Return(true, nil)
	persons.On("TransitionStage", mock.Anything, entity.StageTransition{
		PersonID: "p-1",
		TenantID: "t-1",
		From:     entity.StageSecondScheduled,
		To:       entity.StageSecondCompleted,
		At:       fixedNow,
	}).Return(true, nil)
	persons.On("UpdateStatus", mock.Anything, "t-1", "p-1", entity.StatusConnected, fixedNow).Return(nil)

	out, err := newComplete(persons, followUps).Execute(context.Background(), usecase.CompleteFollowUpInput{
		TenantID: "t-1", FollowUpID: "f-1", Outcome: "connected", Notes: " good talk ",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.StageSecondCompleted, out.Stage)
	assert.Equal(t, entity.StatusConnected, out.Status)
	persons.AssertExpectations(t)
}

func TestCompleteFollowUpNoResponseKeepsStage(t *testing.T) {
	persons := new(MockPersonRepository)
	followUps := new(MockFollowUpRepository)

	followUps.On("FindByID", mock.Anything, "t-1", "f-1").Return(scheduledRecord(), nil)
	persons.On("FindByID", mock.Anything, "t-1", "p-1").Return(newMember(entity.StageScheduled), nil)
	followUps.On("CompleteScheduled", mock.Anything, "t-1", "f-1", entity.OutcomeNoResponse, "", fixedNow).Return(true, nil)
	persons.On("UpdateStatus", mock.Anything, "t-1", "p-1", entity.StatusNoResponse, fixedNow).Return(nil)

	out, err := newComplete(persons, followUps).Execute(context.Background(), usecase.CompleteFollowUpInput{
		TenantID: "t-1", FollowUpID: "f-1", Outcome: "NO_RESPONSE",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.StageScheduled, out.Stage)
	persons.AssertNotCalled(t, "TransitionStage", mock.Anything, mock.Anything)
}

func TestCompleteFollowUpAlreadyCompleted(t *testing.T) {
	persons := new(MockPersonRepository)
	followUps := new(MockFollowUpRepository)

	done := scheduledRecord()
	done.Outcome = entity.OutcomeConnected
	followUps.On("FindByID", mock.Anything, "t-1", "f-1").Return(done, nil)

	_, err := newComplete(persons, followUps).Execute(context.Background(), usecase.CompleteFollowUpInput{
		TenantID: "t-1", FollowUpID: "f-1", Outcome: "CONNECTED",
	})

	var de *usecase.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, usecase.CodeFollowUpNotPending, de.Code)
}

func TestCompleteFollowUpLosesRace(t *testing.T) {
	persons := new(MockPersonRepository)
	followUps := new(MockFollowUpRepository)

	followUps.On("FindByID", mock.Anything, "t-1", "f-1").Return(scheduledRecord(), nil)
	persons.On("FindByID", mock.Anything, "t-1", "p-1").Return(newMember(entity.StageScheduled), nil)
	followUps.On("CompleteScheduled", mock.Anything, "t-1", "f-1", entity.OutcomeConnected, "", fixedNow).Return(false, nil)

	_, err := newComplete(persons, followUps).Execute(context.Background(), usecase.CompleteFollowUpInput{
		TenantID: "t-1", FollowUpID: "f-1", Outcome: "CONNECTED",
	})

	var de *usecase.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, usecase.CodeFollowUpNotPending, de.Code)
	persons.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteFollowUpRestoresRecordWhenStatusFails(t *testing.T) {
	persons := new(MockPersonRepository)
	followUps := new(MockFollowUpRepository)

	record := scheduledRecord()
	followUps.On("FindByID", mock.Anything, "t-1", "f-1").Return(record, nil)
	persons.On("FindByID", mock.Anything, "t-1", "p-1").Return(&entity.Person{ID: "p-1", TenantID: "t-1", Kind: entity.KindConvert}, nil)
	followUps.On("CompleteScheduled", mock.Anything, "t-1", "f-1", entity.OutcomeNeedsPrayer, "", fixedNow).Return(true, nil)
	persons.On("UpdateStatus", mock.Anything, "t-1", "p-1", entity.StatusNeedsPrayer, fixedNow).Return(errors.New("db gone"))
	followUps.On("Restore", mock.Anything, record, entity.OutcomeNeedsPrayer).Return(true, nil)

	_, err := newComplete(persons, followUps).Execute(context.Background(), usecase.CompleteFollowUpInput{
		TenantID: "t-1", FollowUpID: "f-1", Outcome: "NEEDS_PRAYER",
	})

	require.Error(t, err)
	assert.True(t, usecase.IsTechnicalError(err))
	followUps.AssertExpectations(t)
}

func TestCompleteFollowUpRevertsStageWhenStatusFails(t *testing.T) {
	persons := new(MockPersonRepository)
	followUps := new(MockFollowUpRepository)

	record := scheduledRecord()
	member := newMember(entity.StageScheduled)
	followUps.On("FindByID", mock.Anything, "t-1", "f-1").Return(record, nil)
	persons.On("FindByID", mock.Anything, "t-1", "p-1").Return(member, nil)
	followUps.On("CompleteScheduled", mock.Anything, "t-1", "f-1", entity.OutcomeConnected, "", fixedNow).Return(true, nil)
	persons.On("TransitionStage", mock.Anything, entity.StageTransition{
		PersonID: "p-1",
		TenantID: "t-1",
		From:     entity.StageScheduled,
		To:       entity.StageFirstCompleted,
		At:       fixedNow,
	}).Return(true, nil).Once()
	persons.On("TransitionStage", mock.Anything, entity.StageTransition{
		PersonID: "p-1",
		TenantID: "t-1",
		From:     entity.StageFirstCompleted,
		To:       entity.StageScheduled,
		At:       member.StageUpdatedAt,
	}).Return(true, nil).Once()
	persons.On("UpdateStatus", mock.Anything, "t-1", "p-1", entity.StatusConnected, fixedNow).Return(errors.New("db gone"))
	followUps.On("Restore", mock.Anything, record, entity.OutcomeConnected).Return(true, nil)

	_, err := newComplete(persons, followUps).Execute(context.Background(), usecase.CompleteFollowUpInput{
		TenantID: "t-1", FollowUpID: "f-1", Outcome: "CONNECTED",
	})

	require.Error(t, err)
	assert.True(t, usecase.IsTechnicalError(err))
	persons.AssertNumberOfCalls(t, "TransitionStage", 2)
	persons.AssertExpectations(t)
	followUps.AssertExpectations(t)
}

func TestCompleteFollowUpSkipsStageRevertWhenEdgeNotApplied(t *testing.T) {
	persons := new(MockPersonRepository)
	followUps := new(MockFollowUpRepository)

	record := scheduledRecord()
	followUps.On("FindByID", mock.Anything, "t-1", "f-1").Return(record, nil)
	persons.On("FindByID", mock.Anything, "t-1", "p-1").Return(newMember(entity.StageScheduled), nil)
	followUps.On("CompleteScheduled", mock.Anything, "t-1", "f-1", entity.OutcomeConnected, "", fixedNow).Return(true, nil)
	persons.On("TransitionStage", mock.Anything, mock.Anything).Return(false, nil).Once()
	persons.On("UpdateStatus", mock.Anything, "t-1", "p-1", entity.StatusConnected, fixedNow).Return(errors.New("db gone"))
	followUps.On("Restore", mock.Anything, record, entity.OutcomeConnected).Return(true, nil)

	_, err := newComplete(persons, followUps).Execute(context.Background(), usecase.CompleteFollowUpInput{
		TenantID: "t-1", FollowUpID: "f-1", Outcome: "CONNECTED",
	})

	require.Error(t, err)
	persons.AssertNumberOfCalls(t, "TransitionStage", 1)
	followUps.AssertExpectations(t)
}
