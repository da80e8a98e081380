package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/followup-core/internal/entity"
	"github.com/xavierca1/followup-core/internal/usecase"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// MockPersonRepository
type MockPersonRepository struct {
	mock.Mock
}

func (m *MockPersonRepository) Create(ctx context.Context, p *entity.Person) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPersonRepository) FindByID(ctx context.Context, tenantID, id string) (*entity.Person, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Person), args.Error(1)
}

func (m *MockPersonRepository) Delete(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockPersonRepository) ListNewConvertsWithoutFollowUps(ctx context.Context, createdBefore time.Time) ([]*entity.Person, error) {
	args := m.Called(ctx, createdBefore)
	return args.Get(0).([]*entity.Person), args.Error(1)
}

func (m *MockPersonRepository) ListNewMembersInStage(ctx context.Context, stage entity.Stage) ([]*entity.Person, error) {
	args := m.Called(ctx, stage)
	return args.Get(0).([]*entity.Person), args.Error(1)
}

func (m *MockPersonRepository) MarkNeverContacted(ctx context.Context, id string, createdBefore, now time.Time) (bool, error) {
	args := m.Called(ctx, id, createdBefore, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockPersonRepository) TransitionStage(ctx context.Context, t entity.StageTransition) (bool, error) {
	args := m.Called(ctx, t)
	return args.Bool(0), args.Error(1)
}

func (m *MockPersonRepository) UpdateStatus(ctx context.Context, tenantID, id string, status entity.PersonStatus, now time.Time) error {
	args := m.Called(ctx, tenantID, id, status, now)
	return args.Error(0)
}

// MockFollowUpRepository
type MockFollowUpRepository struct {
	mock.Mock
}

func (m *MockFollowUpRepository) Create(ctx context.Context, f *entity.FollowUpRecord) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockFollowUpRepository) FindByID(ctx context.Context, tenantID, id string) (*entity.FollowUpRecord, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.FollowUpRecord), args.Error(1)
}

func (m *MockFollowUpRepository) Delete(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockFollowUpRepository) ListByPerson(ctx context.Context, tenantID, personID string) ([]*entity.FollowUpRecord, error) {
	args := m.Called(ctx, tenantID, personID)
	return args.Get(0).([]*entity.FollowUpRecord), args.Error(1)
}

func (m *MockFollowUpRepository) ListScheduledBefore(ctx context.Context, date string) ([]*entity.FollowUpRecord, error) {
	args := m.Called(ctx, date)
	return args.Get(0).([]*entity.FollowUpRecord), args.Error(1)
}

func (m *MockFollowUpRepository) ListScheduledOn(ctx context.Context, date string) ([]entity.FollowUpWithPerson, error) {
	args := m.Called(ctx, date)
	return args.Get(0).([]entity.FollowUpWithPerson), args.Error(1)
}

func (m *MockFollowUpRepository) ExpireIfOverdue(ctx context.Context, id, today string, now time.Time) (bool, error) {
	args := m.Called(ctx, id, today, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowUpRepository) CompleteScheduled(ctx context.Context, tenantID, id string, outcome entity.Outcome, notes string, now time.Time) (bool, error) {
	args := m.Called(ctx, tenantID, id, outcome, notes, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowUpRepository) Restore(ctx context.Context, f *entity.FollowUpRecord, from entity.Outcome) (bool, error) {
	args := m.Called(ctx, f, from)
	return args.Bool(0), args.Error(1)
}

// MockTenantRepository
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, t *entity.Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTenantRepository) GetPlan(ctx context.Context, tenantID string) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockQuotaRepository
type MockQuotaRepository struct {
	mock.Mock
}

func (m *MockQuotaRepository) GetUsage(ctx context.Context, tenantID, period string) (entity.Usage, error) {
	args := m.Called(ctx, tenantID, period)
	return args.Get(0).(entity.Usage), args.Error(1)
}

func (m *MockQuotaRepository) Increment(ctx context.Context, tenantID, period string, channel entity.Channel, now time.Time) (int, error) {
	args := m.Called(ctx, tenantID, period, channel, now)
	return args.Int(0), args.Error(1)
}

// MockReminderLog
type MockReminderLog struct {
	mock.Mock
}

func (m *MockReminderLog) Exists(ctx context.Context, followUpID string, rt entity.ReminderType) (bool, error) {
	args := m.Called(ctx, followUpID, rt)
	return args.Bool(0), args.Error(1)
}

func (m *MockReminderLog) Insert(ctx context.Context, log entity.ReminderSentLog) (bool, error) {
	args := m.Called(ctx, log)
	return args.Bool(0), args.Error(1)
}

// MockSMSProvider
type MockSMSProvider struct {
	mock.Mock
}

func (m *MockSMSProvider) SendSMS(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

func (m *MockSMSProvider) SendMMS(ctx context.Context, to, body, mediaURL string) (string, error) {
	args := m.Called(ctx, to, body, mediaURL)
	return args.String(0), args.Error(1)
}

// MockMailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendFollowUpReminder(ctx context.Context, data usecase.ReminderEmail) (string, error) {
	args := m.Called(ctx, data)
	return args.String(0), args.Error(1)
}

// MockMessageSender
type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) Execute(ctx context.Context, input usecase.SendMessageInput) (*usecase.SendMessageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.SendMessageOutput), args.Error(1)
}

func newMember(stage entity.Stage) *entity.Person {
	return &entity.Person{
		ID:             "p-1",
		TenantID:       "t-1",
		Kind:           entity.KindNewMember,
		FirstName:      "Ana",
		Email:          "ana@example.com",
		Phone:          "+15551234567",
		Status:         entity.StatusNew,
		FollowUpStage:  stage,
		StageUpdatedAt: fixedNow.Add(-48 * time.Hour),
		CreatedAt:      fixedNow.Add(-72 * time.Hour),
	}
}
