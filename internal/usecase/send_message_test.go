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

func newSendMessage(tenants *MockTenantRepository, quota *MockQuotaRepository, provider *MockSMSProvider) *usecase.SendMessageUseCase {
	uc := usecase.NewSendMessageUseCase(tenants, quota, provider, zerolog.Nop())
	uc.Now = clock
	return uc
}

func smsInput() usecase.SendMessageInput {
	return usecase.SendMessageInput{
		TenantID: "t-1",
		Channel:  "sms",
		To:       "(555) 123-4567",
		Body:     "See you tomorrow",
	}
}

// TestSendMessageRefusesAtLimit - the counter must stay put and the provider untouched
func TestSendMessageRefusesAtLimit(t *testing.T) {
	tenants := new(MockTenantRepository)
	quota := new(MockQuotaRepository)
	provider := new(MockSMSProvider)

	tenants.On("GetPlan", mock.Anything, "t-1").Return("starter", nil)
	quota.On("GetUsage", mock.Anything, "t-1", "2025-03").Return(entity.Usage{SMS: 500}, nil)

	out, err := newSendMessage(tenants, quota, provider).Execute(context.Background(), smsInput())

	require.NoError(t, err)
	assert.Equal(t, usecase.MessageStatusQuotaExceeded, out.Status)
	assert.Equal(t, 500, out.Used)
	assert.Equal(t, 500, out.Limit)
	provider.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
	quota.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageSendsLastAllowedMessage(t *testing.T) {
	tenants := new(MockTenantRepository)
	quota := new(MockQuotaRepository)
	provider := new(MockSMSProvider)

	tenants.On("GetPlan", mock.Anything, "t-1").Return("starter", nil)
	quota.On("GetUsage", mock.Anything, "t-1", "2025-03").Return(entity.Usage{SMS: 499}, nil)
	provider.On("SendSMS", mock.Anything, "+15551234567", "See you tomorrow").Return("SM123", nil)
	quota.On("Increment", mock.Anything, "t-1", "2025-03", entity.ChannelSMS, fixedNow).Return(500, nil)

	out, err := newSendMessage(tenants, quota, provider).Execute(context.Background(), smsInput())

	require.NoError(t, err)
	assert.Equal(t, usecase.MessageStatusSent, out.Status)
	assert.Equal(t, "SM123", out.MessageID)
	assert.Equal(t, 500, out.Used)
	quota.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestSendMessageFreePlanCannotSend(t *testing.T) {
	tenants := new(MockTenantRepository)
	quota := new(MockQuotaRepository)
	provider := new(MockSMSProvider)

	tenants.On("GetPlan", mock.Anything, "t-1").Return("free", nil)
	quota.On("GetUsage", mock.Anything, "t-1", "2025-03").Return(entity.Usage{}, nil)

	in := smsInput()
	in.Channel = "MMS"
	in.MediaURL = "https://example.com/card.png"
	out, err := newSendMessage(tenants, quota, provider).Execute(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, usecase.MessageStatusQuotaExceeded, out.Status)
	assert.Equal(t, entity.ChannelMMS, out.Channel)
	provider.AssertNotCalled(t, "SendMMS", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageProviderFailureLeavesCounter(t *testing.T) {
	tenants := new(MockTenantRepository)
	quota := new(MockQuotaRepository)
	provider := new(MockSMSProvider)

	tenants.On("GetPlan", mock.Anything, "t-1").Return("growth", nil)
	quota.On("GetUsage", mock.Anything, "t-1", "2025-03").Return(entity.Usage{SMS: 10}, nil)
	provider.On("SendSMS", mock.Anything, "+15551234567", "See you tomorrow").Return("", errors.New("gateway down"))

	_, err := newSendMessage(tenants, quota, provider).Execute(context.Background(), smsInput())

	require.Error(t, err)
	assert.True(t, usecase.IsTechnicalError(err))
	quota.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageIncrementFailureStillReportsSent(t *testing.T) {
	tenants := new(MockTenantRepository)
	quota := new(MockQuotaRepository)
	provider := new(MockSMSProvider)

	tenants.On("GetPlan", mock.Anything, "t-1").Return("growth", nil)
	quota.On("GetUsage", mock.Anything, "t-1", "2025-03").Return(entity.Usage{SMS: 10}, nil)
	provider.On("SendSMS", mock.Anything, "+15551234567", "See you tomorrow").Return("SM9", nil)
	quota.On("Increment", mock.Anything, "t-1", "2025-03", entity.ChannelSMS, fixedNow).Return(0, errors.New("db gone"))

	out, err := newSendMessage(tenants, quota, provider).Execute(context.Background(), smsInput())

	require.NoError(t, err)
	assert.Equal(t, usecase.MessageStatusSent, out.Status)
	assert.Equal(t, 11, out.Used)
}

func TestSendMessageInputErrors(t *testing.T) {
	tenants := new(MockTenantRepository)
	quota := new(MockQuotaRepository)
	provider := new(MockSMSProvider)
	uc := newSendMessage(tenants, quota, provider)

	in := smsInput()
	in.To = "123"
	_, err := uc.Execute(context.Background(), in)
	var de *usecase.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, usecase.CodeInvalidPhone, de.Code)

	tenants.On("GetPlan", mock.Anything, "ghost").Return("", entity.ErrNotFound)
	in = smsInput()
	in.TenantID = "ghost"
	_, err = uc.Execute(context.Background(), in)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, usecase.CodeTenantNotFound, de.Code)
}

func TestGetUsageDefaultsToCurrentPeriod(t *testing.T) {
	tenants := new(MockTenantRepository)
	quota := new(MockQuotaRepository)

	tenants.On("GetPlan", mock.Anything, "t-1").Return("ministry", nil)
	quota.On("GetUsage", mock.Anything, "t-1", "2025-03").Return(entity.Usage{TenantID: "t-1", Period: "2025-03", SMS: 42}, nil)

	uc := usecase.NewGetUsageUseCase(tenants, quota)
	uc.Now = clock
	out, err := uc.Execute(context.Background(), "t-1", "")

	require.NoError(t, err)
	assert.Equal(t, "2025-03", out.Period)
	assert.Equal(t, 42, out.Used.SMS)
	assert.Equal(t, 5000, out.Limits.SMS)
}
