package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xavierca1/followup-core/internal/entity"
	"github.com/xavierca1/followup-core/internal/infra/metrics"
)

// SendMessageUseCase is the quota-checked SMS/MMS dispatcher.
type SendMessageUseCase struct {
	Tenants  entity.TenantRepositoryInterface
	Quota    entity.QuotaRepositoryInterface
	Provider SMSProvider
	Now      Clock
	Logger   zerolog.Logger
}

func NewSendMessageUseCase(
	tenants entity.TenantRepositoryInterface,
	quota entity.QuotaRepositoryInterface,
	provider SMSProvider,
	logger zerolog.Logger,
) *SendMessageUseCase {
	return &SendMessageUseCase{
		Tenants:  tenants,
		Quota:    quota,
		Provider: provider,
		Logger:   logger.With().Str("component", "send_message").Logger(),
	}
}

// Execute sends one message if the tenant still has quota for the current
// period. Reaching the limit is reported through Status, not as an error.
func (uc *SendMessageUseCase) Execute(ctx context.Context, input SendMessageInput) (*SendMessageOutput, error) {
	if errs := ValidateSendMessageInput(input); len(errs) > 0 {
		return nil, errs
	}

	channel := entity.Channel(strings.ToLower(input.Channel))
	to, err := NormalizePhone(input.To)
	if err != nil {
		return nil, domainErr(CodeInvalidPhone, err.Error())
	}

	plan, err := uc.Tenants.GetPlan(ctx, input.TenantID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, domainErr(CodeTenantNotFound, "tenant not found")
	}
	if err != nil {
		return nil, dbErr("failed to load tenant plan", err)
	}

	now := uc.Now.now()
	period := entity.BillingPeriod(now)
	limit := entity.LimitsForPlan(plan).For(channel)

	usage, err := uc.Quota.GetUsage(ctx, input.TenantID, period)
	if err != nil {
		return nil, dbErr("failed to read quota usage", err)
	}

	out := &SendMessageOutput{
		Channel: channel,
		To:      to,
		Period:  period,
		Used:    usage.For(channel),
		Limit:   limit,
	}

	if out.Used >= limit {
		out.Status = MessageStatusQuotaExceeded
		metrics.RecordQuotaRefusal(string(channel))
		uc.Logger.Info().
			Str("tenant_id", input.TenantID).
			Str("channel", string(channel)).
			Int("used", out.Used).
			Int("limit", limit).
			Msg("quota exceeded, message not sent")
		return out, nil
	}

	var messageID string
	if channel == entity.ChannelMMS {
		messageID, err = uc.Provider.SendMMS(ctx, to, input.Body, input.MediaURL)
	} else {
		messageID, err = uc.Provider.SendSMS(ctx, to, input.Body)
	}
	if err != nil {
		metrics.RecordMessage(string(channel), MessageStatusFailed)
		metrics.RecordIntegrationError("sms")
		return nil, &TechnicalError{Code: CodeProvider, Message: "failed to send " + string(channel), Err: err}
	}

	out.Status = MessageStatusSent
	out.MessageID = messageID
	metrics.RecordMessage(string(channel), MessageStatusSent)

	used, err := uc.Quota.Increment(ctx, input.TenantID, period, channel, now)
	if err != nil {
		// The message is already out; the counter lags by one until fixed by hand.
		uc.Logger.Error().Err(err).
			Str("tenant_id", input.TenantID).
			Str("channel", string(channel)).
			Str("message_id", messageID).
			Msg("CRITICAL: message sent but quota increment failed")
		out.Used++
		return out, nil
	}
	out.Used = used

	return out, nil
}
