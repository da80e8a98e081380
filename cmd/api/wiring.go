package main

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/xavierca1/followup-core/internal/config"
	"github.com/xavierca1/followup-core/internal/infra/database"
	"github.com/xavierca1/followup-core/internal/infra/http/handlers"
	"github.com/xavierca1/followup-core/internal/infra/integration/sms"
	"github.com/xavierca1/followup-core/internal/infra/mail"
	"github.com/xavierca1/followup-core/internal/infra/worker"
	"github.com/xavierca1/followup-core/internal/rules"
	"github.com/xavierca1/followup-core/internal/usecase"
)

// app holds everything main starts: repositories, providers and use cases.
type app struct {
	conn     *database.Conn
	location *time.Location
	logger   zerolog.Logger

	persons     *database.PersonRepository
	followUps   *database.FollowUpRepository
	reminderLog *database.ReminderLogRepository
	leases      *database.LeaseRepository

	sendMessage  *usecase.SendMessageUseCase
	sendReminder *usecase.SendReminderUseCase
	createPerson *usecase.CreatePersonUseCase
	schedule     *usecase.ScheduleFollowUpUseCase
	complete     *usecase.CompleteFollowUpUseCase
	checkin      *usecase.RecordCheckinUseCase
	usage        *usecase.GetUsageUseCase
}

func newApp(cfg *config.Config, conn *database.Conn, loc *time.Location, logger zerolog.Logger) *app {
	// 1. Repositories
	personRepo := database.NewPersonRepository(conn)
	followUpRepo := database.NewFollowUpRepository(conn)
	tenantRepo := database.NewTenantRepository(conn)
	quotaRepo := database.NewQuotaRepository(conn)
	reminderLogRepo := database.NewReminderLogRepository(conn)

	// 2. Providers
	mailSender := mail.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom, cfg.ProviderTimeout)
	smsClient := sms.NewClient(cfg.SMSBaseURL, cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSFromNumber, cfg.ProviderTimeout)

	// 3. Use cases
	sendMessageUC := usecase.NewSendMessageUseCase(tenantRepo, quotaRepo, smsClient, logger)

	return &app{
		conn:        conn,
		location:    loc,
		logger:      logger,
		persons:     personRepo,
		followUps:   followUpRepo,
		reminderLog: reminderLogRepo,
		leases:      database.NewLeaseRepository(conn),

		sendMessage:  sendMessageUC,
		sendReminder: usecase.NewSendReminderUseCase(personRepo, followUpRepo, reminderLogRepo, mailSender, loc, logger),
		createPerson: usecase.NewCreatePersonUseCase(personRepo, tenantRepo, logger),
		schedule:     usecase.NewScheduleFollowUpUseCase(personRepo, followUpRepo, sendMessageUC, loc, logger),
		complete:     usecase.NewCompleteFollowUpUseCase(personRepo, followUpRepo, logger),
		checkin:      usecase.NewRecordCheckinUseCase(personRepo, followUpRepo, logger),
		usage:        usecase.NewGetUsageUseCase(tenantRepo, quotaRepo),
	}
}

func (a *app) scheduler(dispatcher rules.Dispatcher, interval time.Duration) *worker.RuleScheduler {
	engine := rules.NewEngine(a.persons, a.followUps, a.reminderLog, dispatcher, a.location, a.logger)
	return worker.NewRuleScheduler(engine, a.leases, interval, a.logger)
}

func (a *app) router(allowedOrigins []string, queueHealth handlers.QueueHealth) http.Handler {
	return handlers.NewRouter(handlers.RouterConfig{
		AllowedOrigins: allowedOrigins,
		Persons:        handlers.NewPersonHandler(a.createPerson),
		FollowUps:      handlers.NewFollowUpHandler(a.schedule, a.complete, a.checkin),
		Messages:       handlers.NewMessageHandler(a.sendMessage, a.usage),
		Health:         handlers.NewHealthHandler(a.conn.DB, queueHealth),
	})
}
