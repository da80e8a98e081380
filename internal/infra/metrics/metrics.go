package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ruleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followup_rule_transitions_total",
			Help: "Records changed by scheduler rules",
		},
		[]string{"rule"},
	)

	ruleFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followup_rule_failures_total",
			Help: "Per-record failures while applying scheduler rules",
		},
		[]string{"rule"},
	)

	schedulerPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followup_scheduler_passes_total",
			Help: "Scheduler passes by result",
		},
		[]string{"result"},
	)

	remindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followup_reminders_total",
			Help: "Day-before reminder attempts by status",
		},
		[]string{"type", "status"},
	)

	messagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followup_messages_total",
			Help: "Outbound SMS/MMS by channel and status",
		},
		[]string{"channel", "status"},
	)

	quotaRefusals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followup_quota_refusals_total",
			Help: "Sends refused because the tenant reached its monthly limit",
		},
		[]string{"channel"},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)
)

func RecordRuleTransition(rule string) {
	ruleTransitions.WithLabelValues(rule).Inc()
}

func RecordRuleFailure(rule string) {
	ruleFailures.WithLabelValues(rule).Inc()
}

func RecordSchedulerPass(result string) {
	schedulerPasses.WithLabelValues(result).Inc()
}

func RecordReminder(reminderType, status string) {
	remindersSent.WithLabelValues(reminderType, status).Inc()
}

func RecordMessage(channel, status string) {
	messagesSent.WithLabelValues(channel, status).Inc()
}

func RecordQuotaRefusal(channel string) {
	quotaRefusals.WithLabelValues(channel).Inc()
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}
