package rules

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/xavierca1/followup-core/internal/entity"
	"github.com/xavierca1/followup-core/internal/infra/metrics"
)

const (
	RuleExpireOverdue     = "expire_overdue"
	RuleNeverContacted    = "never_contacted"
	RuleNewMemberContact  = "new_member_contact"
	RuleSecondFollowUp    = "second_followup"
	RuleFinalFollowUp     = "final_followup"
	RuleDayBeforeReminder = "day_before_reminder"
)

// NeverContactedAfter is how old a convert with no follow-ups must be before
// being flagged.
const NeverContactedAfter = 30 * 24 * time.Hour

// Dispatcher hands a day-before reminder off for delivery. It returns true
// when the reminder was sent (or queued for sending). now is the pass time
// the candidate was selected with.
type Dispatcher interface {
	DispatchDayBefore(ctx context.Context, item entity.FollowUpWithPerson, now time.Time) (bool, error)
}

// Report summarises one check of one pass.
type Report struct {
	Rule       string `json:"rule"`
	Candidates int    `json:"candidates"`
	Applied    int    `json:"applied"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Err        error  `json:"-"`
}

// Check is a single named rule.
type Check struct {
	Name string
	Run  func(ctx context.Context, now time.Time) (Report, error)
}

// Engine evaluates the time-driven rules. Every mutation it issues is a
// conditional write, so running a pass twice changes nothing the second time.
type Engine struct {
	persons    entity.PersonRepositoryInterface
	followUps  entity.FollowUpRepositoryInterface
	reminders  entity.ReminderLogRepositoryInterface
	dispatcher Dispatcher
	location   *time.Location
	logger     zerolog.Logger
}

func NewEngine(
	persons entity.PersonRepositoryInterface,
	followUps entity.FollowUpRepositoryInterface,
	reminders entity.ReminderLogRepositoryInterface,
	dispatcher Dispatcher,
	location *time.Location,
	logger zerolog.Logger,
) *Engine {
	if location == nil {
		location = time.UTC
	}
	return &Engine{
		persons:    persons,
		followUps:  followUps,
		reminders:  reminders,
		dispatcher: dispatcher,
		location:   location,
		logger:     logger.With().Str("component", "rules").Logger(),
	}
}

// Checks returns the rules in the order a pass runs them.
func (e *Engine) Checks() []Check {
	return []Check{
		{RuleExpireOverdue, e.ExpireOverdueFollowUps},
		{RuleNeverContacted, e.FlagNeverContacted},
		{RuleNewMemberContact, e.AdvanceIdleNewMembers},
		{RuleSecondFollowUp, e.InitiateSecondFollowUps},
		{RuleFinalFollowUp, e.InitiateFinalFollowUps},
		{RuleDayBeforeReminder, e.DispatchDayBeforeReminders},
	}
}

// RunAll runs every check in order. A failing or panicking check is reported
// in its Report and does not stop the checks after it.
func (e *Engine) RunAll(ctx context.Context, now time.Time) []Report {
	reports := make([]Report, 0, 6)
	for _, c := range e.Checks() {
		if ctx.Err() != nil {
			break
		}
		rep := e.run(ctx, c, now)
		reports = append(reports, rep)
	}
	return reports
}

func (e *Engine) run(ctx context.Context, c Check, now time.Time) (rep Report) {
	rep.Rule = c.Name
	defer func() {
		if r := recover(); r != nil {
			rep.Err = fmt.Errorf("rule %s panicked: %v", c.Name, r)
			e.logger.Error().Str("rule", c.Name).Interface("panic", r).Bytes("stack", debug.Stack()).
				Msg("rule panicked")
		}
	}()

	res, err := c.Run(ctx, now)
	res.Rule = c.Name
	rep = res
	if err != nil {
		rep.Err = err
		e.logger.Error().Err(err).Str("rule", c.Name).Msg("rule failed")
		return rep
	}

	ev := e.logger.Debug()
	if rep.Applied > 0 || rep.Failed > 0 {
		ev = e.logger.Info()
	}
	ev.Str("rule", c.Name).
		Int("candidates", rep.Candidates).
		Int("applied", rep.Applied).
		Int("skipped", rep.Skipped).
		Int("failed", rep.Failed).
		Msg("rule finished")
	return rep
}

func (e *Engine) applied(rep *Report) {
	rep.Applied++
	metrics.RecordRuleTransition(rep.Rule)
}

func (e *Engine) failed(rep *Report, err error, key, id string) {
	rep.Failed++
	metrics.RecordRuleFailure(rep.Rule)
	e.logger.Error().Err(err).Str("rule", rep.Rule).Str(key, id).Msg("failed to apply rule to record")
}

// ExpireOverdueFollowUps turns scheduled visits dated before today into
// NOT_COMPLETED.
func (e *Engine) ExpireOverdueFollowUps(ctx context.Context, now time.Time) (Report, error) {
	rep := Report{Rule: RuleExpireOverdue}
	today, _ := entity.LocalDates(now, e.location)

	records, err := e.followUps.ListScheduledBefore(ctx, today)
	if err != nil {
		return rep, fmt.Errorf("list overdue follow-ups: %w", err)
	}
	rep.Candidates = len(records)

	for _, f := range records {
		if !f.Overdue(today) {
			rep.Skipped++
			continue
		}
		ok, err := e.followUps.ExpireIfOverdue(ctx, f.ID, today, now)
		if err != nil {
			e.failed(&rep, err, "followup_id", f.ID)
			continue
		}
		if !ok {
			rep.Skipped++
			continue
		}
		e.applied(&rep)
	}
	return rep, nil
}

// FlagNeverContacted marks converts nobody reached within 30 days.
func (e *Engine) FlagNeverContacted(ctx context.Context, now time.Time) (Report, error) {
	rep := Report{Rule: RuleNeverContacted}
	cutoff := now.Add(-NeverContactedAfter)

	people, err := e.persons.ListNewConvertsWithoutFollowUps(ctx, cutoff)
	if err != nil {
		return rep, fmt.Errorf("list uncontacted converts: %w", err)
	}
	rep.Candidates = len(people)

	for _, p := range people {
		if !neverContacted(p, cutoff) {
			rep.Skipped++
			continue
		}
		ok, err := e.persons.MarkNeverContacted(ctx, p.ID, cutoff, now)
		if err != nil {
			e.failed(&rep, err, "person_id", p.ID)
			continue
		}
		if !ok {
			rep.Skipped++
			continue
		}
		e.applied(&rep)
	}
	return rep, nil
}

// AdvanceIdleNewMembers moves new members nobody has contacted for 14 days
// to CONTACT_NEW_MEMBER.
func (e *Engine) AdvanceIdleNewMembers(ctx context.Context, now time.Time) (Report, error) {
	rep := Report{Rule: RuleNewMemberContact}

	people, err := e.persons.ListNewMembersInStage(ctx, entity.StageNew)
	if err != nil {
		return rep, fmt.Errorf("list new members: %w", err)
	}
	rep.Candidates = len(people)

	for _, p := range people {
		tracker := p.StageTracker()
		to, changed := tracker.AdvanceOnIdle(now)
		if !changed {
			rep.Skipped++
			continue
		}
		e.transition(ctx, &rep, entity.StageTransition{
			PersonID:           p.ID,
			From:               p.FollowUpStage,
			To:                 to,
			At:                 now,
			RequireNoFollowUps: true,
		})
	}
	return rep, nil
}

// InitiateSecondFollowUps opens the second follow-up 20 days after the first
// was completed.
func (e *Engine) InitiateSecondFollowUps(ctx context.Context, now time.Time) (Report, error) {
	return e.advanceElapsed(ctx, RuleSecondFollowUp, entity.StageFirstCompleted, now)
}

// InitiateFinalFollowUps opens the final follow-up 20 days after the second
// was completed.
func (e *Engine) InitiateFinalFollowUps(ctx context.Context, now time.Time) (Report, error) {
	return e.advanceElapsed(ctx, RuleFinalFollowUp, entity.StageSecondCompleted, now)
}

func (e *Engine) advanceElapsed(ctx context.Context, rule string, from entity.Stage, now time.Time) (Report, error) {
	rep := Report{Rule: rule}

	people, err := e.persons.ListNewMembersInStage(ctx, from)
	if err != nil {
		return rep, fmt.Errorf("list new members in %s: %w", from, err)
	}
	rep.Candidates = len(people)

	for _, p := range people {
		tracker := p.StageTracker()
		to, changed := tracker.AdvanceOnElapsedCompletion(now)
		if !changed {
			rep.Skipped++
			continue
		}
		e.transition(ctx, &rep, entity.StageTransition{
			PersonID:      p.ID,
			From:          from,
			To:            to,
			At:            now,
			EnteredBefore: now.Add(-entity.CompletionWindow),
		})
	}
	return rep, nil
}

func (e *Engine) transition(ctx context.Context, rep *Report, t entity.StageTransition) {
	ok, err := e.persons.TransitionStage(ctx, t)
	if err != nil {
		e.failed(rep, err, "person_id", t.PersonID)
		return
	}
	if !ok {
		rep.Skipped++
		return
	}
	e.logger.Debug().Str("rule", rep.Rule).Str("person_id", t.PersonID).
		Str("from", string(t.From)).Str("to", string(t.To)).Msg("stage advanced")
	e.applied(rep)
}

// DispatchDayBeforeReminders sends one email per visit scheduled for
// tomorrow. Visits already in the reminder log are skipped.
func (e *Engine) DispatchDayBeforeReminders(ctx context.Context, now time.Time) (Report, error) {
	rep := Report{Rule: RuleDayBeforeReminder}
	_, tomorrow := entity.LocalDates(now, e.location)

	items, err := e.followUps.ListScheduledOn(ctx, tomorrow)
	if err != nil {
		return rep, fmt.Errorf("list visits due tomorrow: %w", err)
	}
	rep.Candidates = len(items)

	for _, item := range items {
		if !reminderDue(item, tomorrow) {
			rep.Skipped++
			continue
		}
		sent, err := e.reminders.Exists(ctx, item.FollowUp.ID, entity.ReminderDayBefore)
		if err != nil {
			e.failed(&rep, err, "followup_id", item.FollowUp.ID)
			continue
		}
		if sent {
			rep.Skipped++
			continue
		}
		ok, err := e.dispatcher.DispatchDayBefore(ctx, item, now)
		if err != nil {
			e.failed(&rep, err, "followup_id", item.FollowUp.ID)
			continue
		}
		if !ok {
			rep.Skipped++
			continue
		}
		e.applied(&rep)
	}
	return rep, nil
}
