package entity

import (
	"fmt"
	"strings"
	"time"
)

// Stage is a new member's position in the follow-up workflow.
type Stage string

const (
	StageNew              Stage = "NEW"
	StageContactNewMember Stage = "CONTACT_NEW_MEMBER"
	StageScheduled        Stage = "SCHEDULED"
	StageFirstCompleted   Stage = "FIRST_COMPLETED"
	StageInitiateSecond   Stage = "INITIATE_SECOND"
	StageSecondScheduled  Stage = "SECOND_SCHEDULED"
	StageSecondCompleted  Stage = "SECOND_COMPLETED"
	StageInitiateFinal    Stage = "INITIATE_FINAL"
	StageFinalScheduled   Stage = "FINAL_SCHEDULED"
	StageFinalCompleted   Stage = "FINAL_COMPLETED"
)

const (
	// IdleContactWindow is how long a NEW member may go without any contact.
	IdleContactWindow = 14 * 24 * time.Hour
	// CompletionWindow separates a completed follow-up from the next one.
	CompletionWindow = 20 * 24 * time.Hour
)

// Trigger names what caused an edge of the stage graph.
type Trigger string

const (
	TriggerIdle      Trigger = "IDLE"
	TriggerElapsed   Trigger = "ELAPSED"
	TriggerSchedule  Trigger = "SCHEDULE"
	TriggerConnected Trigger = "CONNECTED"
)

type edge struct {
	from    Stage
	trigger Trigger
}

// stageGraph is the full transition table. Anything missing here is rejected.
var stageGraph = map[edge]Stage{
	{StageNew, TriggerIdle}:                StageContactNewMember,
	{StageFirstCompleted, TriggerElapsed}:  StageInitiateSecond,
	{StageSecondCompleted, TriggerElapsed}: StageInitiateFinal,

	{StageNew, TriggerSchedule}:              StageScheduled,
	{StageContactNewMember, TriggerSchedule}: StageScheduled,
	{StageScheduled, TriggerSchedule}:        StageScheduled,
	{StageFirstCompleted, TriggerSchedule}:   StageSecondScheduled,
	{StageInitiateSecond, TriggerSchedule}:   StageSecondScheduled,
	{StageSecondScheduled, TriggerSchedule}:  StageSecondScheduled,
	{StageSecondCompleted, TriggerSchedule}:  StageFinalScheduled,
	{StageInitiateFinal, TriggerSchedule}:    StageFinalScheduled,
	{StageFinalScheduled, TriggerSchedule}:   StageFinalScheduled,

	{StageScheduled, TriggerConnected}:       StageFirstCompleted,
	{StageSecondScheduled, TriggerConnected}: StageSecondCompleted,
	{StageFinalScheduled, TriggerConnected}:  StageFinalCompleted,
}

var stageOrder = []Stage{
	StageNew, StageContactNewMember, StageScheduled, StageFirstCompleted,
	StageInitiateSecond, StageSecondScheduled, StageSecondCompleted,
	StageInitiateFinal, StageFinalScheduled, StageFinalCompleted,
}

func ParseStage(s string) (Stage, error) {
	st := Stage(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown follow-up stage %q", s)
	}
	return st, nil
}

func (s Stage) Valid() bool {
	for _, st := range stageOrder {
		if st == s {
			return true
		}
	}
	return false
}

func (s Stage) Terminal() bool { return s == StageFinalCompleted }

// Next returns the stage reached from s by trigger, if the table has that edge.
func (s Stage) Next(trigger Trigger) (Stage, bool) {
	to, ok := stageGraph[edge{s, trigger}]
	return to, ok
}

// Allows reports whether to is reachable from s by a staff action.
func (s Stage) Allows(to Stage) bool {
	for _, trig := range []Trigger{TriggerSchedule, TriggerConnected} {
		if next, ok := s.Next(trig); ok && next == to {
			return true
		}
	}
	return false
}

// StageTracker is the lifecycle state of a single new member. Its methods
// return (new stage, true) when a transition fires and (current, false)
// otherwise; ineligibility is not an error.
type StageTracker struct {
	Current      Stage
	EnteredAt    time.Time
	CreatedAt    time.Time
	HasFollowUps bool
}

// AdvanceOnIdle moves NEW to CONTACT_NEW_MEMBER once the member has gone
// IdleContactWindow without any follow-up record.
func (t *StageTracker) AdvanceOnIdle(now time.Time) (Stage, bool) {
	if t.Current != StageNew || t.HasFollowUps {
		return t.Current, false
	}
	if now.Sub(t.CreatedAt) < IdleContactWindow {
		return t.Current, false
	}
	return t.move(TriggerIdle, now)
}

// AdvanceOnElapsedCompletion opens the next follow-up once CompletionWindow
// has passed since the previous one was completed.
func (t *StageTracker) AdvanceOnElapsedCompletion(now time.Time) (Stage, bool) {
	if _, ok := t.Current.Next(TriggerElapsed); !ok {
		return t.Current, false
	}
	if now.Sub(t.EnteredAt) < CompletionWindow {
		return t.Current, false
	}
	return t.move(TriggerElapsed, now)
}

// ApplyManualTransition moves to target when a staff action allows it.
// Manual moves always reset EnteredAt, which restarts any elapsed-time clock.
func (t *StageTracker) ApplyManualTransition(target Stage, now time.Time) (Stage, bool) {
	if !t.Current.Allows(target) {
		return t.Current, false
	}
	t.Current = target
	t.EnteredAt = now
	return target, true
}

func (t *StageTracker) move(trigger Trigger, now time.Time) (Stage, bool) {
	next, ok := t.Current.Next(trigger)
	if !ok {
		return t.Current, false
	}
	t.Current = next
	t.EnteredAt = now
	return next, true
}

// StageTransition is a compare-and-swap on a new member's stage.
type StageTransition struct {
	PersonID string
	TenantID string // empty for scheduler-driven transitions
	From     Stage
	To       Stage
	At       time.Time

	// EnteredBefore, when set, requires stage_updated_at <= EnteredBefore.
	EnteredBefore time.Time
	// RequireNoFollowUps requires the person to have zero follow-up records.
	RequireNoFollowUps bool
}
