package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PersonKind selects which follow-up flow applies to a person.
type PersonKind string

const (
	KindConvert   PersonKind = "CONVERT"
	KindNewMember PersonKind = "NEW_MEMBER"
	KindMember    PersonKind = "MEMBER"
)

func (k PersonKind) Valid() bool {
	switch k {
	case KindConvert, KindNewMember, KindMember:
		return true
	}
	return false
}

// PersonStatus is the display state shown on dashboards.
type PersonStatus string

const (
	StatusNew            PersonStatus = "NEW"
	StatusScheduled      PersonStatus = "SCHEDULED"
	StatusConnected      PersonStatus = "CONNECTED"
	StatusNotCompleted   PersonStatus = "NOT_COMPLETED"
	StatusNeverContacted PersonStatus = "NEVER_CONTACTED"
	StatusNeedsFollowUp  PersonStatus = "NEEDS_FOLLOWUP"
	StatusNeedsPrayer    PersonStatus = "NEEDS_PRAYER"
	StatusReferred       PersonStatus = "REFERRED"
	StatusNoResponse     PersonStatus = "NO_RESPONSE"
	StatusOther          PersonStatus = "OTHER"
)

var personStatuses = map[PersonStatus]struct{}{
	StatusNew: {}, StatusScheduled: {}, StatusConnected: {}, StatusNotCompleted: {},
	StatusNeverContacted: {}, StatusNeedsFollowUp: {}, StatusNeedsPrayer: {},
	StatusReferred: {}, StatusNoResponse: {}, StatusOther: {},
}

func ParsePersonStatus(s string) (PersonStatus, error) {
	st := PersonStatus(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := personStatuses[st]; !ok {
		return "", errors.New("unknown person status: " + s)
	}
	return st, nil
}

// Person is a convert, new member or member owned by one tenant.
// FollowUpStage is only meaningful for new members.
type Person struct {
	ID             string       `json:"id"`
	TenantID       string       `json:"tenant_id"`
	Kind           PersonKind   `json:"kind"`
	FirstName      string       `json:"first_name"`
	LastName       string       `json:"last_name"`
	Email          string       `json:"email,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	Status         PersonStatus `json:"status"`
	FollowUpStage  Stage        `json:"follow_up_stage,omitempty"`
	StageUpdatedAt time.Time    `json:"stage_updated_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewPerson builds a person in its initial state. New members start at stage NEW.
func NewPerson(tenantID string, kind PersonKind, firstName, lastName, email, phone string, now time.Time) (*Person, error) {
	p := &Person{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		Kind:           kind,
		FirstName:      strings.TrimSpace(firstName),
		LastName:       strings.TrimSpace(lastName),
		Email:          strings.TrimSpace(email),
		Phone:          phone,
		Status:         StatusNew,
		StageUpdatedAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if kind == KindNewMember {
		p.FollowUpStage = StageNew
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Person) Validate() error {
	if p.TenantID == "" {
		return errors.New("tenant_id is required")
	}
	if !p.Kind.Valid() {
		return errors.New("kind must be CONVERT, NEW_MEMBER or MEMBER")
	}
	if p.FirstName == "" {
		return errors.New("first_name is required")
	}
	if p.Kind == KindNewMember && !p.FollowUpStage.Valid() {
		return errors.New("new members need a follow-up stage")
	}
	if p.Kind != KindNewMember && p.FollowUpStage != "" {
		return errors.New("only new members carry a follow-up stage")
	}
	return nil
}

func (p *Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// ReadyForPromotion reports a new member who finished the final follow-up.
func (p *Person) ReadyForPromotion() bool {
	return p.Kind == KindNewMember && p.FollowUpStage.Terminal()
}

// StageTracker returns the lifecycle view of a new member.
func (p *Person) StageTracker() StageTracker {
	return StageTracker{
		Current:   p.FollowUpStage,
		EnteredAt: p.StageUpdatedAt,
		CreatedAt: p.CreatedAt,
	}
}

// StatusForOutcome maps a checkin outcome to the person display status.
func StatusForOutcome(o Outcome) PersonStatus {
	switch o {
	case OutcomeConnected:
		return StatusConnected
	case OutcomeScheduledVisit:
		return StatusScheduled
	case OutcomeNotCompleted:
		return StatusNotCompleted
	case OutcomeNeedsFollowUp:
		return StatusNeedsFollowUp
	case OutcomeNeedsPrayer:
		return StatusNeedsPrayer
	case OutcomeReferred:
		return StatusReferred
	case OutcomeNoResponse:
		return StatusNoResponse
	default:
		return StatusOther
	}
}

// PersonRepositoryInterface is the persistence contract for people. Every
// state-changing method is a single conditional write; a false return means
// the expected precondition no longer held.
type PersonRepositoryInterface interface {
	Create(ctx context.Context, p *Person) error
	FindByID(ctx context.Context, tenantID, id string) (*Person, error)
	Delete(ctx context.Context, tenantID, id string) error

	// ListNewConvertsWithoutFollowUps returns converts in status NEW with no
	// follow-up records created strictly before createdBefore.
	ListNewConvertsWithoutFollowUps(ctx context.Context, createdBefore time.Time) ([]*Person, error)
	// ListNewMembersInStage returns new members currently in stage.
	ListNewMembersInStage(ctx context.Context, stage Stage) ([]*Person, error)

	// MarkNeverContacted flips NEW -> NEVER_CONTACTED if the convert was
	// created before createdBefore and still has no follow-ups.
	MarkNeverContacted(ctx context.Context, id string, createdBefore, now time.Time) (bool, error)
	// TransitionStage applies t if the new member still matches its preconditions.
	TransitionStage(ctx context.Context, t StageTransition) (bool, error)
	// UpdateStatus sets the display status unconditionally (staff action).
	UpdateStatus(ctx context.Context, tenantID, id string, status PersonStatus, now time.Time) error
}
