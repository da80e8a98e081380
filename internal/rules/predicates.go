package rules

import (
	"time"

	"github.com/xavierca1/followup-core/internal/entity"
)

func neverContacted(p *entity.Person, cutoff time.Time) bool {
	return p.Kind == entity.KindConvert &&
		p.Status == entity.StatusNew &&
		p.CreatedAt.Before(cutoff)
}

func reminderDue(item entity.FollowUpWithPerson, tomorrow string) bool {
	return item.FollowUp != nil &&
		item.Person != nil &&
		item.Person.Email != "" &&
		item.FollowUp.DueTomorrow(tomorrow)
}
