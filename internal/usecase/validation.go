package usecase

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/xavierca1/followup-core/internal/entity"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is returned by Execute when the input fails validation.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func IsValidationError(err error) bool {
	var v ValidationErrors
	return errors.As(err, &v)
}

var (
	nonDigits = regexp.MustCompile(`\D`)
	timeOfDay = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// ErrInvalidPhone is returned by NormalizePhone for numbers it cannot place.
var ErrInvalidPhone = errors.New("phone number must have at least 10 digits")

// NormalizePhone converts a free-form phone number to E.164. Ten digit
// numbers are assumed to be North American.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	plus := strings.HasPrefix(raw, "+")
	digits := nonDigits.ReplaceAllString(raw, "")

	switch {
	case len(digits) < 10:
		return "", ErrInvalidPhone
	case plus:
		return "+" + digits, nil
	case len(digits) == 10:
		return "+1" + digits, nil
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits, nil
	}
	return "", ErrInvalidPhone
}

func ValidateCreatePersonInput(input CreatePersonInput) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(input.TenantID) == "" {
		errs = append(errs, ValidationError{"tenant_id", "is required"})
	}
	if !entity.PersonKind(strings.ToUpper(input.Kind)).Valid() {
		errs = append(errs, ValidationError{"kind", "must be CONVERT, NEW_MEMBER or MEMBER"})
	}
	if strings.TrimSpace(input.FirstName) == "" {
		errs = append(errs, ValidationError{"first_name", "is required"})
	} else if len(input.FirstName) > 100 {
		errs = append(errs, ValidationError{"first_name", "must not exceed 100 characters"})
	}
	if len(input.LastName) > 100 {
		errs = append(errs, ValidationError{"last_name", "must not exceed 100 characters"})
	}
	if strings.TrimSpace(input.Email) != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			errs = append(errs, ValidationError{"email", "is invalid"})
		}
	}
	if strings.TrimSpace(input.Phone) != "" {
		if _, err := NormalizePhone(input.Phone); err != nil {
			errs = append(errs, ValidationError{"phone", "must be a valid phone number"})
		}
	}

	return errs
}

// ValidateScheduleFollowUpInput checks the request shape. today is the
// tenant-local date; visits cannot be scheduled in the past.
func ValidateScheduleFollowUpInput(input ScheduleFollowUpInput, today string) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(input.PersonID) == "" {
		errs = append(errs, ValidationError{"person_id", "is required"})
	}
	if input.Date == "" {
		errs = append(errs, ValidationError{"date", "is required"})
	} else if _, err := time.Parse(entity.DateLayout, input.Date); err != nil {
		errs = append(errs, ValidationError{"date", "must be a valid date (YYYY-MM-DD)"})
	} else if input.Date < today {
		errs = append(errs, ValidationError{"date", "must not be in the past"})
	}
	if input.Time != "" && !timeOfDay.MatchString(input.Time) {
		errs = append(errs, ValidationError{"time", "must be HH:MM"})
	}
	if _, err := entity.ParseNotificationMethod(input.NotificationMethod); err != nil {
		errs = append(errs, ValidationError{"notification_method", "must be email, sms or mms"})
	}

	return errs
}

func ValidateRecordCheckinInput(input RecordCheckinInput) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(input.PersonID) == "" {
		errs = append(errs, ValidationError{"person_id", "is required"})
	}
	outcome, err := entity.ParseOutcome(input.Outcome)
	if err != nil {
		errs = append(errs, ValidationError{"outcome", "is invalid"})
	} else if outcome == entity.OutcomeScheduledVisit || outcome == entity.OutcomeNotCompleted {
		errs = append(errs, ValidationError{"outcome", "cannot be recorded directly"})
	}
	if input.StatusUpdate != "" {
		if _, err := entity.ParsePersonStatus(input.StatusUpdate); err != nil {
			errs = append(errs, ValidationError{"status_update", "is invalid"})
		}
	}

	return errs
}

func ValidateCompleteFollowUpInput(input CompleteFollowUpInput) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(input.FollowUpID) == "" {
		errs = append(errs, ValidationError{"followup_id", "is required"})
	}
	outcome, err := entity.ParseOutcome(input.Outcome)
	if err != nil {
		errs = append(errs, ValidationError{"outcome", "is invalid"})
	} else if outcome == entity.OutcomeScheduledVisit || outcome == entity.OutcomeNotCompleted {
		errs = append(errs, ValidationError{"outcome", "must be a completed outcome"})
	}

	return errs
}

func ValidateSendMessageInput(input SendMessageInput) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(input.TenantID) == "" {
		errs = append(errs, ValidationError{"tenant_id", "is required"})
	}
	if !entity.Channel(strings.ToLower(input.Channel)).Valid() {
		errs = append(errs, ValidationError{"channel", "must be sms or mms"})
	}
	if strings.TrimSpace(input.To) == "" {
		errs = append(errs, ValidationError{"to", "is required"})
	}
	if strings.TrimSpace(input.Body) == "" {
		errs = append(errs, ValidationError{"body", "is required"})
	} else if len(input.Body) > 1600 {
		errs = append(errs, ValidationError{"body", "must not exceed 1600 characters"})
	}

	return errs
}
