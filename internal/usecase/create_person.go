package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xavierca1/followup-core/internal/entity"
)

type CreatePersonUseCase struct {
	Persons entity.PersonRepositoryInterface
	Tenants entity.TenantRepositoryInterface
	Now     Clock
	Logger  zerolog.Logger
}

func NewCreatePersonUseCase(
	persons entity.PersonRepositoryInterface,
	tenants entity.TenantRepositoryInterface,
	logger zerolog.Logger,
) *CreatePersonUseCase {
	return &CreatePersonUseCase{
		Persons: persons,
		Tenants: tenants,
		Logger:  logger.With().Str("component", "create_person").Logger(),
	}
}

func (uc *CreatePersonUseCase) Execute(ctx context.Context, input CreatePersonInput) (*entity.Person, error) {
	if errs := ValidateCreatePersonInput(input); len(errs) > 0 {
		return nil, errs
	}

	if _, err := uc.Tenants.GetPlan(ctx, input.TenantID); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, domainErr(CodeTenantNotFound, "tenant not found")
		}
		return nil, dbErr("failed to load tenant", err)
	}

	var phone string
	if strings.TrimSpace(input.Phone) != "" {
		normalized, err := NormalizePhone(input.Phone)
		if err != nil {
			return nil, domainErr(CodeInvalidPhone, err.Error())
		}
		phone = normalized
	}

	kind := entity.PersonKind(strings.ToUpper(input.Kind))
	person, err := entity.NewPerson(input.TenantID, kind, input.FirstName, input.LastName,
		strings.ToLower(strings.TrimSpace(input.Email)), phone, uc.Now.now())
	if err != nil {
		return nil, domainErr(CodeValidation, err.Error())
	}

	if err := uc.Persons.Create(ctx, person); err != nil {
		if errors.Is(err, entity.ErrEmailAlreadyExists) {
			return nil, domainErr(CodeEmailExists, "a person with this email already exists")
		}
		return nil, dbErr("failed to save person", err)
	}

	uc.Logger.Info().
		Str("tenant_id", person.TenantID).
		Str("person_id", person.ID).
		Str("kind", string(person.Kind)).
		Msg("person created")

	return person, nil
}
