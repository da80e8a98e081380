package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/followup-core/internal/entity"
	"github.com/xavierca1/followup-core/internal/usecase"
)

type PersonCreator interface {
	Execute(ctx context.Context, input usecase.CreatePersonInput) (*entity.Person, error)
}

type PersonHandler struct {
	CreatePersonUC PersonCreator
}

func NewPersonHandler(uc PersonCreator) *PersonHandler {
	return &PersonHandler{CreatePersonUC: uc}
}

// Create (POST /tenants/{tenantID}/persons)
func (h *PersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreatePersonInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.TenantID = chi.URLParam(r, "tenantID")

	person, err := h.CreatePersonUC.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, person)
}
