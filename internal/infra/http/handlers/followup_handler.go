package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/followup-core/internal/entity"
	"github.com/xavierca1/followup-core/internal/usecase"
)

type FollowUpScheduler interface {
	Execute(ctx context.Context, input usecase.ScheduleFollowUpInput) (*usecase.ScheduleFollowUpOutput, error)
}

type FollowUpCompleter interface {
	Execute(ctx context.Context, input usecase.CompleteFollowUpInput) (*usecase.CompleteFollowUpOutput, error)
}

type CheckinRecorder interface {
	Execute(ctx context.Context, input usecase.RecordCheckinInput) (*entity.FollowUpRecord, error)
}

type FollowUpHandler struct {
	ScheduleUC FollowUpScheduler
	CompleteUC FollowUpCompleter
	CheckinUC  CheckinRecorder
}

func NewFollowUpHandler(schedule FollowUpScheduler, complete FollowUpCompleter, checkin CheckinRecorder) *FollowUpHandler {
	return &FollowUpHandler{
		ScheduleUC: schedule,
		CompleteUC: complete,
		CheckinUC:  checkin,
	}
}

// Schedule (POST /tenants/{tenantID}/persons/{personID}/followups)
func (h *FollowUpHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var input usecase.ScheduleFollowUpInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.TenantID = chi.URLParam(r, "tenantID")
	input.PersonID = chi.URLParam(r, "personID")

	out, err := h.ScheduleUC.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// Complete (POST /tenants/{tenantID}/followups/{followupID}/complete)
func (h *FollowUpHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var input usecase.CompleteFollowUpInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.TenantID = chi.URLParam(r, "tenantID")
	input.FollowUpID = chi.URLParam(r, "followupID")

	out, err := h.CompleteUC.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Checkin (POST /tenants/{tenantID}/persons/{personID}/checkins)
func (h *FollowUpHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	var input usecase.RecordCheckinInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.TenantID = chi.URLParam(r, "tenantID")
	input.PersonID = chi.URLParam(r, "personID")

	record, err := h.CheckinUC.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}
