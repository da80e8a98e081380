package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xavierca1/followup-core/internal/usecase"
)

type errorResponse struct {
	Error   string                    `json:"error"`
	Message string                    `json:"message"`
	Fields  []usecase.ValidationError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeUseCaseError maps use case errors onto HTTP statuses.
func writeUseCaseError(w http.ResponseWriter, err error) {
	var (
		verrs usecase.ValidationErrors
		de    *usecase.DomainError
		te    *usecase.TechnicalError
	)

	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   usecase.CodeValidation,
			Message: "invalid input",
			Fields:  verrs,
		})
	case errors.As(err, &de):
		writeErrorResponse(w, domainStatus(de.Code), de.Code, de.Message)
	case errors.As(err, &te) && te.Code == usecase.CodeProvider:
		writeErrorResponse(w, http.StatusBadGateway, te.Code, te.Message)
	case errors.As(err, &te):
		writeErrorResponse(w, http.StatusInternalServerError, te.Code, te.Message)
	default:
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected error")
	}
}

func domainStatus(code string) int {
	switch code {
	case usecase.CodeTenantNotFound, usecase.CodePersonNotFound, usecase.CodeFollowUpNotFound:
		return http.StatusNotFound
	case usecase.CodeEmailExists, usecase.CodeInvalidTransition, usecase.CodeFollowUpNotPending:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON: "+err.Error())
		return false
	}
	return true
}
