package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/followup-core/internal/usecase"
)

type MessageSender interface {
	Execute(ctx context.Context, input usecase.SendMessageInput) (*usecase.SendMessageOutput, error)
}

type UsageReader interface {
	Execute(ctx context.Context, tenantID, period string) (*usecase.UsageOutput, error)
}

type MessageHandler struct {
	SendUC  MessageSender
	UsageUC UsageReader
}

func NewMessageHandler(send MessageSender, usage UsageReader) *MessageHandler {
	return &MessageHandler{SendUC: send, UsageUC: usage}
}

// Send (POST /tenants/{tenantID}/messages). A quota refusal answers 429 with
// the usage figures in the body.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var input usecase.SendMessageInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.TenantID = chi.URLParam(r, "tenantID")

	out, err := h.SendUC.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	if out.Status == usecase.MessageStatusQuotaExceeded {
		writeJSON(w, http.StatusTooManyRequests, out)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Usage (GET /tenants/{tenantID}/usage?period=YYYY-MM)
func (h *MessageHandler) Usage(w http.ResponseWriter, r *http.Request) {
	out, err := h.UsageUC.Execute(r.Context(), chi.URLParam(r, "tenantID"), r.URL.Query().Get("period"))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
