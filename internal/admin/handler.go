package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agora/internal/platform/middleware"
	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
	audit "agora/pkg/platform/audit"
	"agora/pkg/platform/httputil"
	"agora/pkg/requestcontext"
)

type AuditReader interface {
	AuditTrail(ctx context.Context, actorID id.MemberID, subject string) ([]audit.Event, error)
}

type Handler struct {
	service AuditReader
	logger  *slog.Logger
}

func NewHandler(service AuditReader, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/audit/{subject}", h.handleAuditTrail)
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject := chi.URLParam(r, "subject")
	events, err := h.service.AuditTrail(ctx, middleware.GetMemberID(r), subject)
	if err != nil {
		if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
			h.logger.ErrorContext(ctx, "read audit trail failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuditTrailResponse(subject, events))
}
