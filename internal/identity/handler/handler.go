package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agora/internal/identity/models"
	"agora/internal/identity/service"
	"agora/internal/platform/middleware"
	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
	"agora/pkg/platform/httputil"
	"agora/pkg/requestcontext"
)

// Service is the member administration surface. Signup and email
// verification are driven by the external account flow, not over this API.
type Service interface {
	CreateMember(ctx context.Context, actorID id.MemberID, req service.RegisterRequest) (*models.Member, error)
	Get(ctx context.Context, memberID id.MemberID) (*models.Member, error)
	Suspend(ctx context.Context, actorID, targetID id.MemberID) (*models.Member, error)
	Reactivate(ctx context.Context, actorID, targetID id.MemberID) (*models.Member, error)
	MarkDeleted(ctx context.Context, actorID, targetID id.MemberID) (*models.Member, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/members/me", h.handleMe)
	r.Post("/members", h.handleCreateMember)
	r.Route("/members/{memberID}", func(r chi.Router) {
		r.Get("/", h.handleGetMember)
		r.Delete("/", h.memberCommand("delete member", h.service.MarkDeleted))
		r.Post("/suspend", h.memberCommand("suspend member", h.service.Suspend))
		r.Post("/reactivate", h.memberCommand("reactivate member", h.service.Reactivate))
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Get(r.Context(), middleware.GetMemberID(r))
	if err != nil {
		h.writeError(r.Context(), w, "get current member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

type createMemberRequest struct {
	Handle        string        `json:"handle"`
	Email         string        `json:"email"`
	EmailVerified bool          `json:"email_verified"`
	Roles         []models.Role `json:"roles"`
}

func (h *Handler) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[createMemberRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	m, err := h.service.CreateMember(ctx, middleware.GetMemberID(r), service.RegisterRequest{
		Handle:        req.Handle,
		Email:         req.Email,
		EmailVerified: req.EmailVerified,
		Roles:         req.Roles,
	})
	if err != nil {
		h.writeError(ctx, w, "create member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleGetMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}
	m, err := h.service.Get(r.Context(), memberID)
	if err != nil {
		h.writeError(r.Context(), w, "get member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) memberCommand(op string, fn func(ctx context.Context, actorID, targetID id.MemberID) (*models.Member, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID, ok := h.memberID(w, r)
		if !ok {
			return
		}
		m, err := fn(r.Context(), middleware.GetMemberID(r), memberID)
		if err != nil {
			h.writeError(r.Context(), w, op, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, m)
	}
}

func (h *Handler) memberID(w http.ResponseWriter, r *http.Request) (id.MemberID, bool) {
	memberID, err := id.ParseMemberID(chi.URLParam(r, "memberID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid member id"))
		return id.MemberID{}, false
	}
	return memberID, true
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	level := slog.LevelInfo
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, op+" failed",
		"request_id", requestcontext.RequestID(ctx),
		"code", string(dErrors.CodeOf(err)),
		"error", err,
	)
	httputil.WriteError(w, err)
}
