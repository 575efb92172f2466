package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"agora/internal/community/models"
	"agora/internal/community/service"
	"agora/internal/platform/middleware"
	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
	"agora/pkg/platform/httputil"
	"agora/pkg/requestcontext"
)

// Service is the governance surface the handler drives.
type Service interface {
	CreateCommunity(ctx context.Context, actorID id.MemberID, req service.CreateCommunityRequest) (*models.Community, error)
	GetCommunity(ctx context.Context, communityID id.CommunityID) (*models.Community, error)
	GrantModerator(ctx context.Context, actorID id.MemberID, communityID id.CommunityID, targetID id.MemberID) error
	RevokeModerator(ctx context.Context, actorID id.MemberID, communityID id.CommunityID, targetID id.MemberID) error
	ListModerators(ctx context.Context, communityID id.CommunityID) ([]models.ModeratorGrant, error)
	BanMember(ctx context.Context, actorID id.MemberID, communityID id.CommunityID, req service.BanRequest) (*models.Ban, error)
	UnbanMember(ctx context.Context, actorID id.MemberID, communityID id.CommunityID, memberID id.MemberID) (*models.Ban, error)
	LiftBan(ctx context.Context, actorID id.MemberID, banID id.BanID) (*models.Ban, error)
	ExtendBan(ctx context.Context, actorID id.MemberID, banID id.BanID, d time.Duration) (*models.Ban, error)
	ListBans(ctx context.Context, actorID id.MemberID, communityID id.CommunityID, activeOnly bool) ([]models.Ban, error)
}

// Handler exposes community governance over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the routes. Callers apply authentication upstream.
func (h *Handler) Register(r chi.Router) {
	r.Post("/communities", h.handleCreateCommunity)
	r.Route("/communities/{communityID}", func(r chi.Router) {
		r.Get("/", h.handleGetCommunity)
		r.Get("/moderators", h.handleListModerators)
		r.Put("/moderators/{memberID}", h.handleGrantModerator)
		r.Delete("/moderators/{memberID}", h.handleRevokeModerator)
		r.Get("/bans", h.handleListBans)
		r.Post("/bans", h.handleBanMember)
		r.Delete("/bans/members/{memberID}", h.handleUnbanMember)
	})
	r.Post("/bans/{banID}/lift", h.handleLiftBan)
	r.Post("/bans/{banID}/extend", h.handleExtendBan)
}

type createCommunityRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

func (h *Handler) handleCreateCommunity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[createCommunityRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	c, err := h.service.CreateCommunity(ctx, middleware.GetMemberID(r), service.CreateCommunityRequest{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(ctx, w, "create community", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleGetCommunity(w http.ResponseWriter, r *http.Request) {
	communityID, ok := h.communityID(w, r)
	if !ok {
		return
	}
	c, err := h.service.GetCommunity(r.Context(), communityID)
	if err != nil {
		h.writeError(r.Context(), w, "get community", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleListModerators(w http.ResponseWriter, r *http.Request) {
	communityID, ok := h.communityID(w, r)
	if !ok {
		return
	}
	grants, err := h.service.ListModerators(r.Context(), communityID)
	if err != nil {
		h.writeError(r.Context(), w, "list moderators", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"moderators": nonNil(grants)})
}

func (h *Handler) handleGrantModerator(w http.ResponseWriter, r *http.Request) {
	communityID, ok := h.communityID(w, r)
	if !ok {
		return
	}
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}
	if err := h.service.GrantModerator(r.Context(), middleware.GetMemberID(r), communityID, memberID); err != nil {
		h.writeError(r.Context(), w, "grant moderator", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRevokeModerator(w http.ResponseWriter, r *http.Request) {
	communityID, ok := h.communityID(w, r)
	if !ok {
		return
	}
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}
	if err := h.service.RevokeModerator(r.Context(), middleware.GetMemberID(r), communityID, memberID); err != nil {
		h.writeError(r.Context(), w, "revoke moderator", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// banRequest takes the duration as a Go duration string, e.g. "72h".
// Omitting it bans permanently.
type banRequest struct {
	MemberID id.MemberID `json:"member_id"`
	Reason   string      `json:"reason"`
	Duration string      `json:"duration,omitempty"`

	duration *time.Duration
}

func (b *banRequest) Prepare() error {
	if b.MemberID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "member_id is required")
	}
	if strings.TrimSpace(b.Duration) == "" {
		return nil
	}
	d, err := time.ParseDuration(b.Duration)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "duration must look like 72h or 30m")
	}
	b.duration = &d
	return nil
}

func (h *Handler) handleBanMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	communityID, ok := h.communityID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[banRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	ban, err := h.service.BanMember(ctx, middleware.GetMemberID(r), communityID, service.BanRequest{
		MemberID: req.MemberID,
		Reason:   req.Reason,
		Duration: req.duration,
	})
	if err != nil {
		h.writeError(ctx, w, "ban member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBanResponse(ban, requestcontext.Now(ctx)))
}

func (h *Handler) handleUnbanMember(w http.ResponseWriter, r *http.Request) {
	communityID, ok := h.communityID(w, r)
	if !ok {
		return
	}
	memberID, ok := h.memberID(w, r)
	if !ok {
		return
	}
	ban, err := h.service.UnbanMember(r.Context(), middleware.GetMemberID(r), communityID, memberID)
	if err != nil {
		h.writeError(r.Context(), w, "unban member", err)
		return
	}
	if ban == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBanResponse(ban, requestcontext.Now(r.Context())))
}

func (h *Handler) handleListBans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	communityID, ok := h.communityID(w, r)
	if !ok {
		return
	}
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	bans, err := h.service.ListBans(ctx, middleware.GetMemberID(r), communityID, activeOnly)
	if err != nil {
		h.writeError(ctx, w, "list bans", err)
		return
	}
	now := requestcontext.Now(ctx)
	out := make([]banResponse, 0, len(bans))
	for i := range bans {
		out = append(out, toBanResponse(&bans[i], now))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"bans": out})
}

func (h *Handler) handleLiftBan(w http.ResponseWriter, r *http.Request) {
	banID, ok := h.banID(w, r)
	if !ok {
		return
	}
	ban, err := h.service.LiftBan(r.Context(), middleware.GetMemberID(r), banID)
	if err != nil {
		h.writeError(r.Context(), w, "lift ban", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBanResponse(ban, requestcontext.Now(r.Context())))
}

type extendBanRequest struct {
	By string `json:"by"`

	by time.Duration
}

func (e *extendBanRequest) Prepare() error {
	d, err := time.ParseDuration(e.By)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "by must look like 24h")
	}
	e.by = d
	return nil
}

func (h *Handler) handleExtendBan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	banID, ok := h.banID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[extendBanRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	ban, err := h.service.ExtendBan(ctx, middleware.GetMemberID(r), banID, req.by)
	if err != nil {
		h.writeError(ctx, w, "extend ban", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBanResponse(ban, requestcontext.Now(ctx)))
}

// banResponse adds the derived activity flag; it is never stored.
type banResponse struct {
	*models.Ban
	Active    bool `json:"active"`
	Permanent bool `json:"permanent"`
}

func toBanResponse(b *models.Ban, now time.Time) banResponse {
	return banResponse{Ban: b, Active: b.IsActive(now), Permanent: b.IsPermanent()}
}

func (h *Handler) communityID(w http.ResponseWriter, r *http.Request) (id.CommunityID, bool) {
	communityID, err := id.ParseCommunityID(chi.URLParam(r, "communityID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid community id"))
		return id.CommunityID{}, false
	}
	return communityID, true
}

func (h *Handler) memberID(w http.ResponseWriter, r *http.Request) (id.MemberID, bool) {
	memberID, err := id.ParseMemberID(chi.URLParam(r, "memberID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid member id"))
		return id.MemberID{}, false
	}
	return memberID, true
}

func (h *Handler) banID(w http.ResponseWriter, r *http.Request) (id.BanID, bool) {
	banID, err := id.ParseBanID(chi.URLParam(r, "banID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid ban id"))
		return id.BanID{}, false
	}
	return banID, true
}

// writeError logs server-side failures at error level and domain denials at
// info, then writes the envelope.
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

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
