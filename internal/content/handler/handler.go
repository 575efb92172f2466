package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"agora/internal/content/models"
	"agora/internal/content/service"
	"agora/internal/platform/middleware"
	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
	"agora/pkg/platform/httputil"
	"agora/pkg/requestcontext"
)

// Service is the content surface the handler drives.
type Service interface {
	CreatePost(ctx context.Context, actorID id.MemberID, req service.CreatePostRequest) (*models.Post, error)
	GetPost(ctx context.Context, postID id.PostID) (*models.Post, error)
	AttachMedia(ctx context.Context, actorID id.MemberID, postID id.PostID, assets []models.MediaAsset) (*models.Post, error)
	Rename(ctx context.Context, actorID id.MemberID, postID id.PostID, title string) (*models.Post, error)
	Rewrite(ctx context.Context, actorID id.MemberID, postID id.PostID, content string) (*models.Post, error)
	Publish(ctx context.Context, actorID id.MemberID, postID id.PostID) (*models.Post, error)
	Archive(ctx context.Context, actorID id.MemberID, postID id.PostID) (*models.Post, error)
	Restore(ctx context.Context, actorID id.MemberID, postID id.PostID) (*models.Post, error)

	CreateComment(ctx context.Context, actorID id.MemberID, postID id.PostID, req service.CreateCommentRequest) (*models.Comment, error)
	EditComment(ctx context.Context, actorID id.MemberID, commentID id.CommentID, body string) (*models.Comment, error)
	DeleteComment(ctx context.Context, actorID id.MemberID, commentID id.CommentID) (*models.Comment, error)
	ListReplies(ctx context.Context, postID id.PostID, parentID id.CommentID, page models.Page) ([]*models.Comment, error)
	GetThread(ctx context.Context, viewerID id.MemberID, postID id.PostID, page models.Page) (*models.Thread, error)

	VotePost(ctx context.Context, actorID id.MemberID, postID id.PostID, desired int) (*models.VoteOutcome, error)
	VoteComment(ctx context.Context, actorID id.MemberID, commentID id.CommentID, desired int) (*models.VoteOutcome, error)
	MyPostVote(ctx context.Context, voterID id.MemberID, postID id.PostID) (models.MyPostVote, error)
	MyCommentVote(ctx context.Context, voterID id.MemberID, commentID id.CommentID) (models.MyCommentVote, error)
	MyPostVotes(ctx context.Context, voterID id.MemberID, postIDs []id.PostID) ([]models.MyPostVote, error)
}

// Handler exposes posts, comments and votes over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the routes. Callers apply authentication upstream.
func (h *Handler) Register(r chi.Router) {
	r.Post("/posts", h.handleCreatePost)
	r.Get("/posts/votes", h.handleMyPostVotes)
	r.Route("/posts/{postID}", func(r chi.Router) {
		r.Get("/", h.handleGetPost)
		r.Patch("/", h.handleEditPost)
		r.Post("/media", h.handleAttachMedia)
		r.Post("/publish", h.postCommand("publish post", h.service.Publish))
		r.Post("/archive", h.postCommand("archive post", h.service.Archive))
		r.Post("/restore", h.postCommand("restore post", h.service.Restore))
		r.Get("/vote", h.handleMyPostVote)
		r.Put("/vote", h.handleVotePost)
		r.Get("/comments", h.handleGetThread)
		r.Post("/comments", h.handleCreateComment)
		r.Get("/comments/{commentID}/replies", h.handleListReplies)
	})
	r.Route("/comments/{commentID}", func(r chi.Router) {
		r.Patch("/", h.handleEditComment)
		r.Delete("/", h.handleDeleteComment)
		r.Get("/vote", h.handleMyCommentVote)
		r.Put("/vote", h.handleVoteComment)
	})
}

type createPostRequest struct {
	CommunityID id.CommunityID      `json:"community_id"`
	Kind        string              `json:"kind"`
	Title       string              `json:"title"`
	Content     string              `json:"content"`
	Media       []models.MediaAsset `json:"media"`
}

func (c *createPostRequest) Prepare() error {
	if c.CommunityID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "community_id is required")
	}
	c.Kind = strings.ToUpper(strings.TrimSpace(c.Kind))
	return nil
}

func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[createPostRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	post, err := h.service.CreatePost(ctx, middleware.GetMemberID(r), service.CreatePostRequest{
		CommunityID: req.CommunityID,
		Kind:        req.Kind,
		Title:       req.Title,
		Content:     req.Content,
		Media:       req.Media,
	})
	if err != nil {
		h.writeError(ctx, w, "create post", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, post)
}

func (h *Handler) handleGetPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.postID(w, r)
	if !ok {
		return
	}
	post, err := h.service.GetPost(r.Context(), postID)
	if err != nil {
		h.writeError(r.Context(), w, "get post", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// editPostRequest carries either field or both; each is its own command.
type editPostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (e *editPostRequest) Prepare() error {
	if e.Title == nil && e.Content == nil {
		return dErrors.New(dErrors.CodeValidation, "title or content is required")
	}
	return nil
}

func (h *Handler) handleEditPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	postID, ok := h.postID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[editPostRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	actorID := middleware.GetMemberID(r)
	var (
		post *models.Post
		err  error
	)
	if req.Title != nil {
		if post, err = h.service.Rename(ctx, actorID, postID, *req.Title); err != nil {
			h.writeError(ctx, w, "rename post", err)
			return
		}
	}
	if req.Content != nil {
		if post, err = h.service.Rewrite(ctx, actorID, postID, *req.Content); err != nil {
			h.writeError(ctx, w, "rewrite post", err)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

type attachMediaRequest struct {
	Assets []models.MediaAsset `json:"assets"`
}

func (a *attachMediaRequest) Prepare() error {
	if len(a.Assets) == 0 {
		return dErrors.New(dErrors.CodeValidation, "assets are required")
	}
	return nil
}

func (h *Handler) handleAttachMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	postID, ok := h.postID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[attachMediaRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	post, err := h.service.AttachMedia(ctx, middleware.GetMemberID(r), postID, req.Assets)
	if err != nil {
		h.writeError(ctx, w, "attach media", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// postCommand adapts the body-less lifecycle commands.
func (h *Handler) postCommand(op string, fn func(context.Context, id.MemberID, id.PostID) (*models.Post, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, ok := h.postID(w, r)
		if !ok {
			return
		}
		post, err := fn(r.Context(), middleware.GetMemberID(r), postID)
		if err != nil {
			h.writeError(r.Context(), w, op, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, post)
	}
}

// voteRequest takes the desired vote; the service applies the toggle rule.
type voteRequest struct {
	Value *int `json:"value"`
}

func (v *voteRequest) Prepare() error {
	if v.Value == nil {
		return dErrors.New(dErrors.CodeValidation, "value is required")
	}
	return nil
}

type voteResponse struct {
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
	Op       string `json:"op"`
	models.VoteCounters
	Score int64 `json:"score"`
}

func toVoteResponse(o *models.VoteOutcome) voteResponse {
	return voteResponse{
		Previous:     o.Previous.Int(),
		Current:      o.Current.Int(),
		Op:           o.Op.String(),
		VoteCounters: o.Counters,
		Score:        o.Counters.Score(),
	}
}

func (h *Handler) handleVotePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	postID, ok := h.postID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[voteRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	out, err := h.service.VotePost(ctx, middleware.GetMemberID(r), postID, *req.Value)
	if err != nil {
		h.writeError(ctx, w, "vote post", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVoteResponse(out))
}

func (h *Handler) handleMyPostVote(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.postID(w, r)
	if !ok {
		return
	}
	mine, err := h.service.MyPostVote(r.Context(), middleware.GetMemberID(r), postID)
	if err != nil {
		h.writeError(r.Context(), w, "my post vote", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"post_id": mine.PostID, "value": mine.Vote.Int()})
}

// handleMyPostVotes answers GET /posts/votes?ids=a,b,c in request order.
func (h *Handler) handleMyPostVotes(w http.ResponseWriter, r *http.Request) {
	raw := strings.Split(r.URL.Query().Get("ids"), ",")
	postIDs := make([]id.PostID, 0, len(raw))
	for _, s := range raw {
		if strings.TrimSpace(s) == "" {
			continue
		}
		postID, err := id.ParsePostID(s)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid post id in ids"))
			return
		}
		postIDs = append(postIDs, postID)
	}
	votes, err := h.service.MyPostVotes(r.Context(), middleware.GetMemberID(r), postIDs)
	if err != nil {
		h.writeError(r.Context(), w, "my post votes", err)
		return
	}
	out := make([]map[string]any, len(votes))
	for i, v := range votes {
		out[i] = map[string]any{"post_id": v.PostID, "value": v.Vote.Int()}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"votes": out})
}

type createCommentRequest struct {
	ParentID *id.CommentID `json:"parent_id"`
	Body     string        `json:"body"`
}

func (h *Handler) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	postID, ok := h.postID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[createCommentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	comment, err := h.service.CreateComment(ctx, middleware.GetMemberID(r), postID, service.CreateCommentRequest{
		ParentID: req.ParentID,
		Body:     req.Body,
	})
	if err != nil {
		h.writeError(ctx, w, "create comment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, comment)
}

func (h *Handler) handleGetThread(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.postID(w, r)
	if !ok {
		return
	}
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	thread, err := h.service.GetThread(r.Context(), middleware.GetMemberID(r), postID, page)
	if err != nil {
		h.writeError(r.Context(), w, "get thread", err)
		return
	}
	thread.Comments = nonNil(thread.Comments)
	httputil.WriteJSON(w, http.StatusOK, thread)
}

func (h *Handler) handleListReplies(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.postID(w, r)
	if !ok {
		return
	}
	commentID, ok := h.commentID(w, r)
	if !ok {
		return
	}
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	replies, err := h.service.ListReplies(r.Context(), postID, commentID, page)
	if err != nil {
		h.writeError(r.Context(), w, "list replies", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"comments": nonNil(replies)})
}

type editCommentRequest struct {
	Body string `json:"body"`
}

func (h *Handler) handleEditComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	commentID, ok := h.commentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[editCommentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	comment, err := h.service.EditComment(ctx, middleware.GetMemberID(r), commentID, req.Body)
	if err != nil {
		h.writeError(ctx, w, "edit comment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comment)
}

func (h *Handler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := h.commentID(w, r)
	if !ok {
		return
	}
	comment, err := h.service.DeleteComment(r.Context(), middleware.GetMemberID(r), commentID)
	if err != nil {
		h.writeError(r.Context(), w, "delete comment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comment)
}

func (h *Handler) handleVoteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	commentID, ok := h.commentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[voteRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	out, err := h.service.VoteComment(ctx, middleware.GetMemberID(r), commentID, *req.Value)
	if err != nil {
		h.writeError(ctx, w, "vote comment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVoteResponse(out))
}

func (h *Handler) handleMyCommentVote(w http.ResponseWriter, r *http.Request) {
	commentID, ok := h.commentID(w, r)
	if !ok {
		return
	}
	mine, err := h.service.MyCommentVote(r.Context(), middleware.GetMemberID(r), commentID)
	if err != nil {
		h.writeError(r.Context(), w, "my comment vote", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"comment_id": mine.CommentID, "value": mine.Vote.Int()})
}

func (h *Handler) postID(w http.ResponseWriter, r *http.Request) (id.PostID, bool) {
	postID, err := id.ParsePostID(chi.URLParam(r, "postID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid post id"))
		return id.PostID{}, false
	}
	return postID, true
}

func (h *Handler) commentID(w http.ResponseWriter, r *http.Request) (id.CommentID, bool) {
	commentID, err := id.ParseCommentID(chi.URLParam(r, "commentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid comment id"))
		return id.CommentID{}, false
	}
	return commentID, true
}

// page reads offset and limit; the service clamps them.
func (h *Handler) page(w http.ResponseWriter, r *http.Request) (models.Page, bool) {
	var page models.Page
	q := r.URL.Query()
	for name, dst := range map[string]*int{"offset": &page.Offset, "limit": &page.Limit} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, name+" must be an integer"))
			return models.Page{}, false
		}
		*dst = n
	}
	return page, true
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

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
