package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mingle/backend/internal/logging"
	"github.com/mingle/backend/internal/models"
	"github.com/mingle/backend/internal/repositories"
)

const defaultFeedLimit = 50

// PostHandler serves the activity feed endpoints.
type PostHandler struct {
	Posts   PostStore
	NowFunc func() time.Time
}

// Create handles POST /api/v1/posts requests.
func (h PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := actorFromRequest(r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, errorPayload("authentication required"))
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid post payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("invalid request body"))
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("title is required"))
		return
	}

	now := h.now()
	post := models.Post{
		ID:        uuid.NewString(),
		AuthorID:  actor.ID,
		Title:     req.Title,
		Content:   strings.TrimSpace(req.Content),
		MediaURL:  strings.TrimSpace(req.MediaURL),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Posts.Create(ctx, post); err != nil {
		logger.Error("failed to create post", "error", err, "userId", actor.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, errorPayload("failed to create post"))
		return
	}

	respondJSON(ctx, w, http.StatusCreated, postResponse{Post: post})
}

// Feed handles GET /api/v1/posts/feed requests.
func (h PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if _, ok := actorFromRequest(r); !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, errorPayload("authentication required"))
		return
	}

	limit := defaultFeedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondJSON(ctx, w, http.StatusBadRequest, errorPayload("limit must be a positive integer"))
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	posts, err := h.Posts.ListFeed(ctx, limit)
	if err != nil {
		logging.FromContext(ctx).Error("failed to load feed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, errorPayload("failed to load feed"))
		return
	}

	respondJSON(ctx, w, http.StatusOK, feedResponse{Posts: posts})
}

// React handles POST /api/v1/posts/{id}/react requests. Reacting twice
// replaces the previous reaction.
func (h PostHandler) React(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := actorFromRequest(r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, errorPayload("authentication required"))
		return
	}

	postID := r.PathValue("id")
	if postID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("post id is required"))
		return
	}

	var req reactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reaction payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("invalid request body"))
		return
	}

	if !models.ValidReactionType(req.Type) {
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("unsupported reaction type"))
		return
	}

	reaction := models.Reaction{
		PostID:    postID,
		UserID:    actor.ID,
		Type:      req.Type,
		CreatedAt: h.now(),
	}

	if err := h.Posts.React(ctx, reaction); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, errorPayload("post not found"))
			return
		}
		logger.Error("failed to store reaction", "error", err, "postId", postID)
		respondJSON(ctx, w, http.StatusInternalServerError, errorPayload("failed to store reaction"))
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "reacted"})
}

// Comments handles POST and GET /api/v1/posts/{id}/comments requests.
func (h PostHandler) Comments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.addComment(w, r)
	case http.MethodGet:
		h.listComments(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h PostHandler) addComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := actorFromRequest(r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, errorPayload("authentication required"))
		return
	}

	postID := r.PathValue("id")
	if postID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("post id is required"))
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("invalid request body"))
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("content is required"))
		return
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		AuthorID:  actor.ID,
		Content:   req.Content,
		CreatedAt: h.now(),
	}

	if err := h.Posts.AddComment(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, errorPayload("post not found"))
			return
		}
		logger.Error("failed to store comment", "error", err, "postId", postID)
		respondJSON(ctx, w, http.StatusInternalServerError, errorPayload("failed to store comment"))
		return
	}

	respondJSON(ctx, w, http.StatusCreated, commentResponse{Comment: comment})
}

func (h PostHandler) listComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := actorFromRequest(r); !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, errorPayload("authentication required"))
		return
	}

	postID := r.PathValue("id")
	if postID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("post id is required"))
		return
	}

	comments, err := h.Posts.ListComments(ctx, postID)
	if err != nil {
		logging.FromContext(ctx).Error("failed to load comments", "error", err, "postId", postID)
		respondJSON(ctx, w, http.StatusInternalServerError, errorPayload("failed to load comments"))
		return
	}

	respondJSON(ctx, w, http.StatusOK, commentsResponse{Comments: comments})
}

type createPostRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	MediaURL string `json:"mediaUrl"`
}

type reactRequest struct {
	Type string `json:"type"`
}

type commentRequest struct {
	Content string `json:"content"`
}

type postResponse struct {
	Post models.Post `json:"post"`
}

type feedResponse struct {
	Posts []models.Post `json:"posts"`
}

type commentResponse struct {
	Comment models.Comment `json:"comment"`
}

type commentsResponse struct {
	Comments []models.Comment `json:"comments"`
}

func (h PostHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
