package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mingle/backend/internal/logging"
	"github.com/mingle/backend/internal/models"
	"github.com/mingle/backend/internal/repositories"
)

// UserHandler serves profile and user discovery endpoints.
type UserHandler struct {
	Users         UserStore
	Relationships RelationshipService
	NowFunc       func() time.Time
}

// Me handles GET and PUT /api/v1/users/me requests.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getProfile(w, r)
	case http.MethodPut:
		h.updateProfile(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := actorFromRequest(r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, errorPayload("authentication required"))
		return
	}

	user, err := h.Users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, errorPayload("profile not found"))
			return
		}
		logging.FromContext(ctx).Error("profile lookup failed", "error", err, "userId", actor.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, errorPayload("unable to load profile"))
		return
	}

	respondJSON(ctx, w, http.StatusOK, profileResponse{Profile: toProfilePayload(user)})
}

func (h UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := actorFromRequest(r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, errorPayload("authentication required"))
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("invalid request body"))
		return
	}

	user, err := h.Users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, errorPayload("profile not found"))
			return
		}
		logger.Error("profile lookup failed", "error", err, "userId", actor.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, errorPayload("unable to load profile"))
		return
	}

	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			respondJSON(ctx, w, http.StatusBadRequest, errorPayload("display name must not be empty"))
			return
		}
		user.DisplayName = name
	}
	if req.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*req.AvatarURL)
	}
	if req.SocialLinks != nil {
		for _, link := range *req.SocialLinks {
			if strings.TrimSpace(link.Platform) == "" || strings.TrimSpace(link.URL) == "" {
				respondJSON(ctx, w, http.StatusBadRequest, errorPayload("social links require a platform and a url"))
				return
			}
		}
		user.SocialLinks = *req.SocialLinks
	}
	user.UpdatedAt = h.now()

	if err := h.Users.Update(ctx, user); err != nil {
		logger.Error("profile update failed", "error", err, "userId", actor.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, errorPayload("unable to update profile"))
		return
	}

	respondJSON(ctx, w, http.StatusOK, profileResponse{Profile: toProfilePayload(user)})
}

// Search handles GET /api/v1/users/search?q= requests. Results exclude the
// caller and anyone they already share a relationship with.
func (h UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	actor, ok := actorFromRequest(r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, errorPayload("authentication required"))
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("query parameter q is required"))
		return
	}

	results, err := h.Relationships.SearchUsers(ctx, actor, query)
	if err != nil {
		respondRelationshipError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, searchResponse{Users: results})
}

type updateProfileRequest struct {
	DisplayName *string              `json:"displayName"`
	AvatarURL   *string              `json:"avatarUrl"`
	SocialLinks *[]models.SocialLink `json:"socialLinks"`
}

type profilePayload struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	DisplayName string              `json:"displayName"`
	AvatarURL   string              `json:"avatarUrl"`
	SocialLinks []models.SocialLink `json:"socialLinks"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

func toProfilePayload(user models.User) profilePayload {
	links := user.SocialLinks
	if links == nil {
		links = []models.SocialLink{}
	}
	return profilePayload{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		SocialLinks: links,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

type profileResponse struct {
	Profile profilePayload `json:"profile"`
}

type searchResponse struct {
	Users []models.UserRef `json:"users"`
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
