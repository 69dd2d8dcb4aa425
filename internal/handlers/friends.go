package handlers

import (
	"net/http"

	"github.com/mingle/backend/internal/relationships"
)

// FriendHandler serves the friend listings derived from relationship state.
type FriendHandler struct {
	Relationships RelationshipService
}

// List handles GET /api/v1/friends requests.
func (h FriendHandler) List(w http.ResponseWriter, r *http.Request) {
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

	friends, err := h.Relationships.Friends(ctx, actor.ID)
	if err != nil {
		respondRelationshipError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, friendListResponse{Friends: friends})
}

// Requests handles GET /api/v1/friends/requests, returning pending
// relationships split into incoming and outgoing.
func (h FriendHandler) Requests(w http.ResponseWriter, r *http.Request) {
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

	pending, err := h.Relationships.Pending(ctx, actor.ID)
	if err != nil {
		respondRelationshipError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, pending)
}

// Blocked handles GET /api/v1/friends/blocked requests.
func (h FriendHandler) Blocked(w http.ResponseWriter, r *http.Request) {
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

	blocked, err := h.Relationships.Blocked(ctx, actor.ID)
	if err != nil {
		respondRelationshipError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, friendListResponse{Friends: blocked})
}

// Unfriend handles DELETE /api/v1/friends/{userId}, removing the relationship
// with the given counterpart.
func (h FriendHandler) Unfriend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	actor, ok := actorFromRequest(r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, errorPayload("authentication required"))
		return
	}

	counterpartID := r.PathValue("userId")
	if counterpartID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("user id is required"))
		return
	}

	if err := h.Relationships.Unfriend(ctx, actor, counterpartID); err != nil {
		respondRelationshipError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "removed"})
}

type friendListResponse struct {
	Friends []relationships.FriendEntry `json:"friends"`
}
