package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mingle/backend/internal/logging"
	"github.com/mingle/backend/internal/models"
	"github.com/mingle/backend/internal/relationships"
)

// RelationshipHandler exposes the friend-request lifecycle over HTTP.
type RelationshipHandler struct {
	Relationships RelationshipService
}

// Create handles POST /api/v1/relationships requests. Repeated requests for
// the same pair return the existing record with a 200 instead of a 201.
func (h RelationshipHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req createRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid relationship payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("invalid request body"))
		return
	}

	ctx, span := logging.StartSpan(ctx, "relationships.create")
	rel, created, err := h.Relationships.Create(ctx, actor, strings.TrimSpace(req.RecipientID))
	span.End()
	if err != nil {
		respondRelationshipError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(ctx, w, status, relationshipResponse{Relationship: toRelationshipPayload(rel)})
}

// Accept handles POST /api/v1/relationships/{id}/accept requests.
func (h RelationshipHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.Relationships.Accept)
}

// Reject handles POST /api/v1/relationships/{id}/reject requests.
func (h RelationshipHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.Relationships.Reject)
}

// Block handles POST /api/v1/relationships/{id}/block requests.
func (h RelationshipHandler) Block(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.Relationships.Block)
}

// Delete handles DELETE /api/v1/relationships/{id} requests.
func (h RelationshipHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	id := r.PathValue("id")
	if id == "" {
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("relationship id is required"))
		return
	}

	if err := h.Relationships.Delete(ctx, actor, id); err != nil {
		respondRelationshipError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

type transitionFunc = func(ctx context.Context, actor relationships.Actor, relationshipID string) (models.Relationship, error)

func (h RelationshipHandler) respond(w http.ResponseWriter, r *http.Request, transition transitionFunc) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	actor, ok := actorFromRequest(r)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, errorPayload("authentication required"))
		return
	}

	id := r.PathValue("id")
	if id == "" {
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload("relationship id is required"))
		return
	}

	rel, err := transition(ctx, actor, id)
	if err != nil {
		respondRelationshipError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, relationshipResponse{Relationship: toRelationshipPayload(rel)})
}

type createRelationshipRequest struct {
	RecipientID string `json:"recipientId"`
}

type relationshipResponse struct {
	Relationship relationshipPayload `json:"relationship"`
}
