package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mingle/backend/internal/logging"
	"github.com/mingle/backend/internal/middleware"
	"github.com/mingle/backend/internal/models"
	"github.com/mingle/backend/internal/relationships"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func errorPayload(message string) map[string]string {
	return map[string]string{"error": message}
}

// actorFromRequest resolves the authenticated caller placed on the context by
// the authentication middleware.
func actorFromRequest(r *http.Request) (relationships.Actor, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok || identity.UserID == "" {
		return relationships.Actor{}, false
	}
	return relationships.Actor{ID: identity.UserID, Admin: identity.Admin}, true
}

// relationshipPayload is the wire representation of a relationship record.
type relationshipPayload struct {
	ID          string                    `json:"id"`
	RequesterID string                    `json:"requesterId"`
	RecipientID string                    `json:"recipientId"`
	Status      models.RelationshipStatus `json:"status"`
	CreatedAt   time.Time                 `json:"createdAt"`
	UpdatedAt   time.Time                 `json:"updatedAt"`
}

func toRelationshipPayload(rel models.Relationship) relationshipPayload {
	return relationshipPayload{
		ID:          rel.ID,
		RequesterID: rel.Requester,
		RecipientID: rel.Recipient,
		Status:      rel.Status,
		CreatedAt:   rel.CreatedAt,
		UpdatedAt:   rel.UpdatedAt,
	}
}

// respondRelationshipError translates service sentinels into HTTP statuses.
func respondRelationshipError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, relationships.ErrInvalidArgument):
		respondJSON(ctx, w, http.StatusBadRequest, errorPayload(err.Error()))
	case errors.Is(err, relationships.ErrForbidden):
		respondJSON(ctx, w, http.StatusForbidden, errorPayload("you are not allowed to perform this action"))
	case errors.Is(err, relationships.ErrNotFound):
		respondJSON(ctx, w, http.StatusNotFound, errorPayload("relationship not found"))
	case errors.Is(err, relationships.ErrInvalidState):
		respondJSON(ctx, w, http.StatusConflict, errorPayload("relationship is not in a state that allows this action"))
	case errors.Is(err, relationships.ErrUnavailable):
		logging.FromContext(ctx).Error("relationship operation failed", "error", err)
		respondJSON(ctx, w, http.StatusServiceUnavailable, errorPayload("service temporarily unavailable"))
	default:
		logging.FromContext(ctx).Error("relationship operation failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, errorPayload("internal error"))
	}
}
