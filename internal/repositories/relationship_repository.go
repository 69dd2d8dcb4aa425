package repositories

import (
	"context"
	"time"

	"github.com/mingle/backend/internal/models"
)

// RelationshipRepository defines data access for pairwise user relationships.
// Implementations must enforce uniqueness on the relationship pair key and
// report violations as ErrConflict; the service layer depends on that signal
// to resolve concurrent creates.
type RelationshipRepository interface {
	Create(ctx context.Context, rel models.Relationship) error
	FindByID(ctx context.Context, id string) (models.Relationship, error)
	FindByPair(ctx context.Context, userA, userB string) (models.Relationship, error)
	ListInvolving(ctx context.Context, userID string, status models.RelationshipStatus) ([]models.Relationship, error)
	UpdateStatus(ctx context.Context, id string, status models.RelationshipStatus, updatedAt time.Time) (models.Relationship, error)
	Delete(ctx context.Context, id string) error
}
