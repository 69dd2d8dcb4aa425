package handlers

import (
	"context"
	"io"

	"github.com/mingle/backend/internal/models"
	"github.com/mingle/backend/internal/relationships"
)

// UserStore captures the persistence operations required by the auth and
// profile handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	Update(ctx context.Context, user models.User) error
}

// SessionManager issues, refreshes and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string, admin bool) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// RelationshipService drives the friend-request lifecycle on behalf of the
// HTTP layer.
type RelationshipService interface {
	Create(ctx context.Context, actor relationships.Actor, recipientID string) (models.Relationship, bool, error)
	Accept(ctx context.Context, actor relationships.Actor, relationshipID string) (models.Relationship, error)
	Reject(ctx context.Context, actor relationships.Actor, relationshipID string) (models.Relationship, error)
	Block(ctx context.Context, actor relationships.Actor, relationshipID string) (models.Relationship, error)
	Delete(ctx context.Context, actor relationships.Actor, relationshipID string) error
	Unfriend(ctx context.Context, actor relationships.Actor, counterpartID string) error
	Friends(ctx context.Context, userID string) ([]relationships.FriendEntry, error)
	Pending(ctx context.Context, userID string) (relationships.PendingView, error)
	Blocked(ctx context.Context, userID string) ([]relationships.FriendEntry, error)
	SearchUsers(ctx context.Context, actor relationships.Actor, query string) ([]models.UserRef, error)
}

// PostStore captures persistence for the activity feed.
type PostStore interface {
	Create(ctx context.Context, post models.Post) error
	ListFeed(ctx context.Context, limit int) ([]models.Post, error)
	React(ctx context.Context, reaction models.Reaction) error
	AddComment(ctx context.Context, comment models.Comment) error
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
}

// MediaStorage persists uploaded files and returns their public location.
type MediaStorage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}
