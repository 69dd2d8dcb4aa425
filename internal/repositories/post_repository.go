package repositories

import (
	"context"

	"github.com/mingle/backend/internal/models"
)

// PostRepository defines persistence for posts, reactions, and comments.
type PostRepository interface {
	Create(ctx context.Context, post models.Post) error
	ListFeed(ctx context.Context, limit int) ([]models.Post, error)
	React(ctx context.Context, reaction models.Reaction) error
	AddComment(ctx context.Context, comment models.Comment) error
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
}
