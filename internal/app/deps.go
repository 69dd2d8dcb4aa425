package app

import (
	"context"
	"fmt"
	"time"

	"github.com/mingle/backend/internal/auth"
	"github.com/mingle/backend/internal/config"
	"github.com/mingle/backend/internal/db"
	"github.com/mingle/backend/internal/handlers"
	"github.com/mingle/backend/internal/middleware"
	"github.com/mingle/backend/internal/relationships"
	"github.com/mingle/backend/internal/repositories"
	"github.com/mingle/backend/internal/storage"
)

// Login attempts allowed per IP within the rate-limit window.
const (
	authRateRequests = 10
	authRateWindow   = time.Minute
	authRateBurst    = 5
	authRateTTL      = 15 * time.Minute
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. Media storage is optional: when no bucket is configured the
// upload endpoint reports itself unavailable instead of failing startup.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)
	rels := repositories.NewPostgresRelationshipRepository(pool)
	posts := repositories.NewPostgresPostRepository(pool)
	sessionStore := repositories.NewPostgresSessionStore(pool)

	sessions := auth.NewManager([]byte(cfg.SessionSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL, sessionStore)

	var media handlers.MediaStorage
	if cfg.ObjectStore.Enabled() {
		s3, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, fmt.Errorf("configure media storage: %w", err)
		}
		media = s3
	}

	return handlers.Dependencies{
		Users:         users,
		Sessions:      sessions,
		Relationships: relationships.NewService(rels, users),
		Posts:         posts,
		Media:         media,
		Verifier:      sessions,
		AuthLimiter:   middleware.NewIPRateLimiter(authRateRequests, authRateWindow, authRateBurst, authRateTTL),
	}, nil
}
