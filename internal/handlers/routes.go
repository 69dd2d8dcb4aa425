package handlers

import (
	"net/http"

	"github.com/mingle/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Relationships RelationshipService
	Posts         PostStore
	Media         MediaStorage
	Verifier      middleware.TokenVerifier
	AuthLimiter   RateLimiter
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. All /api/v1
// routes except the auth endpoints require a bearer access token.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	authH := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	rels := RelationshipHandler{Relationships: deps.Relationships}
	friends := FriendHandler{Relationships: deps.Relationships}
	users := UserHandler{Users: deps.Users, Relationships: deps.Relationships}
	posts := PostHandler{Posts: deps.Posts}
	media := MediaHandler{Storage: deps.Media}

	authed := middleware.Authenticate(deps.Verifier)
	protect := func(h http.HandlerFunc) http.Handler {
		return authed(h)
	}

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("/api/v1/auth/signup", authH.SignUp)
	mux.HandleFunc("/api/v1/auth/login", authH.Login)
	mux.HandleFunc("/api/v1/auth/refresh", authH.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", authH.Logout)

	mux.Handle("/api/v1/relationships", protect(rels.Create))
	mux.Handle("/api/v1/relationships/{id}", protect(rels.Delete))
	mux.Handle("/api/v1/relationships/{id}/accept", protect(rels.Accept))
	mux.Handle("/api/v1/relationships/{id}/reject", protect(rels.Reject))
	mux.Handle("/api/v1/relationships/{id}/block", protect(rels.Block))

	mux.Handle("/api/v1/friends", protect(friends.List))
	mux.Handle("/api/v1/friends/requests", protect(friends.Requests))
	mux.Handle("/api/v1/friends/blocked", protect(friends.Blocked))
	mux.Handle("/api/v1/friends/{userId}", protect(friends.Unfriend))

	mux.Handle("/api/v1/users/me", protect(users.Me))
	mux.Handle("/api/v1/users/search", protect(users.Search))

	mux.Handle("/api/v1/posts", protect(posts.Create))
	mux.Handle("/api/v1/posts/feed", protect(posts.Feed))
	mux.Handle("/api/v1/posts/{id}/react", protect(posts.React))
	mux.Handle("/api/v1/posts/{id}/comments", protect(posts.Comments))

	mux.Handle("/api/v1/media", protect(media.Upload))
}
