package models

import (
	"strings"
	"time"
)

// User represents an account within the Mingle platform.
type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	AvatarURL   string
	SocialLinks []SocialLink
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SocialLink points at a user's profile on another platform.
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// UserRef is the reduced user projection embedded in relationship and post
// payloads. It never carries credentials or contact details.
type UserRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// Ref returns the presentation projection of a user.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL}
}

// RelationshipStatus defines the state of a relationship between two users.
type RelationshipStatus string

const (
	// StatusPending means a request has been sent but not yet answered.
	StatusPending RelationshipStatus = "pending"
	// StatusAccepted means the request was accepted and the users are friends.
	StatusAccepted RelationshipStatus = "accepted"
	// StatusRejected means the recipient declined the request. The record is
	// kept; sending a new request requires deleting it first.
	StatusRejected RelationshipStatus = "rejected"
	// StatusBlocked means one party blocked the other.
	StatusBlocked RelationshipStatus = "blocked"
)

// Valid reports whether s is one of the known relationship states.
func (s RelationshipStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusBlocked:
		return true
	}
	return false
}

// Relationship records the pairwise state between two users. Requester and
// Recipient are semantically ordered (who initiated) but the pair is
// unordered for uniqueness: PairKey is identical for both orientations and
// carries a unique constraint in storage, so at most one record can exist
// for any pair of users.
type Relationship struct {
	ID        string
	Requester string
	Recipient string
	PairKey   string
	Status    RelationshipStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Other returns the counterpart of userID within the relationship.
func (r Relationship) Other(userID string) string {
	if r.Requester == userID {
		return r.Recipient
	}
	return r.Requester
}

// Involves reports whether userID is one of the relationship's endpoints.
func (r Relationship) Involves(userID string) bool {
	return r.Requester == userID || r.Recipient == userID
}

// PairKey derives the canonical, order-independent key for a pair of user
// ids: the two ids sorted lexicographically and joined with a colon.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

// Post is a user-authored feed entry, optionally carrying an uploaded media URL.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	MediaURL  string    `json:"mediaUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Reaction records a single user's reaction to a post. A user has at most
// one reaction per post; reacting again replaces the previous one.
type Reaction struct {
	PostID    string
	UserID    string
	Type      string
	CreatedAt time.Time
}

// ReactionTypes lists the accepted reaction kinds.
var ReactionTypes = []string{"like", "heart", "smile", "sad", "angry"}

// ValidReactionType reports whether t is an accepted reaction kind.
func ValidReactionType(t string) bool {
	for _, known := range ReactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Comment is a user comment on a post.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
