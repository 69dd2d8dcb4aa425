// Package relationships implements the pairwise relationship state machine:
// who may create, accept, reject, block, and delete a relationship between
// two users, and how the listings are reshaped for a viewing user.
package relationships

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mingle/backend/internal/models"
	"github.com/mingle/backend/internal/repositories"
)

// Store captures the persistence operations required by the service. The
// implementation must enforce a uniqueness constraint on the relationship
// pair key: the service treats the resulting ErrConflict as the signal that
// it lost a creation race, not as a failure.
type Store interface {
	Create(ctx context.Context, rel models.Relationship) error
	FindByID(ctx context.Context, id string) (models.Relationship, error)
	FindByPair(ctx context.Context, userA, userB string) (models.Relationship, error)
	ListInvolving(ctx context.Context, userID string, status models.RelationshipStatus) ([]models.Relationship, error)
	UpdateStatus(ctx context.Context, id string, status models.RelationshipStatus, updatedAt time.Time) (models.Relationship, error)
	Delete(ctx context.Context, id string) error
}

// UserDirectory resolves user identifiers to profile data for existence
// checks and presentation reshaping. User storage is owned elsewhere.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	Search(ctx context.Context, query string, excludeIDs []string, limit int) ([]models.User, error)
}

// Actor is the authenticated caller on whose behalf an operation runs.
type Actor struct {
	ID    string
	Admin bool
}

// Service validates requests, applies the transition policy and authorization
// rules, and shapes results for presentation.
type Service struct {
	Relationships Store
	Users         UserDirectory
	NowFunc       func() time.Time
}

// NewService constructs a Service over the provided collaborators.
func NewService(store Store, users UserDirectory) *Service {
	return &Service{Relationships: store, Users: users}
}

// FriendEntry is a listing row reshaped to expose the counterpart of the
// viewing user together with the relationship handle.
type FriendEntry struct {
	RelationshipID string         `json:"relationshipId"`
	User           models.UserRef `json:"user"`
}

// View is the populated relationship projection returned by pending listings.
type View struct {
	ID        string                    `json:"id"`
	Requester models.UserRef            `json:"requester"`
	Recipient models.UserRef            `json:"recipient"`
	Status    models.RelationshipStatus `json:"status"`
	CreatedAt time.Time                 `json:"createdAt"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

// PendingView splits a user's pending relationships by direction.
type PendingView struct {
	Incoming []View `json:"incoming"`
	Outgoing []View `json:"outgoing"`
}

const searchLimit = 20

// Create opens a pending relationship from the actor to the recipient. The
// actor is always the requester. Create is idempotent: when a record for the
// pair already exists, in either orientation and any status, that record is
// returned with created == false.
//
// The pre-check below is an optimization only. Two concurrent creates for the
// same pair can both miss it; correctness comes from the store's pair-key
// uniqueness constraint, whose ErrConflict tells the losing writer to re-read
// and return the winner's record.
func (s *Service) Create(ctx context.Context, actor Actor, recipientID string) (models.Relationship, bool, error) {
	if recipientID == "" {
		return models.Relationship{}, false, fmt.Errorf("%w: recipient is required", ErrInvalidArgument)
	}
	if recipientID == actor.ID {
		return models.Relationship{}, false, fmt.Errorf("%w: cannot create a relationship with yourself", ErrInvalidArgument)
	}

	if _, err := s.Users.FindByID(ctx, recipientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Relationship{}, false, fmt.Errorf("%w: recipient %s", ErrNotFound, recipientID)
		}
		return models.Relationship{}, false, unavailable("resolve recipient", err)
	}

	existing, err := s.Relationships.FindByPair(ctx, actor.ID, recipientID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return models.Relationship{}, false, unavailable("check existing relationship", err)
	}

	now := s.now()
	rel := models.Relationship{
		ID:        uuid.NewString(),
		Requester: actor.ID,
		Recipient: recipientID,
		PairKey:   models.PairKey(actor.ID, recipientID),
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Relationships.Create(ctx, rel); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			// Lost the race: another request persisted the pair first.
			winner, err := s.Relationships.FindByPair(ctx, actor.ID, recipientID)
			if err != nil {
				return models.Relationship{}, false, unavailable("read winning relationship", err)
			}
			return winner, false, nil
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Relationship{}, false, fmt.Errorf("%w: recipient %s", ErrNotFound, recipientID)
		}
		return models.Relationship{}, false, unavailable("create relationship", err)
	}

	return rel, true, nil
}

// Accept transitions a pending relationship to accepted. Only the recipient
// may accept, and only while the relationship is pending.
func (s *Service) Accept(ctx context.Context, actor Actor, relationshipID string) (models.Relationship, error) {
	return s.respond(ctx, actor, relationshipID, models.StatusAccepted)
}

// Reject transitions a pending relationship to rejected. The record is kept:
// a rejected pair can only be re-requested after an explicit delete.
func (s *Service) Reject(ctx context.Context, actor Actor, relationshipID string) (models.Relationship, error) {
	return s.respond(ctx, actor, relationshipID, models.StatusRejected)
}

func (s *Service) respond(ctx context.Context, actor Actor, relationshipID string, target models.RelationshipStatus) (models.Relationship, error) {
	rel, err := s.load(ctx, relationshipID)
	if err != nil {
		return models.Relationship{}, err
	}

	if rel.Recipient != actor.ID {
		return models.Relationship{}, fmt.Errorf("%w: only the recipient may respond to a request", ErrForbidden)
	}
	if rel.Status != models.StatusPending {
		return models.Relationship{}, fmt.Errorf("%w: relationship is %s, not pending", ErrInvalidState, rel.Status)
	}

	return s.transition(ctx, rel.ID, target)
}

// Block transitions a relationship to blocked. Either party may block, from
// any current status.
func (s *Service) Block(ctx context.Context, actor Actor, relationshipID string) (models.Relationship, error) {
	rel, err := s.load(ctx, relationshipID)
	if err != nil {
		return models.Relationship{}, err
	}

	if !rel.Involves(actor.ID) {
		return models.Relationship{}, fmt.Errorf("%w: not a party to this relationship", ErrForbidden)
	}

	return s.transition(ctx, rel.ID, models.StatusBlocked)
}

// Delete removes a relationship permanently. Either party may delete,
// regardless of status; administrators may delete any relationship. The pair
// becomes available for a fresh request afterwards.
func (s *Service) Delete(ctx context.Context, actor Actor, relationshipID string) error {
	rel, err := s.load(ctx, relationshipID)
	if err != nil {
		return err
	}

	if !rel.Involves(actor.ID) && !actor.Admin {
		return fmt.Errorf("%w: not a party to this relationship", ErrForbidden)
	}

	if err := s.Relationships.Delete(ctx, rel.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: relationship %s", ErrNotFound, relationshipID)
		}
		return unavailable("delete relationship", err)
	}
	return nil
}

// Unfriend deletes the relationship between the actor and the counterpart,
// whatever its orientation or status.
func (s *Service) Unfriend(ctx context.Context, actor Actor, counterpartID string) error {
	if counterpartID == "" {
		return fmt.Errorf("%w: counterpart is required", ErrInvalidArgument)
	}

	rel, err := s.Relationships.FindByPair(ctx, actor.ID, counterpartID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: no relationship with %s", ErrNotFound, counterpartID)
		}
		return unavailable("find relationship by pair", err)
	}

	return s.Delete(ctx, actor, rel.ID)
}

// Friends lists the accepted relationships involving userID, reshaped to the
// counterpart's profile.
func (s *Service) Friends(ctx context.Context, userID string) ([]FriendEntry, error) {
	return s.counterparts(ctx, userID, models.StatusAccepted)
}

// Blocked lists the blocked relationships involving userID, reshaped to the
// counterpart's profile.
func (s *Service) Blocked(ctx context.Context, userID string) ([]FriendEntry, error) {
	return s.counterparts(ctx, userID, models.StatusBlocked)
}

func (s *Service) counterparts(ctx context.Context, userID string, status models.RelationshipStatus) ([]FriendEntry, error) {
	rels, err := s.Relationships.ListInvolving(ctx, userID, status)
	if err != nil {
		return nil, unavailable("list relationships", err)
	}

	refs, err := s.resolveRefs(ctx, rels)
	if err != nil {
		return nil, err
	}

	entries := make([]FriendEntry, 0, len(rels))
	for _, rel := range rels {
		ref, ok := refs[rel.Other(userID)]
		if !ok {
			continue
		}
		entries = append(entries, FriendEntry{RelationshipID: rel.ID, User: ref})
	}
	return entries, nil
}

// Pending lists the pending relationships involving userID, split into
// incoming (user is the recipient) and outgoing (user is the requester),
// with both endpoints populated.
func (s *Service) Pending(ctx context.Context, userID string) (PendingView, error) {
	rels, err := s.Relationships.ListInvolving(ctx, userID, models.StatusPending)
	if err != nil {
		return PendingView{}, unavailable("list pending relationships", err)
	}

	refs, err := s.resolveRefs(ctx, rels)
	if err != nil {
		return PendingView{}, err
	}

	view := PendingView{Incoming: []View{}, Outgoing: []View{}}
	for _, rel := range rels {
		v := View{
			ID:        rel.ID,
			Requester: refs[rel.Requester],
			Recipient: refs[rel.Recipient],
			Status:    rel.Status,
			CreatedAt: rel.CreatedAt,
			UpdatedAt: rel.UpdatedAt,
		}
		if rel.Recipient == userID {
			view.Incoming = append(view.Incoming, v)
		} else {
			view.Outgoing = append(view.Outgoing, v)
		}
	}
	return view, nil
}

// SearchUsers finds users matching the query by display name or email,
// excluding the actor and every user already related to the actor in any
// status, so discovery never resurfaces existing connections or blocks.
func (s *Service) SearchUsers(ctx context.Context, actor Actor, query string) ([]models.UserRef, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrInvalidArgument)
	}

	rels, err := s.Relationships.ListInvolving(ctx, actor.ID, "")
	if err != nil {
		return nil, unavailable("list relationships", err)
	}

	exclude := make([]string, 0, len(rels)+1)
	exclude = append(exclude, actor.ID)
	for _, rel := range rels {
		exclude = append(exclude, rel.Other(actor.ID))
	}

	users, err := s.Users.Search(ctx, query, exclude, searchLimit)
	if err != nil {
		return nil, unavailable("search users", err)
	}

	refs := make([]models.UserRef, 0, len(users))
	for _, user := range users {
		refs = append(refs, user.Ref())
	}
	return refs, nil
}

func (s *Service) load(ctx context.Context, relationshipID string) (models.Relationship, error) {
	if relationshipID == "" {
		return models.Relationship{}, fmt.Errorf("%w: relationship id is required", ErrInvalidArgument)
	}

	rel, err := s.Relationships.FindByID(ctx, relationshipID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Relationship{}, fmt.Errorf("%w: relationship %s", ErrNotFound, relationshipID)
		}
		return models.Relationship{}, unavailable("find relationship", err)
	}
	return rel, nil
}

func (s *Service) transition(ctx context.Context, id string, target models.RelationshipStatus) (models.Relationship, error) {
	rel, err := s.Relationships.UpdateStatus(ctx, id, target, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Relationship{}, fmt.Errorf("%w: relationship %s", ErrNotFound, id)
		}
		return models.Relationship{}, unavailable("update relationship status", err)
	}
	return rel, nil
}

// resolveRefs loads the profile projections for every endpoint in rels.
// Unresolvable users are simply absent from the returned map.
func (s *Service) resolveRefs(ctx context.Context, rels []models.Relationship) (map[string]models.UserRef, error) {
	seen := make(map[string]struct{}, len(rels)*2)
	ids := make([]string, 0, len(rels)*2)
	for _, rel := range rels {
		for _, id := range []string{rel.Requester, rel.Recipient} {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return map[string]models.UserRef{}, nil
	}

	users, err := s.Users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, unavailable("resolve users", err)
	}

	refs := make(map[string]models.UserRef, len(users))
	for _, user := range users {
		refs[user.ID] = user.Ref()
	}
	return refs, nil
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
