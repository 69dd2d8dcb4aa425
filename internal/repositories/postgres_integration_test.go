package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mingle/backend/internal/auth"
	"github.com/mingle/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateFindAndUpdate(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)

	user := models.User{
		ID:          uuid.NewString(),
		Email:       "alice@example.com",
		Password:    "secret-hash",
		DisplayName: "Alice",
		SocialLinks: []models.SocialLink{{Platform: "github", URL: "https://github.com/alice"}},
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	dup := models.User{
		ID:        uuid.NewString(),
		Email:     user.Email,
		Password:  "another-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when creating duplicate email, got %v", err)
	}

	fetched, err := repo.FindByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}

	if fetched.ID != user.ID || fetched.Email != user.Email || fetched.Password != user.Password {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}
	if len(fetched.SocialLinks) != 1 || fetched.SocialLinks[0].Platform != "github" {
		t.Fatalf("expected social links to round-trip, got %+v", fetched.SocialLinks)
	}

	updated := fetched
	updated.DisplayName = "Alice Updated"
	updated.AvatarURL = "https://cdn.example.com/alice.png"
	updated.UpdatedAt = time.Now().UTC().Add(time.Minute)

	if err := repo.Update(ctx, updated); err != nil {
		t.Fatalf("update user: %v", err)
	}

	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}

	if fetched.DisplayName != updated.DisplayName || fetched.AvatarURL != updated.AvatarURL {
		t.Fatalf("expected updated fields to persist, got %+v", fetched)
	}

	missing := models.User{
		ID:        uuid.NewString(),
		Email:     "missing@example.com",
		Password:  "hash",
		UpdatedAt: time.Now().UTC(),
	}

	if err := repo.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing user, got %v", err)
	}
}

func TestPostgresUserRepository_FindByIDs(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	alice := createTestUser(t, repo, "alice@example.com", "Alice")
	bob := createTestUser(t, repo, "bob@example.com", "Bob")
	createTestUser(t, repo, "carol@example.com", "Carol")

	users, err := repo.FindByIDs(ctx, []string{alice.ID, bob.ID})
	if err != nil {
		t.Fatalf("find by ids: %v", err)
	}

	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	users, err = repo.FindByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("find by empty ids: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no users for empty id list, got %d", len(users))
	}
}

func TestPostgresUserRepository_SearchExcludes(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	alice := createTestUser(t, repo, "alice@example.com", "Annie")
	annie := createTestUser(t, repo, "annie@example.com", "Annie Other")
	createTestUser(t, repo, "bob@example.com", "Bob")

	results, err := repo.Search(ctx, "annie", []string{alice.ID}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(results) != 1 || results[0].ID != annie.ID {
		t.Fatalf("expected only the non-excluded match, got %+v", results)
	}
}

func TestPostgresRelationshipRepository_PairUniqueness(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	alice := createTestUser(t, userRepo, "alice@example.com", "Alice")
	bob := createTestUser(t, userRepo, "bob@example.com", "Bob")

	repo := NewPostgresRelationshipRepository(testPool)

	rel := testRelationship(alice.ID, bob.ID, models.StatusPending)
	if err := repo.Create(ctx, rel); err != nil {
		t.Fatalf("create relationship: %v", err)
	}

	// Same orientation.
	dup := testRelationship(alice.ID, bob.ID, models.StatusPending)
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate pair, got %v", err)
	}

	// Reversed orientation shares the pair key and must conflict too.
	reversed := testRelationship(bob.ID, alice.ID, models.StatusPending)
	if err := repo.Create(ctx, reversed); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for reversed pair, got %v", err)
	}

	found, err := repo.FindByPair(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("find by pair reversed: %v", err)
	}
	if found.ID != rel.ID {
		t.Fatalf("expected the original record, got %+v", found)
	}
}

func TestPostgresRelationshipRepository_CreateRequiresUsers(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresRelationshipRepository(testPool)

	rel := testRelationship(uuid.NewString(), uuid.NewString(), models.StatusPending)
	if err := repo.Create(ctx, rel); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown participants, got %v", err)
	}
}

func TestPostgresRelationshipRepository_ListUpdateDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	alice := createTestUser(t, userRepo, "alice@example.com", "Alice")
	bob := createTestUser(t, userRepo, "bob@example.com", "Bob")
	carol := createTestUser(t, userRepo, "carol@example.com", "Carol")

	repo := NewPostgresRelationshipRepository(testPool)

	accepted := testRelationship(alice.ID, bob.ID, models.StatusAccepted)
	pending := testRelationship(carol.ID, alice.ID, models.StatusPending)
	for _, rel := range []models.Relationship{accepted, pending} {
		if err := repo.Create(ctx, rel); err != nil {
			t.Fatalf("create relationship: %v", err)
		}
	}

	all, err := repo.ListInvolving(ctx, alice.ID, "")
	if err != nil {
		t.Fatalf("list involving: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 relationships, got %d", len(all))
	}

	onlyAccepted, err := repo.ListInvolving(ctx, alice.ID, models.StatusAccepted)
	if err != nil {
		t.Fatalf("list accepted: %v", err)
	}
	if len(onlyAccepted) != 1 || onlyAccepted[0].ID != accepted.ID {
		t.Fatalf("unexpected accepted listing %+v", onlyAccepted)
	}

	updatedAt := time.Now().UTC().Add(time.Minute)
	updated, err := repo.UpdateStatus(ctx, pending.ID, models.StatusAccepted, updatedAt)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != models.StatusAccepted {
		t.Fatalf("expected accepted status, got %s", updated.Status)
	}

	if _, err := repo.UpdateStatus(ctx, uuid.NewString(), models.StatusAccepted, updatedAt); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}

	if err := repo.Delete(ctx, accepted.ID); err != nil {
		t.Fatalf("delete relationship: %v", err)
	}
	if err := repo.Delete(ctx, accepted.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}

	// A deleted pair can be recreated.
	again := testRelationship(alice.ID, bob.ID, models.StatusPending)
	if err := repo.Create(ctx, again); err != nil {
		t.Fatalf("recreate relationship after delete: %v", err)
	}
}

func TestPostgresSessionStore_SaveFindAndDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, userRepo, "owner@example.com", "Owner")

	store := NewPostgresSessionStore(testPool)
	expires := time.Now().UTC().Add(24 * time.Hour)
	session := auth.Session{
		RefreshToken: uuid.NewString(),
		UserID:       user.ID,
		Admin:        true,
		ExpiresAt:    expires,
	}

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	loaded, err := store.Find(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find session: %v", err)
	}

	if loaded.UserID != session.UserID || !loaded.Admin || !timesClose(loaded.ExpiresAt, expires.UTC(), time.Millisecond) {
		t.Fatalf("unexpected session loaded: %+v", loaded)
	}

	updated := session
	updated.ExpiresAt = expires.Add(48 * time.Hour)
	if err := store.Save(ctx, updated); err != nil {
		t.Fatalf("update session: %v", err)
	}

	loaded, err = store.Find(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find session after update: %v", err)
	}

	if !timesClose(loaded.ExpiresAt, updated.ExpiresAt.UTC(), time.Millisecond) {
		t.Fatalf("expected updated expiry, got %v", loaded.ExpiresAt)
	}

	if err := store.Delete(ctx, session.RefreshToken); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	if _, err := store.Find(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}

	if err := store.Delete(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound deleting twice, got %v", err)
	}
}

func TestPostgresPostRepository_FeedReactionsAndComments(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	author := createTestUser(t, userRepo, "author@example.com", "Author")
	reader := createTestUser(t, userRepo, "reader@example.com", "Reader")

	repo := NewPostgresPostRepository(testPool)

	base := time.Now().UTC().Add(-time.Hour)
	older := models.Post{
		ID:        uuid.NewString(),
		AuthorID:  author.ID,
		Title:     "Older",
		CreatedAt: base,
		UpdatedAt: base,
	}
	newer := models.Post{
		ID:        uuid.NewString(),
		AuthorID:  author.ID,
		Title:     "Newer",
		Content:   "body",
		CreatedAt: base.Add(30 * time.Minute),
		UpdatedAt: base.Add(30 * time.Minute),
	}

	for _, post := range []models.Post{older, newer} {
		if err := repo.Create(ctx, post); err != nil {
			t.Fatalf("create post: %v", err)
		}
	}

	feed, err := repo.ListFeed(ctx, 10)
	if err != nil {
		t.Fatalf("list feed: %v", err)
	}
	if len(feed) != 2 || feed[0].ID != newer.ID || feed[1].ID != older.ID {
		t.Fatalf("unexpected feed order %+v", feed)
	}

	limited, err := repo.ListFeed(ctx, 1)
	if err != nil {
		t.Fatalf("list feed limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != newer.ID {
		t.Fatalf("expected only the newest post, got %+v", limited)
	}

	reaction := models.Reaction{PostID: newer.ID, UserID: reader.ID, Type: "like", CreatedAt: time.Now().UTC()}
	if err := repo.React(ctx, reaction); err != nil {
		t.Fatalf("react: %v", err)
	}

	// Reacting again replaces the previous reaction instead of conflicting.
	reaction.Type = "heart"
	if err := repo.React(ctx, reaction); err != nil {
		t.Fatalf("replace reaction: %v", err)
	}

	unknown := models.Reaction{PostID: uuid.NewString(), UserID: reader.ID, Type: "like", CreatedAt: time.Now().UTC()}
	if err := repo.React(ctx, unknown); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound reacting to unknown post, got %v", err)
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		PostID:    newer.ID,
		AuthorID:  reader.ID,
		Content:   "nice",
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.AddComment(ctx, comment); err != nil {
		t.Fatalf("add comment: %v", err)
	}

	comments, err := repo.ListComments(ctx, newer.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 1 || comments[0].Content != "nice" {
		t.Fatalf("unexpected comments %+v", comments)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE post_comments, post_reactions, posts, relationships, sessions, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, email, displayName string) models.User {
	t.Helper()
	user := models.User{
		ID:          uuid.NewString(),
		Email:       email,
		Password:    "password-hash",
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func testRelationship(requester, recipient string, status models.RelationshipStatus) models.Relationship {
	now := time.Now().UTC()
	return models.Relationship{
		ID:        uuid.NewString(),
		Requester: requester,
		Recipient: recipient,
		PairKey:   models.PairKey(requester, recipient),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func timesClose(a, b time.Time, delta time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= delta
}
