package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mingle/backend/internal/models"
)

func TestUserHandlerMeGet(t *testing.T) {
	store := newInMemoryUserStore()
	store.users["me@example.com"] = models.User{
		ID:          "user-1",
		Email:       "me@example.com",
		DisplayName: "Me",
		SocialLinks: []models.SocialLink{{Platform: "github", URL: "https://github.com/me"}},
	}
	handler := UserHandler{Users: store}

	req := authedRequest(http.MethodGet, "/api/v1/users/me", nil, "user-1")
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	var resp profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Profile.DisplayName != "Me" || len(resp.Profile.SocialLinks) != 1 {
		t.Fatalf("unexpected profile %+v", resp.Profile)
	}
}

func TestUserHandlerMeGetUnknownUser(t *testing.T) {
	handler := UserHandler{Users: newInMemoryUserStore()}

	req := authedRequest(http.MethodGet, "/api/v1/users/me", nil, "ghost")
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
}

func TestUserHandlerMeUpdate(t *testing.T) {
	store := newInMemoryUserStore()
	store.users["me@example.com"] = models.User{ID: "user-1", Email: "me@example.com", DisplayName: "Old"}

	now := time.Date(2024, time.May, 2, 9, 0, 0, 0, time.UTC)
	handler := UserHandler{Users: store, NowFunc: func() time.Time { return now }}

	name := "New Name"
	avatar := "https://cdn.example.com/a.png"
	links := []models.SocialLink{{Platform: "mastodon", URL: "https://example.social/@me"}}
	body, _ := json.Marshal(updateProfileRequest{DisplayName: &name, AvatarURL: &avatar, SocialLinks: &links})

	req := authedRequest(http.MethodPut, "/api/v1/users/me", bytes.NewReader(body), "user-1")
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	stored := store.users["me@example.com"]
	if stored.DisplayName != "New Name" || stored.AvatarURL != avatar {
		t.Fatalf("unexpected stored profile %+v", stored)
	}
	if !stored.UpdatedAt.Equal(now) {
		t.Fatalf("expected UpdatedAt %v, got %v", now, stored.UpdatedAt)
	}
}

func TestUserHandlerMeUpdateRejectsEmptyDisplayName(t *testing.T) {
	store := newInMemoryUserStore()
	store.users["me@example.com"] = models.User{ID: "user-1", Email: "me@example.com", DisplayName: "Old"}
	handler := UserHandler{Users: store}

	empty := "   "
	body, _ := json.Marshal(updateProfileRequest{DisplayName: &empty})

	req := authedRequest(http.MethodPut, "/api/v1/users/me", bytes.NewReader(body), "user-1")
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
	if store.users["me@example.com"].DisplayName != "Old" {
		t.Fatalf("display name should be unchanged")
	}
}

func TestUserHandlerSearch(t *testing.T) {
	svc := &fakeRelationshipService{
		users: []models.UserRef{{ID: "user-7", DisplayName: "Pat"}},
	}
	handler := UserHandler{Users: newInMemoryUserStore(), Relationships: svc}

	req := authedRequest(http.MethodGet, "/api/v1/users/search?q=pat", nil, "user-1")
	rec := httptest.NewRecorder()

	handler.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if svc.lastActor.ID != "user-1" || svc.lastArg != "pat" {
		t.Fatalf("unexpected search call actor=%+v query=%q", svc.lastActor, svc.lastArg)
	}

	var resp searchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Users) != 1 || resp.Users[0].ID != "user-7" {
		t.Fatalf("unexpected results %+v", resp.Users)
	}
}

func TestUserHandlerSearchRequiresQuery(t *testing.T) {
	handler := UserHandler{Users: newInMemoryUserStore(), Relationships: &fakeRelationshipService{}}

	req := authedRequest(http.MethodGet, "/api/v1/users/search", nil, "user-1")
	rec := httptest.NewRecorder()

	handler.Search(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
}
