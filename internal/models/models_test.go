package models

import "testing"

func TestPairKeyOrderIndependent(t *testing.T) {
	cases := []struct {
		a, b string
		want string
	}{
		{"user-1", "user-2", "user-1:user-2"},
		{"user-2", "user-1", "user-1:user-2"},
		{"b", "a", "a:b"},
		{"a", "a", "a:a"},
	}

	for _, tc := range cases {
		if got := PairKey(tc.a, tc.b); got != tc.want {
			t.Fatalf("PairKey(%q, %q) = %q, want %q", tc.a, tc.b, got, tc.want)
		}
	}

	if PairKey("alice", "bob") != PairKey("bob", "alice") {
		t.Fatalf("expected pair key to be symmetric")
	}
}

func TestRelationshipOther(t *testing.T) {
	rel := Relationship{Requester: "user-1", Recipient: "user-2"}

	if got := rel.Other("user-1"); got != "user-2" {
		t.Fatalf("expected counterpart user-2, got %q", got)
	}
	if got := rel.Other("user-2"); got != "user-1" {
		t.Fatalf("expected counterpart user-1, got %q", got)
	}

	if !rel.Involves("user-1") || !rel.Involves("user-2") {
		t.Fatalf("expected both endpoints to be involved")
	}
	if rel.Involves("user-3") {
		t.Fatalf("expected user-3 to not be involved")
	}
}

func TestRelationshipStatusValid(t *testing.T) {
	for _, s := range []RelationshipStatus{StatusPending, StatusAccepted, StatusRejected, StatusBlocked} {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	if RelationshipStatus("approved").Valid() {
		t.Fatalf("expected unknown status to be invalid")
	}
}

func TestValidReactionType(t *testing.T) {
	if !ValidReactionType("heart") {
		t.Fatalf("expected heart to be a valid reaction")
	}
	if ValidReactionType("thumbsdown") {
		t.Fatalf("expected thumbsdown to be rejected")
	}
}
