package identity

import (
	"path/filepath"
	"regexp"
	"testing"
)

var userIDPattern = regexp.MustCompile(`^ipv6_user_[0-9a-z]{8}_[0-9a-z]+$`)
var roomIDPattern = regexp.MustCompile(`^ipv6_room_[0-9a-z]{8}_[0-9a-z]+$`)

func TestNewUserIDFormat(t *testing.T) {
	id := NewUserID()
	if !userIDPattern.MatchString(id) {
		t.Errorf("NewUserID() = %q, want match for %v", id, userIDPattern)
	}
	if id == NewUserID() {
		t.Error("two minted user ids collided")
	}
}

func TestNewRoomIDFormat(t *testing.T) {
	id := NewRoomID()
	if !roomIDPattern.MatchString(id) {
		t.Errorf("NewRoomID() = %q, want match for %v", id, roomIDPattern)
	}
	if !IsRoomID(id) {
		t.Errorf("IsRoomID(%q) = false", id)
	}
	if IsRoomID(NewUserID()) {
		t.Error("IsRoomID accepted a user id")
	}
}

func TestLoadPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile", "user_id")

	first, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !userIDPattern.MatchString(first) {
		t.Fatalf("Load minted malformed id %q", first)
	}

	second, err := Load(path)
	if err != nil {
		t.Fatalf("Load (reload): %v", err)
	}
	if first != second {
		t.Errorf("identifier not stable across loads: %q then %q", first, second)
	}
}

func TestLoadDistinctStores(t *testing.T) {
	a, err := Load(filepath.Join(t.TempDir(), "id"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b, err := Load(filepath.Join(t.TempDir(), "id"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a == b {
		t.Error("distinct stores yielded the same identifier")
	}
}
