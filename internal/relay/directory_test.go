package relay

import (
	"errors"
	"testing"
)

func TestDirectoryLifecycle(t *testing.T) {
	d := NewDirectory()

	info, err := d.Create("ipv6_room_abc12345_1", "", "ipv6_user_alice000_1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if info.Name != "Conference 1" {
		t.Errorf("derived name = %q, want %q", info.Name, "Conference 1")
	}
	if info.Creator != "ipv6_user_alice000_1" {
		t.Errorf("creator = %q", info.Creator)
	}
	if len(info.Users) != 0 {
		t.Errorf("creator counted as member before joining: %v", info.Users)
	}

	if _, err := d.Create("ipv6_room_abc12345_1", "", "ipv6_user_bob00000_1"); !errors.Is(err, ErrRoomExists) {
		t.Fatalf("duplicate create: got %v, want ErrRoomExists", err)
	}

	info, err = d.Join("ipv6_room_abc12345_1", "ipv6_user_alice000_1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(info.Users) != 1 {
		t.Fatalf("users after join = %v", info.Users)
	}

	// Joining twice is idempotent.
	info, _ = d.Join("ipv6_room_abc12345_1", "ipv6_user_alice000_1")
	if len(info.Users) != 1 {
		t.Fatalf("users after double join = %v", info.Users)
	}

	if _, err := d.Join("ipv6_room_nope0000_1", "ipv6_user_alice000_1"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("join missing room: got %v, want ErrRoomNotFound", err)
	}

	d.Leave("ipv6_room_abc12345_1", "ipv6_user_alice000_1")
	if rooms := d.List(); len(rooms) != 0 {
		t.Fatalf("room should be dropped when its last member leaves, got %v", rooms)
	}

	// Leaving again, or leaving a room that never existed, is harmless.
	d.Leave("ipv6_room_abc12345_1", "ipv6_user_alice000_1")
}

func TestDirectoryCustomName(t *testing.T) {
	d := NewDirectory()
	info, err := d.Create("ipv6_room_abc12345_1", "standup", "ipv6_user_alice000_1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if info.Name != "standup" {
		t.Errorf("name = %q, want %q", info.Name, "standup")
	}
}

func TestDirectoryCounts(t *testing.T) {
	d := NewDirectory()
	d.Create("ipv6_room_aaaaaaaa_1", "", "ipv6_user_alice000_1")
	d.Create("ipv6_room_bbbbbbbb_1", "", "ipv6_user_bob00000_1")
	d.Join("ipv6_room_aaaaaaaa_1", "ipv6_user_alice000_1")
	d.Join("ipv6_room_aaaaaaaa_1", "ipv6_user_bob00000_1")
	d.Join("ipv6_room_bbbbbbbb_1", "ipv6_user_bob00000_1")

	rooms, users := d.Counts()
	if rooms != 2 || users != 3 {
		t.Fatalf("counts = (%d, %d), want (2, 3)", rooms, users)
	}
}
