package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestServerInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/server_info" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true, "ipv6_address": "2001:db8::1", "port": 5000,
		})
	}))
	defer srv.Close()

	info, err := NewClient(srv.URL).ServerInfo(context.Background())
	if err != nil {
		t.Fatalf("ServerInfo: %v", err)
	}
	if info.IPv6Address != "2001:db8::1" || info.Port != 5000 {
		t.Errorf("ServerInfo = %+v", info)
	}
}

func TestRooms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"rooms": []map[string]any{
				{"id": "r1", "name": "room one", "creator": "u1", "users": []string{"u1", "u2"}},
			},
		})
	}))
	defer srv.Close()

	rooms, err := NewClient(srv.URL).Rooms(context.Background())
	if err != nil {
		t.Fatalf("Rooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != "r1" || len(rooms[0].Users) != 2 {
		t.Errorf("Rooms = %+v", rooms)
	}
}

func TestCreateRoomRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["room_id"] != "r1" || body["user_id"] != "u1" {
			t.Errorf("body = %v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "room already exists"})
	}))
	defer srv.Close()

	err := NewClient(srv.URL).CreateRoom(context.Background(), "r1", "u1")
	if err == nil {
		t.Fatal("CreateRoom succeeded, want rejection")
	}
	if !strings.Contains(err.Error(), "room already exists") {
		t.Errorf("err = %v, want server reason preserved", err)
	}
}

func TestJoinAndLeaveRoom(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	if err := c.JoinRoom(context.Background(), "r1", "u1"); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/rooms/r1/join" {
		t.Errorf("join request = %s %s", gotMethod, gotPath)
	}

	if err := c.LeaveRoom(context.Background(), "r1", "u1"); err != nil {
		t.Fatalf("LeaveRoom: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/rooms/r1/join" {
		t.Errorf("leave request = %s %s", gotMethod, gotPath)
	}
}
