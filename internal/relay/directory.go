package relay

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrRoomExists   = errors.New("room already exists")
	ErrRoomNotFound = errors.New("room not found")
)

// RoomInfo is the directory's view of one room, as served over the API.
type RoomInfo struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Creator string    `json:"creator"`
	Users   []string  `json:"users"`
	Created time.Time `json:"created"`
}

type roomEntry struct {
	info  RoomInfo
	users map[string]struct{}
}

// Directory is the in-memory room registry behind the REST API. The hub
// reports WebSocket departures here so the registry does not leak users
// whose clients never said goodbye.
type Directory struct {
	mu    sync.Mutex
	rooms map[string]*roomEntry
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[string]*roomEntry)}
}

// defaultRoomName derives a display name from the room identifier.
func defaultRoomName(roomID string) string {
	short := roomID
	if i := strings.LastIndex(roomID, "_"); i >= 0 && i+1 < len(roomID) {
		short = roomID[i+1:]
	}
	return fmt.Sprintf("Conference %s", short)
}

// Create registers a new room. The creator is not a member until they
// join.
func (d *Directory) Create(roomID, name, creator string) (RoomInfo, error) {
	if name == "" {
		name = defaultRoomName(roomID)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.rooms[roomID]; ok {
		return RoomInfo{}, ErrRoomExists
	}
	entry := &roomEntry{
		info: RoomInfo{
			ID:      roomID,
			Name:    name,
			Creator: creator,
			Created: time.Now().UTC(),
		},
		users: make(map[string]struct{}),
	}
	d.rooms[roomID] = entry
	return entry.snapshot(), nil
}

// Join adds a user to a room's membership. Joining twice is harmless.
func (d *Directory) Join(roomID, userID string) (RoomInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.rooms[roomID]
	if !ok {
		return RoomInfo{}, ErrRoomNotFound
	}
	entry.users[userID] = struct{}{}
	return entry.snapshot(), nil
}

// Leave removes a user from a room. The room is dropped once its last
// member leaves. Unknown rooms and users are ignored.
func (d *Directory) Leave(roomID, userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.rooms[roomID]
	if !ok {
		return
	}
	delete(entry.users, userID)
	if len(entry.users) == 0 {
		delete(d.rooms, roomID)
	}
}

// List returns every active room, oldest first.
func (d *Directory) List() []RoomInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	rooms := make([]RoomInfo, 0, len(d.rooms))
	for _, entry := range d.rooms {
		rooms = append(rooms, entry.snapshot())
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Created.Before(rooms[j].Created) })
	return rooms
}

// Counts returns the number of rooms and total memberships.
func (d *Directory) Counts() (rooms, users int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, entry := range d.rooms {
		users += len(entry.users)
	}
	return len(d.rooms), users
}

func (e *roomEntry) snapshot() RoomInfo {
	info := e.info
	info.Users = make([]string, 0, len(e.users))
	for u := range e.users {
		info.Users = append(info.Users, u)
	}
	sort.Strings(info.Users)
	return info
}
