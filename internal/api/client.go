// Package api is the client for the conference server's room directory
// REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Room describes an active room as reported by the directory.
type Room struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Creator string   `json:"creator"`
	Users   []string `json:"users"`
}

// ServerInfo is the conference server's self-description.
type ServerInfo struct {
	IPv6Address string `json:"ipv6_address"`
	Port        int    `json:"port"`
}

// envelope is the flat {success, ...} body every endpoint responds with.
type envelope struct {
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	IPv6Address string `json:"ipv6_address,omitempty"`
	Port        int    `json:"port,omitempty"`
	Rooms       []Room `json:"rooms,omitempty"`
}

// Client talks to the directory API.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a directory client for the given base URL
// (e.g. "http://[2001:db8::1]:5000").
func NewClient(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// ServerInfo fetches the server's IPv6 address. Doubles as the IPv6
// connectivity probe behind the info command.
func (c *Client) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/server_info", nil)
	if err != nil {
		return nil, err
	}
	return &ServerInfo{IPv6Address: env.IPv6Address, Port: env.Port}, nil
}

// Rooms lists active rooms.
func (c *Client) Rooms(ctx context.Context) ([]Room, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/rooms", nil)
	if err != nil {
		return nil, err
	}
	return env.Rooms, nil
}

// CreateRoom registers a new room. The directory rejects duplicates.
func (c *Client) CreateRoom(ctx context.Context, roomID, userID string) error {
	body := map[string]string{"room_id": roomID, "user_id": userID}
	_, err := c.do(ctx, http.MethodPost, "/api/rooms", body)
	return err
}

// JoinRoom registers interest in an existing room.
func (c *Client) JoinRoom(ctx context.Context, roomID, userID string) error {
	body := map[string]string{"user_id": userID}
	_, err := c.do(ctx, http.MethodPost, "/api/rooms/"+roomID+"/join", body)
	return err
}

// LeaveRoom removes the user from a room's directory entry.
func (c *Client) LeaveRoom(ctx context.Context, roomID, userID string) error {
	body := map[string]string{"user_id": userID}
	_, err := c.do(ctx, http.MethodDelete, "/api/rooms/"+roomID+"/join", body)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	if !env.Success {
		if env.Error == "" {
			env.Error = resp.Status
		}
		return nil, fmt.Errorf("%s %s: %s", method, path, env.Error)
	}
	return &env, nil
}
