// Package identity derives and persists the stable participant identifier.
//
// An identifier is minted once per profile and reused across reconnects so
// remote peers key their sessions consistently. The format is
// "ipv6_user_<8 base-36 chars>_<base-36 unix-ms>"; room identifiers share the
// shape under a different prefix.
package identity

import (
	"crypto/rand"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	userPrefix = "ipv6_user_"
	roomPrefix = "ipv6_room_"

	tokenLen   = 8
	tokenChars = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Load returns the persisted user identifier at path, minting and saving a
// fresh one if none exists yet.
func Load(path string) (string, error) {
	if b, err := os.ReadFile(path); err == nil {
		id := strings.TrimSpace(string(b))
		if strings.HasPrefix(id, userPrefix) {
			return id, nil
		}
		slog.Warn("discarding malformed identity file", "path", path)
	}

	id := NewUserID()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", err
	}
	return id, nil
}

// NewUserID mints a fresh participant identifier.
func NewUserID() string {
	return userPrefix + randToken() + "_" + timestamp()
}

// NewRoomID mints a room identifier for rooms the user did not name.
func NewRoomID() string {
	return roomPrefix + randToken() + "_" + timestamp()
}

// IsRoomID reports whether id looks like a generated room identifier.
func IsRoomID(id string) bool {
	return strings.HasPrefix(id, roomPrefix)
}

func timestamp() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36)
}

func randToken() string {
	var sb strings.Builder
	for range tokenLen {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tokenChars))))
		if err != nil {
			// crypto/rand failing means the platform entropy source is
			// broken; there is no sensible recovery.
			panic(err)
		}
		sb.WriteByte(tokenChars[n.Int64()])
	}
	return sb.String()
}
