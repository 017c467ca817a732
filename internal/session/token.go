// Package session assigns the opaque per-client session token that
// disambiguates concurrent viewers of the same run. The token rides on every
// control request (X-Session-ID) and streaming connection attempt (?sid=).
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LoadOrCreate returns the session token for this client, reading it from
// path when one was persisted by an earlier run and minting a fresh one
// otherwise. The new token is written back best-effort so restarts keep the
// same session; persistence failures degrade to an in-memory token rather
// than failing.
func LoadOrCreate(path string, logger *log.Logger) string {
	if logger == nil {
		logger = log.Default()
	}
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			token := strings.TrimSpace(string(data))
			if token != "" {
				return token
			}
		}
	}

	token := newToken()
	if path != "" {
		if err := persist(path, token); err != nil {
			logger.Printf("session token not persisted: %v", err)
		}
	}
	return token
}

// newToken prefers a random UUID and falls back to a timestamp plus random
// hex suffix when strong randomness is unavailable.
func newToken() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Sprintf("sid-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("sid-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}

func persist(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}
