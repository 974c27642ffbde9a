package bootstrap

import (
	"fmt"
	"os"
	"strings"
)

// The current-session pointer is a one-line file in the data directory,
// kept separate from the session records so a corrupt or missing pointer
// never blocks access to the store itself.

// LoadPointer reads the remembered session id. A missing or empty file
// means no session is remembered.
func LoadPointer(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", false
	}
	return id, true
}

// SavePointer remembers the session id for the next start.
func SavePointer(path, id string) error {
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return fmt.Errorf("save session pointer: %w", err)
	}
	return nil
}

// ClearPointer forgets the remembered session. Clearing an absent pointer
// is not an error.
func ClearPointer(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session pointer: %w", err)
	}
	return nil
}
