package session

import (
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// Canonicalize returns a canonical JSON representation of the session
// content (goal and tasks, not the save timestamp) with stable field
// ordering for consistent hashing.
func Canonicalize(s Session) ([]byte, error) {
	tasks := make([]map[string]interface{}, len(s.Tasks))
	for i, t := range s.Tasks {
		tasks[i] = map[string]interface{}{
			"completed": t.Completed,
			"priority":  string(t.Priority),
			"reason":    t.Reason,
			"text":      t.Text,
		}
	}

	// encoding/json sorts map keys, so this marshal is deterministic
	return json.Marshal(map[string]interface{}{
		"goal":  s.Goal,
		"tasks": tasks,
	})
}

// Checksum computes the blake3 hash of the canonicalized session.
// Used for change detection: two sessions with identical content hash
// identically regardless of when they were saved.
func Checksum(s Session) (string, error) {
	canonical, err := Canonicalize(s)
	if err != nil {
		return "", fmt.Errorf("canonicalize session: %w", err)
	}

	hasher := blake3.New()
	if _, err := hasher.Write(canonical); err != nil {
		return "", fmt.Errorf("hash session: %w", err)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
