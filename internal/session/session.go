// Package session holds the per-install session context: who the user is
// and whether first-run setup completed. It is loaded once at startup and
// saved once at shutdown; nothing else reads or writes the file.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"companion/internal/model"
)

type Session struct {
	User       model.User `json:"user"`
	Registered bool       `json:"registered"`
	SavedAt    time.Time  `json:"saved_at"`
}

// DefaultUser seeds a fresh session until a real registration flow runs.
var DefaultUser = model.User{
	ID:     999,
	Name:   "Demo User",
	Age:    24,
	Gender: "divers",
}

// Load reads the session file. A missing file is not an error: it returns a
// fresh session with the default user.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Session{User: DefaultUser}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if s.User.ID == 0 {
		s.User = DefaultUser
	}
	return &s, nil
}

// Save writes the session atomically via a temp file rename.
func (s *Session) Save(path string) error {
	s.SavedAt = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating session dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing session: %w", err)
	}
	return nil
}
