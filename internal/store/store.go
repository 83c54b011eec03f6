// Package store persists the single session as one JSON document.
// Writes replace the whole document via a temp file and rename; there
// is no locking, so concurrent writers race and the last one wins.
// That is an accepted limitation of the single-user scope.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/felixgeelhaar/prioritizer/internal/errors"
	"github.com/felixgeelhaar/prioritizer/internal/session"
)

const (
	latestFileName = "latest.json"
	snapshotFormat = "2006-01-02_15-04"
)

// Store reads and writes the session document under a data directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewStorageWriteError(dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the path of the live session document.
func (s *Store) Path() string {
	return filepath.Join(s.dir, latestFileName)
}

// Load returns the last persisted session, or the empty default when
// nothing has been saved yet.
func (s *Store) Load() (session.Session, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return session.Empty(), nil
		}
		return session.Session{}, apperrors.NewStorageReadError(s.Path(), err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return session.Session{}, apperrors.NewStorageDecodeError(s.Path(), err)
	}
	if sess.Tasks == nil {
		sess.Tasks = []session.Task{}
	}
	return sess, nil
}

// Save overwrites the persisted session wholesale, stamps SavedAt, and
// keeps a timestamped snapshot beside the live document. Returns the
// stamped session.
func (s *Store) Save(sess session.Session) (session.Session, error) {
	sess.SavedAt = time.Now().UTC()

	if err := s.writeLatest(sess); err != nil {
		return session.Session{}, err
	}

	snapshot := filepath.Join(s.dir, fmt.Sprintf("tasks_%s.json", sess.SavedAt.Format(snapshotFormat)))
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return session.Session{}, apperrors.NewStorageWriteError(snapshot, err)
	}
	if err := os.WriteFile(snapshot, data, 0o644); err != nil {
		return session.Session{}, apperrors.NewStorageWriteError(snapshot, err)
	}

	return sess, nil
}

// UpdateTask flips exactly one task's completion flag in the persisted
// session. The save timestamp is untouched and no snapshot is taken.
// Out-of-range indexes leave storage unmodified.
func (s *Store) UpdateTask(index int, completed bool) (session.Session, error) {
	sess, err := s.Load()
	if err != nil {
		return session.Session{}, err
	}

	if index < 0 || index >= len(sess.Tasks) {
		return session.Session{}, apperrors.NewTaskNotFoundError(index, len(sess.Tasks))
	}

	sess.Tasks[index].Completed = completed

	if err := s.writeLatest(sess); err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

// writeLatest replaces the live document atomically enough: write to a
// temp file in the same directory, then rename over the target.
func (s *Store) writeLatest(sess session.Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return apperrors.NewStorageWriteError(s.Path(), err)
	}

	tmp, err := os.CreateTemp(s.dir, "latest-*.json")
	if err != nil {
		return apperrors.NewStorageWriteError(s.Path(), err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewStorageWriteError(s.Path(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorageWriteError(s.Path(), err)
	}

	if err := os.Rename(tmpName, s.Path()); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorageWriteError(s.Path(), err)
	}
	return nil
}
