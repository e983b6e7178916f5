package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"mesh-adventure-be/internal/entity"
)

// persistedState is the full on-disk serialization of the session map,
// overwritten (never appended) on each flush.
type persistedState struct {
	Version  int                        `json:"version"`
	SavedAt  time.Time                  `json:"saved_at"`
	Sessions map[string]*entity.Session `json:"sessions"`
}

const persistedStateVersion = 1

// Flush writes the session map to disk. Non-forced flushes are batched:
// they bail out unless something is dirty and the minimum interval has
// passed. The snapshot happens under a brief read lock; the disk write
// does not hold any lock, and a write failure never blocks gameplay.
func (s *SessionStore) Flush(force bool) error {
	if s.opts.FilePath == "" {
		return nil
	}

	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	if !force {
		if !s.dirty.Load() {
			return nil
		}
		if s.now().Sub(s.lastFlushed) < s.opts.FlushInterval {
			return nil
		}
	}

	s.mu.RLock()
	snapshot := make(map[string]*entity.Session, len(s.sessions))
	for k, v := range s.sessions {
		snapshot[k] = v.Clone()
	}
	s.mu.RUnlock()

	state := persistedState{
		Version:  persistedStateVersion,
		SavedAt:  s.now(),
		Sessions: snapshot,
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.opts.FilePath + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.opts.FilePath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.opts.FilePath); err != nil {
		return err
	}

	s.dirty.Store(false)
	s.lastFlushed = s.now()
	return nil
}

// load restores sessions from disk at startup. A missing or corrupt file
// is not fatal: start with an empty map and log the failure.
func (s *SessionStore) load() {
	if s.opts.FilePath == "" {
		return
	}
	data, err := os.ReadFile(s.opts.FilePath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("store", "session file unreadable, starting empty", map[string]interface{}{"error": err.Error()})
		}
		return
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		s.log.Warn("store", "session file corrupt, starting empty", map[string]interface{}{"error": err.Error()})
		return
	}

	s.mu.Lock()
	for key, sess := range state.Sessions {
		if sess == nil || sess.Key == "" {
			continue
		}
		if sess.Votes == nil {
			sess.Votes = make(map[string]bool)
		}
		s.sessions[key] = sess
	}
	count := len(s.sessions)
	s.mu.Unlock()

	if count > 0 {
		s.log.Info("store", "sessions restored", map[string]interface{}{"count": count})
	}
}
