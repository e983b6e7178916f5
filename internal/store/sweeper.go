package store

import (
	"context"
	"time"

	"mesh-adventure-be/internal/entity"
)

// Run drives the background sweep and the batched persistence flush
// until ctx is cancelled.
func (s *SessionStore) Run(ctx context.Context) {
	sweepTicker := time.NewTicker(s.opts.SweepInterval)
	flushTicker := time.NewTicker(s.opts.FlushInterval)
	defer sweepTicker.Stop()
	defer flushTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final flush so a clean shutdown loses nothing.
			if err := s.Flush(true); err != nil {
				s.log.Error("store", "shutdown flush failed", map[string]interface{}{"error": err.Error()})
			}
			return
		case <-sweepTicker.C:
			s.sweep(ctx)
		case <-flushTicker.C:
			if err := s.Flush(false); err != nil {
				s.log.Error("store", "flush failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

// sweep walks every session applying the inactivity rules. The long
// (reset) window is checked before the short (expiry) one: a session
// that outlived both — possible when it was reloaded from disk with an
// old last-activity — is hard-reset to its opening scene rather than
// silently continued, which tells players "nobody reset this" apart
// from "still in progress".
func (s *SessionStore) sweep(ctx context.Context) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.sessions))
	for k := range s.sessions {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	for _, key := range keys {
		s.sweepKey(ctx, key)
	}
}

func (s *SessionStore) sweepKey(ctx context.Context, key string) {
	lk := s.keyLock(key)

	lk.Lock()
	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		lk.Unlock()
		return
	}

	idle := s.now().Sub(sess.LastActive)
	switch {
	case idle > s.opts.ResetAfter:
		theme := sess.Theme
		version := sess.Version
		lk.Unlock()
		s.resetSession(ctx, key, theme, version)
		return
	case idle > s.opts.ExpireAfter:
		s.remove(key)
		s.publishEvent(entity.EventSessionExpired, sess)
		s.log.Info("store", "session expired", map[string]interface{}{"key": key, "idle": idle.String()})
	}
	lk.Unlock()
}

// resetSession regenerates the opening scene (outside the key lock) and
// swaps the session back to its beginning, keeping the key occupied.
func (s *SessionStore) resetSession(ctx context.Context, key, theme string, version uint64) {
	genCtx, cancel := context.WithTimeout(ctx, s.opts.GenTimeout)
	defer cancel()
	scene, err := s.gen.NextScene(genCtx, theme, nil, "")
	if err != nil {
		s.log.Error("store", "reset scene generation failed", map[string]interface{}{"key": key, "error": err.Error()})
		return
	}

	lk := s.keyLock(key)
	lk.Lock()
	defer lk.Unlock()

	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok || sess.Version != version {
		return // touched while we were generating, leave it alone
	}

	now := s.now()
	sess.Theme = theme
	sess.Scene = scene.Text
	sess.Choices = append([]string(nil), scene.Choices...)
	sess.History = []string{}
	sess.Status = entity.StatusActive
	sess.Votes = make(map[string]bool)
	sess.Version++
	sess.CreatedAt = now
	sess.LastActive = now
	s.dirty.Store(true)
	s.publishEvent(entity.EventSessionReset, sess)
	s.log.Info("store", "session hard-reset", map[string]interface{}{"key": key, "theme": theme})
}
