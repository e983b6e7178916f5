package store

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mesh-adventure-be/internal/entity"
	"mesh-adventure-be/internal/pkg/logger"
	"mesh-adventure-be/pkg/story"
)

// Publisher is the slice of the event bus the store needs; the publisher
// service satisfies it. A nil publisher disables events.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

type VoteResult struct {
	Count     int
	Threshold int
	Ended     bool
}

type ISessionStore interface {
	GetOrCreate(ctx context.Context, key, theme string) (*entity.Session, bool, error)
	ApplyChoice(ctx context.Context, key, voter string, choice int) (*entity.Session, error)
	Vote(key, voter string) (VoteResult, error)
	ForceEnd(key string) error
	Status(key string) (*entity.Session, bool)
	Run(ctx context.Context)
	Flush(force bool) error
}

type Options struct {
	FilePath      string
	VoteThreshold int
	// ExpireAfter evicts idle sessions; ResetAfter hard-resets sessions
	// that somehow survived eviction (e.g. reloaded from disk with a stale
	// last-activity). ResetAfter takes precedence in the sweep.
	ExpireAfter   time.Duration
	ResetAfter    time.Duration
	FlushInterval time.Duration
	SweepInterval time.Duration
	// GenTimeout bounds story-generator calls made by the store itself.
	GenTimeout time.Duration
}

func (o *Options) fill() {
	if o.VoteThreshold <= 0 {
		o.VoteThreshold = 3
	}
	if o.ExpireAfter <= 0 {
		o.ExpireAfter = time.Hour
	}
	if o.ResetAfter <= 0 {
		o.ResetAfter = 24 * time.Hour
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = 5 * time.Second
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = time.Minute
	}
	if o.GenTimeout <= 0 {
		o.GenTimeout = 10 * time.Second
	}
}

// SessionStore owns the key→Session map and is the only component that
// mutates sessions. Mutations are serialized per key: each key gets its
// own mutex on first access, and the map-level RWMutex is held only for
// the map's own inserts, deletes and snapshots. Story-generator calls
// never run under a key lock; commits re-validate the session version.
type SessionStore struct {
	gen  story.Generator
	log  logger.ILogger
	pub  Publisher
	opts Options

	mu       sync.RWMutex
	sessions map[string]*entity.Session
	locks    map[string]*sync.Mutex

	dirty   atomic.Bool
	flushMu sync.Mutex
	lastFlushed time.Time

	now func() time.Time
}

var _ ISessionStore = (*SessionStore)(nil)

func NewSessionStore(gen story.Generator, pub Publisher, log logger.ILogger, opts Options) *SessionStore {
	opts.fill()
	s := &SessionStore{
		gen:      gen,
		log:      log,
		pub:      pub,
		opts:     opts,
		sessions: make(map[string]*entity.Session),
		locks:    make(map[string]*sync.Mutex),
		now:      time.Now,
	}
	s.load()
	return s
}

// keyLock returns the mutex serializing one key, creating it on first
// access. Unrelated channels never contend on each other's lock.
func (s *SessionStore) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lk, ok := s.locks[key]
	if !ok {
		lk = &sync.Mutex{}
		s.locks[key] = lk
	}
	return lk
}

// lookup returns the live session for key, lazily evicting one whose
// expiry window has passed. Caller must hold the key lock.
func (s *SessionStore) lookup(key string) (*entity.Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().Sub(sess.LastActive) > s.opts.ExpireAfter {
		s.remove(key)
		s.publishEvent(entity.EventSessionExpired, sess)
		return nil, false
	}
	return sess, true
}

func (s *SessionStore) insert(sess *entity.Session) {
	s.mu.Lock()
	s.sessions[sess.Key] = sess
	s.mu.Unlock()
	s.dirty.Store(true)
}

func (s *SessionStore) remove(key string) {
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
	s.dirty.Store(true)
}

// GetOrCreate returns the session for key, creating a fresh one (with an
// opening scene from the generator) when none exists or the existing one
// has expired. An existing active session is returned unchanged.
func (s *SessionStore) GetOrCreate(ctx context.Context, key, theme string) (*entity.Session, bool, error) {
	lk := s.keyLock(key)

	lk.Lock()
	if sess, ok := s.lookup(key); ok && sess.Active() {
		out := sess.Clone()
		lk.Unlock()
		return out, false, nil
	}
	lk.Unlock()

	// Generate the opening scene without holding the key lock.
	genCtx, cancel := context.WithTimeout(ctx, s.opts.GenTimeout)
	defer cancel()
	scene, err := s.gen.NextScene(genCtx, theme, nil, "")
	if err != nil {
		return nil, false, err
	}

	lk.Lock()
	defer lk.Unlock()

	// Someone may have started a story on this key while we generated.
	if sess, ok := s.lookup(key); ok && sess.Active() {
		return sess.Clone(), false, nil
	}

	now := s.now()
	sess := &entity.Session{
		Key:        key,
		Theme:      theme,
		Scene:      scene.Text,
		Choices:    append([]string(nil), scene.Choices...),
		History:    []string{},
		Status:     entity.StatusActive,
		Votes:      make(map[string]bool),
		Version:    1,
		CreatedAt:  now,
		LastActive: now,
	}
	s.insert(sess)
	return sess.Clone(), true, nil
}

// ApplyChoice advances the story one step. The generator call runs with
// the key lock released; the commit re-validates the session version so
// a concurrent end or competing choice cannot be clobbered.
func (s *SessionStore) ApplyChoice(ctx context.Context, key, voter string, choice int) (*entity.Session, error) {
	lk := s.keyLock(key)

	lk.Lock()
	sess, ok := s.lookup(key)
	if !ok || !sess.Active() {
		lk.Unlock()
		return nil, entity.ErrNoActiveSession
	}
	if choice < 1 || choice > len(sess.Choices) {
		lk.Unlock()
		return nil, entity.ErrInvalidChoice
	}
	version := sess.Version
	theme := sess.Theme
	// The generator sees prior scenes plus the scene being chosen from.
	history := append(append([]string(nil), sess.History...), sess.Scene)
	lk.Unlock()

	genCtx, cancel := context.WithTimeout(ctx, s.opts.GenTimeout)
	defer cancel()
	scene, err := s.gen.NextScene(genCtx, theme, history, strconv.Itoa(choice))
	if err != nil {
		return nil, err
	}

	lk.Lock()
	defer lk.Unlock()

	sess, ok = s.lookup(key)
	if !ok || !sess.Active() || sess.Version != version {
		// Ended, expired or advanced by someone else while we were out.
		return nil, entity.ErrNoActiveSession
	}

	sess.History = history
	sess.Scene = scene.Text
	sess.Choices = append([]string(nil), scene.Choices...)
	sess.Version++
	sess.LastActive = s.now()
	if scene.Ending {
		s.finishLocked(sess)
	} else {
		s.dirty.Store(true)
	}
	return sess.Clone(), nil
}

// Vote records one distinct voter towards ending the session. Voting is
// idempotent per identity; reaching the threshold finishes the session
// and clears the vote set. Voting on an already finished session is a
// no-op reported as ended.
func (s *SessionStore) Vote(key, voter string) (VoteResult, error) {
	lk := s.keyLock(key)
	lk.Lock()
	defer lk.Unlock()

	sess, ok := s.lookup(key)
	if !ok {
		return VoteResult{}, entity.ErrNoActiveSession
	}
	res := VoteResult{Threshold: s.opts.VoteThreshold}
	if !sess.Active() {
		res.Ended = true
		return res, nil
	}

	if sess.Votes == nil {
		sess.Votes = make(map[string]bool)
	}
	sess.Votes[voter] = true
	sess.LastActive = s.now()
	res.Count = len(sess.Votes)
	s.dirty.Store(true)

	if res.Count >= s.opts.VoteThreshold {
		res.Ended = true
		s.finishLocked(sess)
	}
	return res, nil
}

// ForceEnd finishes the session unconditionally. Authorization is the
// command router's concern, not the store's.
func (s *SessionStore) ForceEnd(key string) error {
	lk := s.keyLock(key)
	lk.Lock()
	defer lk.Unlock()

	sess, ok := s.lookup(key)
	if !ok {
		return entity.ErrNoActiveSession
	}
	if !sess.Active() {
		return nil
	}
	sess.Version++
	sess.LastActive = s.now()
	s.finishLocked(sess)
	return nil
}

// Status returns a read-only copy of the session, or false when absent.
func (s *SessionStore) Status(key string) (*entity.Session, bool) {
	lk := s.keyLock(key)
	lk.Lock()
	defer lk.Unlock()

	sess, ok := s.lookup(key)
	if !ok {
		return nil, false
	}
	return sess.Clone(), true
}

// finishLocked marks the session terminal. Terminal state is flushed
// immediately so a crash cannot resurrect an ended story. Caller holds
// the key lock.
func (s *SessionStore) finishLocked(sess *entity.Session) {
	sess.Status = entity.StatusFinished
	sess.Votes = make(map[string]bool)
	s.dirty.Store(true)
	s.publishEvent(entity.EventSessionFinished, sess)
	go func() {
		if err := s.Flush(true); err != nil {
			s.log.Error("store", "critical flush failed", map[string]interface{}{"error": err.Error()})
		}
	}()
}

func (s *SessionStore) publishEvent(kind entity.SessionEventKind, sess *entity.Session) {
	if s.pub == nil {
		return
	}
	ev := entity.SessionEvent{
		Kind:       kind,
		Key:        sess.Key,
		ChannelIdx: ChannelIdxFromKey(sess.Key),
		Theme:      sess.Theme,
		At:         s.now(),
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := s.pub.Publish(context.Background(), payload); err != nil {
		s.log.Warn("store", "session event publish failed", map[string]interface{}{"error": err.Error()})
	}
}

// MeshKey builds the session key for a mesh channel.
func MeshKey(channelIdx int) string {
	return "channel:" + strconv.Itoa(channelIdx)
}

// WebKey builds the session key for a web client id.
func WebKey(id string) string {
	return "web:" + id
}

// ChannelIdxFromKey recovers the channel index from a mesh key; -1 for
// web keys.
func ChannelIdxFromKey(key string) int {
	if rest, ok := strings.CutPrefix(key, "channel:"); ok {
		if idx, err := strconv.Atoi(rest); err == nil {
			return idx
		}
	}
	return -1
}
