package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mesh-adventure-be/internal/entity"
	"mesh-adventure-be/internal/pkg/logger"
	"mesh-adventure-be/pkg/story"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator counts calls and emits numbered scenes; EndAfter makes
// scene N terminal.
type stubGenerator struct {
	calls    atomic.Int32
	endAfter int32
}

func (g *stubGenerator) Name() string { return "stub" }

func (g *stubGenerator) NextScene(_ context.Context, theme string, history []string, choice string) (*story.Scene, error) {
	n := g.calls.Add(1)
	ending := g.endAfter > 0 && n >= g.endAfter
	return &story.Scene{
		Text:    fmt.Sprintf("scene %d", n),
		Choices: pick(ending, nil, []string{"left", "right", "onward"}),
		Ending:  ending,
	}, nil
}

func pick(cond bool, a, b []string) []string {
	if cond {
		return a
	}
	return b
}

func newTestStore(t *testing.T, gen story.Generator, opts Options) *SessionStore {
	t.Helper()
	if opts.FilePath == "" {
		opts.FilePath = filepath.Join(t.TempDir(), "sessions.json")
	}
	return NewSessionStore(gen, nil, logger.NewNopLogger(), opts)
}

func TestGetOrCreate(t *testing.T) {
	s := newTestStore(t, &stubGenerator{}, Options{})
	ctx := context.Background()

	sess, isNew, err := s.GetOrCreate(ctx, MeshKey(1), "fantasy")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, "scene 1", sess.Scene)
	assert.Len(t, sess.Choices, 3)
	assert.Equal(t, entity.StatusActive, sess.Status)

	// A second start on the same key returns the running story untouched.
	again, isNew, err := s.GetOrCreate(ctx, MeshKey(1), "horror")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, "fantasy", again.Theme)

	// Different channel, different story.
	_, isNew, err = s.GetOrCreate(ctx, MeshKey(2), "scifi")
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestApplyChoiceAdvancesAndValidates(t *testing.T) {
	s := newTestStore(t, &stubGenerator{}, Options{})
	ctx := context.Background()
	key := MeshKey(0)

	_, _, err := s.GetOrCreate(ctx, key, "fantasy")
	require.NoError(t, err)

	sess, err := s.ApplyChoice(ctx, key, "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, "scene 2", sess.Scene)
	assert.Len(t, sess.History, 1)

	_, err = s.ApplyChoice(ctx, key, "alice", 5)
	assert.ErrorIs(t, err, entity.ErrInvalidChoice)

	_, err = s.ApplyChoice(ctx, MeshKey(6), "alice", 1)
	assert.ErrorIs(t, err, entity.ErrNoActiveSession)
}

func TestConcurrentChoicesNeverLoseUpdates(t *testing.T) {
	s := newTestStore(t, &stubGenerator{}, Options{})
	ctx := context.Background()
	key := MeshKey(3)

	_, _, err := s.GetOrCreate(ctx, key, "fantasy")
	require.NoError(t, err)

	const workers = 20
	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ApplyChoice(ctx, key, "racer", 1); err == nil {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	sess, ok := s.Status(key)
	require.True(t, ok)
	assert.Equal(t, int(accepted.Load()), len(sess.History),
		"history length must equal the number of accepted choices")
	assert.GreaterOrEqual(t, int(accepted.Load()), 1)
}

func TestVoteThreshold(t *testing.T) {
	s := newTestStore(t, &stubGenerator{}, Options{VoteThreshold: 3})
	ctx := context.Background()
	key := MeshKey(1)

	_, _, err := s.GetOrCreate(ctx, key, "fantasy")
	require.NoError(t, err)

	res, err := s.Vote(key, "carol")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.False(t, res.Ended)

	// The same identity voting twice counts once.
	res, err = s.Vote(key, "carol")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	_, err = s.Vote(key, "dave")
	require.NoError(t, err)

	res, err = s.Vote(key, "eve")
	require.NoError(t, err)
	assert.True(t, res.Ended)

	// Votes and choices after termination.
	res, err = s.Vote(key, "frank")
	require.NoError(t, err)
	assert.True(t, res.Ended)
	assert.Equal(t, 0, res.Count)

	_, err = s.ApplyChoice(ctx, key, "alice", 1)
	assert.ErrorIs(t, err, entity.ErrNoActiveSession)
}

func TestForceEnd(t *testing.T) {
	s := newTestStore(t, &stubGenerator{}, Options{})
	ctx := context.Background()
	key := MeshKey(2)

	assert.ErrorIs(t, s.ForceEnd(key), entity.ErrNoActiveSession)

	_, _, err := s.GetOrCreate(ctx, key, "fantasy")
	require.NoError(t, err)
	require.NoError(t, s.ForceEnd(key))

	sess, ok := s.Status(key)
	require.True(t, ok)
	assert.Equal(t, entity.StatusFinished, sess.Status)
	assert.Empty(t, sess.Votes)
}

func TestExpiryFreesTheKey(t *testing.T) {
	s := newTestStore(t, &stubGenerator{}, Options{ExpireAfter: time.Hour, ResetAfter: 24 * time.Hour})
	ctx := context.Background()
	key := MeshKey(4)

	current := time.Now()
	s.now = func() time.Time { return current }

	_, _, err := s.GetOrCreate(ctx, key, "fantasy")
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)

	_, ok := s.Status(key)
	assert.False(t, ok, "expired session still visible")

	_, isNew, err := s.GetOrCreate(ctx, key, "scifi")
	require.NoError(t, err)
	assert.True(t, isNew, "expired key must accept a fresh story")
}

func TestSweepHardResetsAncientSessions(t *testing.T) {
	s := newTestStore(t, &stubGenerator{}, Options{ExpireAfter: time.Hour, ResetAfter: 24 * time.Hour})
	ctx := context.Background()
	key := MeshKey(5)

	current := time.Now()
	s.now = func() time.Time { return current }

	_, _, err := s.GetOrCreate(ctx, key, "fantasy")
	require.NoError(t, err)
	_, err = s.ApplyChoice(ctx, key, "alice", 1)
	require.NoError(t, err)

	current = current.Add(25 * time.Hour)
	s.sweep(ctx)

	sess := s.sessions[key]
	require.NotNil(t, sess, "hard-reset session must stay present")
	assert.Equal(t, entity.StatusActive, sess.Status, "ancient session must restart, not expire")
	assert.Empty(t, sess.History, "reset must drop stale history")
	assert.Empty(t, sess.Votes)
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	ctx := context.Background()

	s := newTestStore(t, &stubGenerator{}, Options{FilePath: path})
	_, _, err := s.GetOrCreate(ctx, MeshKey(1), "fantasy")
	require.NoError(t, err)
	_, err = s.ApplyChoice(ctx, MeshKey(1), "alice", 2)
	require.NoError(t, err)
	require.NoError(t, s.Flush(true))

	restored := newTestStore(t, &stubGenerator{}, Options{FilePath: path})
	sess, ok := restored.Status(MeshKey(1))
	require.True(t, ok)
	assert.Equal(t, "fantasy", sess.Theme)
	assert.Len(t, sess.History, 1)
	assert.Equal(t, entity.StatusActive, sess.Status)
}

func TestLoadToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := newTestStore(t, &stubGenerator{}, Options{FilePath: path})
	_, isNew, err := s.GetOrCreate(context.Background(), MeshKey(1), "fantasy")
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestEndingSceneFinishesSession(t *testing.T) {
	gen := &stubGenerator{endAfter: 2}
	s := newTestStore(t, gen, Options{})
	ctx := context.Background()
	key := MeshKey(7)

	_, _, err := s.GetOrCreate(ctx, key, "fantasy")
	require.NoError(t, err)

	sess, err := s.ApplyChoice(ctx, key, "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFinished, sess.Status)
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "channel:3", MeshKey(3))
	assert.Equal(t, "web:abc", WebKey("abc"))
	assert.Equal(t, 3, ChannelIdxFromKey("channel:3"))
	assert.Equal(t, -1, ChannelIdxFromKey("web:abc"))
}
