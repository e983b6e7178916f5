package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mesh-adventure-be/internal/config"
	"mesh-adventure-be/internal/dto"
	"mesh-adventure-be/internal/entity"
	"mesh-adventure-be/internal/pkg/chunker"
	"mesh-adventure-be/internal/pkg/logger"
	"mesh-adventure-be/internal/pkg/ratelimit"
	"mesh-adventure-be/internal/store"
	"mesh-adventure-be/pkg/meshcore"
	"mesh-adventure-be/pkg/story"
	"mesh-adventure-be/pkg/story/offline"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const (
	msgStoryInProgress = "A story is already in progress! Continue the adventure by making choices (1/2/3), or wait for it to reach THE END."
	msgStoryEnded      = "Adventure ended. Type !adv to start a new one."
	msgNoActiveStory   = "No active adventure. Type !adv to start."
	msgInvalidChoice   = "That choice isn't on offer. Pick 1, 2 or 3."
	msgVoteRedirect    = "Only admins can force-end. Your vote to end has been counted instead."
)

type IGameService interface {
	// HandleMessage runs one inbound radio/gateway message through the
	// command router. A nil reply means "say nothing".
	HandleMessage(ctx context.Context, msg *entity.InboundMessage) (*string, error)

	StartWeb(ctx context.Context, req *dto.StartAdventureRequest) (*dto.StartAdventureResponse, error)
	ChoiceWeb(ctx context.Context, req *dto.ChoiceRequest) (*dto.ChoiceResponse, error)
	StatusWeb(sessionId string) (*dto.StatusResponse, error)
	QuitWeb(req *dto.QuitRequest) (*dto.QuitResponse, error)
	Themes() []string
}

type gameService struct {
	sessions store.ISessionStore
	log      logger.ILogger

	defaultTheme  string
	admins        map[string]bool
	maxMessageLen int

	limiter *ratelimit.Limiter
	dedup   *gocache.Cache
}

func NewGameService(sessions store.ISessionStore, cfg *config.Config, log logger.ILogger) IGameService {
	admins := make(map[string]bool, len(cfg.Game.Admins))
	for _, a := range cfg.Game.Admins {
		admins[strings.ToLower(a)] = true
	}

	var limiter *ratelimit.Limiter
	if cfg.Security.RateLimitEnabled {
		limiter = ratelimit.New(cfg.Security.RateLimitPerMin, time.Minute)
	}

	dedupTTL := time.Duration(cfg.Security.DedupWindowSec) * time.Second
	return &gameService{
		sessions:      sessions,
		log:           log,
		defaultTheme:  cfg.Game.DefaultTheme,
		admins:        admins,
		maxMessageLen: cfg.Security.MaxMessageLength,
		limiter:       limiter,
		dedup:         gocache.New(dedupTTL, 2*dedupTTL),
	}
}

func (s *gameService) HandleMessage(ctx context.Context, msg *entity.InboundMessage) (*string, error) {
	content := strings.ReplaceAll(msg.Content, "\x00", "")
	content = strings.TrimSpace(content)

	if msg.ChannelIdx < 0 || msg.ChannelIdx > meshcore.MaxChannelIdx {
		s.log.Warn("game", "message on invalid channel dropped", map[string]interface{}{"channel": msg.ChannelIdx, "sender": msg.Sender})
		return nil, nil
	}
	if content == "" || len(content) > s.maxMessageLen {
		return nil, nil
	}

	// The radio delivers at-least-once; identical (sender, channel, text)
	// inside the dedup window is a retransmission, not a new command.
	dedupKey := msg.Sender + "|" + strconv.Itoa(msg.ChannelIdx) + "|" + content
	if _, seen := s.dedup.Get(dedupKey); seen {
		s.log.Debug("game", "duplicate message suppressed", map[string]interface{}{"sender": msg.Sender, "channel": msg.ChannelIdx})
		return nil, nil
	}
	s.dedup.SetDefault(dedupKey, struct{}{})

	cmd := ParseCommand(content)
	if cmd.Kind == CmdNone || cmd.Kind == CmdReset {
		return nil, nil
	}

	if s.limiter != nil && !s.limiter.Allow(msg.Sender) {
		s.log.Warn("game", "sender rate limited", map[string]interface{}{"sender": msg.Sender})
		return nil, nil
	}

	key := store.MeshKey(msg.ChannelIdx)
	reply, err := s.dispatch(ctx, key, msg.Sender, cmd)
	if err != nil {
		return nil, err
	}
	if reply == "" {
		return nil, nil
	}
	out := joinParts(chunker.Split(reply, chunker.MaxMessageLen))
	return &out, nil
}

func (s *gameService) dispatch(ctx context.Context, key, sender string, cmd Command) (string, error) {
	switch cmd.Kind {
	case CmdHelp:
		return helpMessage(), nil
	case CmdStart:
		return s.handleStart(ctx, key, sender, cmd.Theme)
	case CmdChoice:
		return s.handleChoice(ctx, key, sender, cmd.Choice)
	case CmdVote:
		return s.handleVote(key, sender)
	case CmdQuit:
		return s.handleQuit(key, sender)
	case CmdStatus:
		return s.handleStatus(key), nil
	}
	return "", nil
}

func (s *gameService) handleStart(ctx context.Context, key, sender, theme string) (string, error) {
	theme = s.resolveTheme(theme)

	sess, isNew, err := s.sessions.GetOrCreate(ctx, key, theme)
	if err != nil {
		return "", err
	}
	if !isNew {
		return msgStoryInProgress, nil
	}

	s.log.Info("game", "adventure started", map[string]interface{}{"key": key, "sender": sender, "theme": theme})
	scene := story.FormatScene(&story.Scene{Text: sess.Scene, Choices: sess.Choices})
	return fmt.Sprintf("%s started a %s adventure!\n%s", sender, theme, scene), nil
}

func (s *gameService) handleChoice(ctx context.Context, key, sender string, choice int) (string, error) {
	sess, err := s.sessions.ApplyChoice(ctx, key, sender, choice)
	switch {
	case err == entity.ErrNoActiveSession:
		return msgNoActiveStory, nil
	case err == entity.ErrInvalidChoice:
		return msgInvalidChoice, nil
	case err != nil:
		return "", err
	}

	scene := story.FormatScene(&story.Scene{Text: sess.Scene, Choices: sess.Choices})
	if sess.Status == entity.StatusFinished {
		return scene + "\n" + msgStoryEnded, nil
	}
	return scene, nil
}

func (s *gameService) handleVote(key, sender string) (string, error) {
	res, err := s.sessions.Vote(key, sender)
	if err == entity.ErrNoActiveSession {
		return msgNoActiveStory, nil
	}
	if err != nil {
		return "", err
	}
	if res.Ended {
		return msgStoryEnded, nil
	}
	return fmt.Sprintf("Vote to end: %d/%d", res.Count, res.Threshold), nil
}

// handleQuit force-ends when the sender is authorized. With admins
// configured, everyone else is redirected to the vote path so a rogue
// player can't kill the group's story single-handedly. An empty admin
// list leaves force-end open to all.
func (s *gameService) handleQuit(key, sender string) (string, error) {
	if len(s.admins) > 0 && !s.admins[strings.ToLower(sender)] {
		res, err := s.sessions.Vote(key, sender)
		if err == entity.ErrNoActiveSession {
			return msgNoActiveStory, nil
		}
		if err != nil {
			return "", err
		}
		if res.Ended {
			return msgStoryEnded, nil
		}
		return fmt.Sprintf("%s\nVote to end: %d/%d", msgVoteRedirect, res.Count, res.Threshold), nil
	}

	err := s.sessions.ForceEnd(key)
	if err == entity.ErrNoActiveSession {
		return msgNoActiveStory, nil
	}
	if err != nil {
		return "", err
	}
	return msgStoryEnded, nil
}

func (s *gameService) handleStatus(key string) string {
	sess, ok := s.sessions.Status(key)
	if !ok {
		return msgNoActiveStory
	}
	if sess.Status == entity.StatusFinished {
		return msgStoryEnded
	}
	return fmt.Sprintf("Adventure in progress: theme=%s, scenes=%d. Choices: 1/2/3", sess.Theme, len(sess.History)+1)
}

func (s *gameService) resolveTheme(theme string) string {
	theme = SanitizeTheme(theme)
	if theme == "" || !offline.ValidTheme(theme) {
		return s.defaultTheme
	}
	return theme
}

// --- web API ---

func (s *gameService) StartWeb(ctx context.Context, req *dto.StartAdventureRequest) (*dto.StartAdventureResponse, error) {
	id := req.SessionId
	if id == "" {
		id = uuid.NewString()
	}
	theme := s.resolveTheme(req.Theme)

	sess, isNew, err := s.sessions.GetOrCreate(ctx, store.WebKey(id), theme)
	if err != nil {
		return nil, err
	}
	if !isNew && sess.Active() {
		// Resuming an existing web session returns its current scene.
		s.log.Debug("game", "web session resumed", map[string]interface{}{"session_id": id})
	}

	return &dto.StartAdventureResponse{
		SessionId: id,
		Story:     sess.Scene,
		Choices:   sess.Choices,
		Status:    string(sess.Status),
	}, nil
}

func (s *gameService) ChoiceWeb(ctx context.Context, req *dto.ChoiceRequest) (*dto.ChoiceResponse, error) {
	choice, err := strconv.Atoi(req.Choice)
	if err != nil {
		return nil, entity.ErrInvalidChoice
	}

	sess, err := s.sessions.ApplyChoice(ctx, store.WebKey(req.SessionId), req.SessionId, choice)
	if err != nil {
		return nil, err
	}
	return &dto.ChoiceResponse{
		Story:   sess.Scene,
		Choices: sess.Choices,
		Status:  string(sess.Status),
	}, nil
}

func (s *gameService) StatusWeb(sessionId string) (*dto.StatusResponse, error) {
	sess, ok := s.sessions.Status(store.WebKey(sessionId))
	if !ok {
		return &dto.StatusResponse{Active: false, Status: "none"}, nil
	}
	return &dto.StatusResponse{
		Active:        sess.Active(),
		Status:        string(sess.Status),
		Theme:         sess.Theme,
		HistoryLength: len(sess.History),
	}, nil
}

func (s *gameService) QuitWeb(req *dto.QuitRequest) (*dto.QuitResponse, error) {
	err := s.sessions.ForceEnd(store.WebKey(req.SessionId))
	if err == entity.ErrNoActiveSession {
		return &dto.QuitResponse{Ended: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &dto.QuitResponse{Ended: true}, nil
}

func (s *gameService) Themes() []string {
	return offline.Themes()
}

func helpMessage() string {
	return "MCADV Adventure Bot Commands:\n" +
		"!adv [theme] - Start adventure (default: fantasy)\n" +
		"!start [theme] - Start adventure\n" +
		"1/2/3 - Make a choice\n" +
		"!vote - Vote to end\n" +
		"!quit - End adventure\n" +
		"!status - Check status\n" +
		"Themes: " + strings.Join(offline.Themes(), ", ")
}

func joinParts(parts []string) string {
	return strings.Join(parts, chunker.PartSeparator)
}
