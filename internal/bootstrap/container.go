package bootstrap

import (
	"time"

	"mesh-adventure-be/internal/config"
	"mesh-adventure-be/internal/controller"
	"mesh-adventure-be/internal/pkg/logger"
	"mesh-adventure-be/internal/service"
	"mesh-adventure-be/internal/store"
	"mesh-adventure-be/pkg/meshcore"
	"mesh-adventure-be/pkg/story"
	"mesh-adventure-be/pkg/story/offline"
	"mesh-adventure-be/pkg/story/ollama"
	"mesh-adventure-be/pkg/story/openai"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const sessionEventsTopic = "session.events"

type Container struct {
	Logger logger.ILogger

	// Controllers
	MessageController   controller.IMessageController
	AdventureController controller.IAdventureController
	BroadcastController controller.IBroadcastController
	HealthController    controller.IHealthController

	// Background services (exposed for main.go to run)
	SessionStore     store.ISessionStore
	BroadcastService service.IBroadcastService
	GameService      service.IGameService
}

func NewContainer(cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	publisherService := service.NewPublisherService(sessionEventsTopic, pubSub)
	broadcastService := service.NewBroadcastService(pubSub, sessionEventsTopic, sysLogger)

	// Story generator fallback chain: remote backends first, the
	// deterministic offline trees as the terminal entry that cannot fail.
	llmTimeout := time.Duration(cfg.Ai.TimeoutSec) * time.Second
	generator := story.NewChain(sysLogger,
		ollama.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel, llmTimeout),
		openai.NewCompatProvider("openai", cfg.Ai.OpenAIBaseURL, cfg.Ai.OpenAIKey, cfg.Ai.OpenAIModel, llmTimeout),
		openai.NewCompatProvider("groq", "https://api.groq.com/openai", cfg.Ai.GroqKey, cfg.Ai.GroqModel, llmTimeout),
		offline.NewProvider(),
	)

	sessionStore := store.NewSessionStore(generator, publisherService, sysLogger, store.Options{
		FilePath:      cfg.App.SessionFilePath,
		VoteThreshold: cfg.Game.VoteThreshold,
	})

	gameService := service.NewGameService(sessionStore, cfg, sysLogger)

	return &Container{
		Logger:              sysLogger,
		MessageController:   controller.NewMessageController(gameService),
		AdventureController: controller.NewAdventureController(gameService),
		BroadcastController: controller.NewBroadcastController(broadcastService),
		HealthController:    controller.NewHealthController(),
		SessionStore:        sessionStore,
		BroadcastService:    broadcastService,
		GameService:         gameService,
	}
}

// OpenRadio attaches the serial link for single-process deployments.
// Returns the link and the bridge service to run; an error means no
// radio is reachable and the caller decides whether that is fatal.
func (c *Container) OpenRadio(cfg *config.Config) (*meshcore.Link, service.IRadioService, error) {
	link, err := meshcore.Open(meshcore.Config{
		Port:       cfg.Radio.Port,
		Baud:       cfg.Radio.Baud,
		AutoDetect: cfg.Radio.AutoDetect,
		AppName:    "mesh-adventure",
	}, c.Logger)
	if err != nil {
		return nil, nil, err
	}
	bridge := service.NewRadioService(link, c.GameService, c.BroadcastService, c.Logger)
	return link, bridge, nil
}
