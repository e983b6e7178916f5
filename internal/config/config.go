package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Radio    RadioConfig
	Ai       AIConfig
	Game     GameConfig
	Security SecurityConfig
	Gateway  GatewayConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	SessionFilePath    string
}

type RadioConfig struct {
	Port       string // serial device path; empty means auto-detect
	Baud       int
	AutoDetect bool
}

type AIConfig struct {
	OllamaBaseURL string
	OllamaModel   string
	OpenAIBaseURL string
	OpenAIKey     string
	OpenAIModel   string
	GroqKey       string
	GroqModel     string
	TimeoutSec    int
}

type GameConfig struct {
	DefaultTheme  string
	VoteThreshold int
	Admins        []string // empty list leaves force-end open to everyone
}

type SecurityConfig struct {
	MaxMessageLength  int
	RateLimitPerMin   int
	RateLimitEnabled  bool
	DedupWindowSec    int
}

type GatewayConfig struct {
	BotServerURL string
	ChannelIdx   int // -1 forwards all channels
	TimeoutSec   int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("BOT_PORT", "5000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/adventure.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			SessionFilePath:    getEnv("SESSION_FILE_PATH", "sessions.json"),
		},
		Radio: RadioConfig{
			Port:       getEnv("RADIO_PORT", ""),
			Baud:       getEnvAsInt("RADIO_BAUD", 115200),
			AutoDetect: getEnvAsBool("RADIO_AUTO_DETECT", true),
		},
		Ai: AIConfig{
			OllamaBaseURL: getEnv("OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:   getEnv("OLLAMA_MODEL", "llama3.1:8b"),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			GroqKey:       getEnv("GROQ_API_KEY", ""),
			GroqModel:     getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),
			TimeoutSec:    getEnvAsInt("LLM_TIMEOUT", 30),
		},
		Game: GameConfig{
			DefaultTheme:  getEnv("DEFAULT_THEME", "fantasy"),
			VoteThreshold: getEnvAsInt("VOTE_THRESHOLD", 3),
			Admins:        getEnvAsList("BOT_ADMINS"),
		},
		Security: SecurityConfig{
			MaxMessageLength: getEnvAsInt("MAX_MESSAGE_LENGTH", 500),
			RateLimitPerMin:  getEnvAsInt("RATE_LIMIT_PER_MINUTE", 10),
			RateLimitEnabled: getEnvAsBool("RATE_LIMIT_ENABLED", true),
			DedupWindowSec:   getEnvAsInt("DEDUP_WINDOW_SECONDS", 30),
		},
		Gateway: GatewayConfig{
			BotServerURL: getEnv("BOT_SERVER_URL", "http://localhost:5000"),
			ChannelIdx:   getEnvAsInt("GATEWAY_CHANNEL_IDX", -1),
			TimeoutSec:   getEnvAsInt("GATEWAY_TIMEOUT", 30),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
