package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log          Log          `yaml:"log"`
	Server       Server       `yaml:"server"`
	OpenAI       OpenAI       `yaml:"openai"`
	Submission   Submission   `yaml:"submission"`
	Club         Club         `yaml:"club"`
	Session      Session      `yaml:"session"`
	Conversation Conversation `yaml:"conversation"`
	Archive      Archive      `yaml:"archive"`
}

type OpenAI struct {
	// Model used for structured extraction and intent classification
	Extract ModelConfig `yaml:"extract" validate:"required"`
	// Model used for Q&A answers and the motivation write-up
	Chat ModelConfig `yaml:"chat" validate:"required"`
}

type ModelConfig struct {
	// OpenAI compatible base url
	BaseURL string `yaml:"base_url" example:"https://generativelanguage.googleapis.com/v1beta/openai" validate:"required,url"`
	// API token
	Token string `yaml:"token" example:"${GOOGLE_API_KEY}" validate:"required"`
	// Model name
	Model string `yaml:"model" example:"gemini-2.0-flash-lite" validate:"required"`
	// Per-call timeout
	Timeout time.Duration `yaml:"timeout" example:"30s"`
}

type Server struct {
	// Listen address of the HTTP API
	Listen string `yaml:"listen" example:":8000"`
	// Allowed CORS origins, comma separated
	CORSOrigins string `yaml:"cors_origins" example:"https://mars.example.com"`
}

type Submission struct {
	// Endpoint receiving finished applications, submission is skipped when empty
	URL string `yaml:"url" example:"https://api.example.com/applications" validate:"omitempty,url"`
	// Request timeout
	Timeout time.Duration `yaml:"timeout" example:"10s"`
}

type Club struct {
	// Club info file, JSON or YAML
	InfoPath string `yaml:"info_path" example:"./mars_info.json"`
}

type Session struct {
	// Idle sessions are evicted after this long, 0 keeps them for the process lifetime
	TTL time.Duration `yaml:"ttl" example:"24h"`
	// How often idle sessions are looked for
	JanitorInterval time.Duration `yaml:"janitor_interval" example:"10m"`
}

type Conversation struct {
	// Optional YAML file overriding the built-in conversation wording
	ScriptPath string `yaml:"script_path" example:"./script.yaml"`
}

type Archive struct {
	// JSON lines journal of finished applications
	Path string `yaml:"path" example:"data/applications.jsonl"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var result Config

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	setDefaults(&result)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8000"
	}
	if cfg.Server.CORSOrigins == "" {
		cfg.Server.CORSOrigins = "*"
	}
	if cfg.OpenAI.Extract.Timeout == 0 {
		cfg.OpenAI.Extract.Timeout = 30 * time.Second
	}
	if cfg.OpenAI.Chat.Timeout == 0 {
		cfg.OpenAI.Chat.Timeout = 30 * time.Second
	}
	if cfg.Submission.Timeout == 0 {
		cfg.Submission.Timeout = 10 * time.Second
	}
	if cfg.Club.InfoPath == "" {
		cfg.Club.InfoPath = "./mars_info.json"
	}
	if cfg.Session.JanitorInterval == 0 {
		cfg.Session.JanitorInterval = 10 * time.Minute
	}
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = "data/applications.jsonl"
	}
}
