package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aeotrackhq/aeotrack/internal/domain"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"aeotrack-exports"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// Engines is a comma list of name=model pairs; bare names fall back to
	// AnswerModel. Empty means the default four engines.
	Engines     string `envconfig:"ENGINES"`
	AnswerModel string `envconfig:"ANSWER_MODEL" default:"gpt-4o-mini"`

	CheckConcurrency int           `envconfig:"CHECK_CONCURRENCY" default:"4"`
	CheckTimeout     time.Duration `envconfig:"CHECK_TIMEOUT" default:"60s"`

	SentryDSN string `envconfig:"SENTRY_DSN"`

	// Bootstrap: create initial organization and API key on startup
	InitOrgName string `envconfig:"INIT_ORG_NAME"`
	InitAPIKey  string `envconfig:"INIT_API_KEY"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("AEOTRACK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// EngineConfigs parses the ENGINES list into engine configurations
func (c *Config) EngineConfigs() ([]domain.EngineConfig, error) {
	if strings.TrimSpace(c.Engines) == "" {
		return domain.DefaultEngineConfigs(c.AnswerModel), nil
	}

	var engines []domain.EngineConfig
	for _, entry := range strings.Split(c.Engines, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, model := entry, c.AnswerModel
		if idx := strings.Index(entry, "="); idx >= 0 {
			name = strings.TrimSpace(entry[:idx])
			model = strings.TrimSpace(entry[idx+1:])
		}

		engine := domain.EngineConfig{Name: domain.Engine(name), Model: model}
		if err := domain.ValidateEngineConfig(engine); err != nil {
			return nil, fmt.Errorf("invalid ENGINES entry %q: %w", entry, err)
		}
		engines = append(engines, engine)
	}

	if len(engines) == 0 {
		return nil, fmt.Errorf("ENGINES is set but contains no engines")
	}

	return engines, nil
}
