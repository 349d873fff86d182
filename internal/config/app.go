package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/hashia/pkg/log"
)

type AppConfig struct {
	Port int `env:"PORT" envDefault:"3000"`

	// Messenger platform
	VerifyToken     string `env:"FACEBOOK_VERIFY_TOKEN" envDefault:"hashia"`
	PageAccessToken string `env:"FACEBOOK_PAGE_ACCESS_TOKEN,required,notEmpty"`
	GraphAPIURL     string `env:"GRAPH_API_URL" envDefault:"https://graph.facebook.com/v22.0"`
	SetupProfile    bool   `env:"SETUP_PROFILE" envDefault:"true"`

	PinterestAPIURL string `env:"PINTEREST_API_URL" envDefault:"https://hashia-pinterest.vercel.app"`

	SystemInstructionPath string `env:"SYSTEM_INSTRUCTION_PATH" envDefault:"systemInstruction/prompt.txt"`

	// Session management
	MaxTurns         int    `env:"MAX_TURNS" envDefault:"40"`
	SnapshotPath     string `env:"SNAPSHOT_PATH" envDefault:"tmp/chat_history_backup.yaml"`
	SnapshotSchedule string `env:"SNAPSHOT_SCHEDULE"`
	ArchiveDBPath    string `env:"ARCHIVE_DB_PATH"`
	ArchiveKeep      int    `env:"ARCHIVE_KEEP" envDefault:"48"`

	// Timeouts
	EventTimeout    time.Duration `env:"EVENT_TIMEOUT" envDefault:"2m"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Observability
	LogFile     string `env:"LOG_FILE"`
	MetricsFile string `env:"METRICS_FILE"`
}

// LoadAppConfig parses the environment without terminating the process.
func LoadAppConfig() (*AppConfig, error) {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	if c.MaxTurns <= 0 {
		return nil, fmt.Errorf("MAX_TURNS must be positive, got %d", c.MaxTurns)
	}
	return c, nil
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c, err := LoadAppConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c AppConfig) IsArchiveEnabled() bool {
	return c.ArchiveDBPath != ""
}
