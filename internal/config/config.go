package config

import (
	"fmt"
	"path"
	"time"

	"github.com/eskrenkovic/matchroom/internal/env"
	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"

	"go.uber.org/zap"
)

const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

type environment struct {
	Port             int           `env:"PORT" envDefault:"8080"`
	TimeControls     string        `env:"TIME_CONTROLS" envDefault:"1+0,3+0,3+2,10+0,10+5,30+0"`
	InviteExpiry     time.Duration `env:"INVITE_EXPIRY" envDefault:"15m"`
	QueueLockTimeout time.Duration `env:"QUEUE_LOCK_TIMEOUT" envDefault:"2s"`
	MaxChatLength    int           `env:"MAX_CHAT_LENGTH" envDefault:"200"`
	TokenSecret      string        `env:"TOKEN_SECRET,required"`
	TokenTTL         time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	RootPath         string        `env:"ROOT_PATH" envDefault:"."`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"json"`
}

type Config struct {
	Logger *zap.Logger

	Port             int
	TimeControls     domain.TimeControlSet
	InviteExpiry     time.Duration
	QueueLockTimeout time.Duration
	MaxChatLength    int

	TokenSecret string
	TokenTTL    time.Duration

	DatabaseURL    string
	MigrationsPath string
}

func Load() (Config, error) {
	e, err := env.ParseEnv[environment]()
	if err != nil {
		return Config{}, err
	}

	logger, err := NewLogger(e.LogFormat)
	if err != nil {
		return Config{}, err
	}

	timeControls, err := domain.ParseTimeControlSet(e.TimeControls)
	if err != nil {
		return Config{}, fmt.Errorf("TIME_CONTROLS: %w", err)
	}

	if e.MaxChatLength <= 0 {
		return Config{}, fmt.Errorf("MAX_CHAT_LENGTH must be positive, got %d", e.MaxChatLength)
	}

	return Config{
		Logger:           logger,
		Port:             e.Port,
		TimeControls:     timeControls,
		InviteExpiry:     e.InviteExpiry,
		QueueLockTimeout: e.QueueLockTimeout,
		MaxChatLength:    e.MaxChatLength,
		TokenSecret:      e.TokenSecret,
		TokenTTL:         e.TokenTTL,
		DatabaseURL:      e.DatabaseURL,
		MigrationsPath:   path.Join(e.RootPath, "db", "migrations"),
	}, nil
}

func NewLogger(format string) (*zap.Logger, error) {
	switch format {
	case LogFormatJSON, "":
		return zap.NewProduction()
	case LogFormatConsole:
		return zap.NewDevelopment()
	default:
		return nil, fmt.Errorf("unsupported LOG_FORMAT %q", format)
	}
}
