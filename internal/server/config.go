// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the chat service.
package server

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Config holds the server configuration settings including security controls
// and the heartbeat policy of connection sessions.
type Config struct {
	Addr              string        `env:"SERVER_ADDR,default=:8080" validate:"required"`
	Origins           string        `env:"ALLOWED_ORIGINS,default=http://localhost:8080"`
	MaxMessageSize    int64         `env:"MAX_MESSAGE_SIZE,default=512" validate:"gt=0"`
	RateLimitBurst    int           `env:"RATE_LIMIT_BURST,default=5" validate:"gt=0"`
	RateLimitInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL,default=1s" validate:"gt=0"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=5s" validate:"gt=0"`
	ClientTimeout     time.Duration `env:"CLIENT_TIMEOUT,default=10s" validate:"gtfield=HeartbeatInterval"`
	SendBufferSize    int           `env:"SEND_BUFFER_SIZE,default=256" validate:"gt=0"`
	BrokerQueueSize   int           `env:"BROKER_QUEUE_SIZE,default=256" validate:"gt=0"`
	WriteWait         time.Duration `env:"WRITE_WAIT,default=10s" validate:"gt=0"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
}

// DefaultConfig returns a Config populated with default values for all settings.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		Origins:           "http://localhost:8080",
		MaxMessageSize:    512,
		RateLimitBurst:    5,
		RateLimitInterval: time.Second,
		HeartbeatInterval: 5 * time.Second,
		ClientTimeout:     10 * time.Second,
		SendBufferSize:    256,
		BrokerQueueSize:   256,
		WriteWait:         10 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		LogLevel:          "INFO",
	}
}

// LoadConfig reads the optional env files (".env" when none is given), then
// the process environment. Variables already set in the environment win over
// the files.
func LoadConfig(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("env file error: %w", err)
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}

	cfg = sanitizeConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// AllowedOrigins splits the comma separated origin list.
func (c Config) AllowedOrigins() []string {
	if strings.TrimSpace(c.Origins) == "" {
		return nil
	}
	return parseOrigins(c.Origins)
}

// sanitizeConfig replaces unset values with their defaults.
func sanitizeConfig(cfg Config) Config {
	def := DefaultConfig()

	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = def.RateLimitBurst
	}
	if cfg.RateLimitInterval <= 0 {
		cfg.RateLimitInterval = def.RateLimitInterval
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	if cfg.ClientTimeout <= 0 {
		cfg.ClientTimeout = def.ClientTimeout
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = def.SendBufferSize
	}
	if cfg.BrokerQueueSize <= 0 {
		cfg.BrokerQueueSize = def.BrokerQueueSize
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = def.WriteWait
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}

	cfg.LogLevel = strings.ToUpper(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	return cfg
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
