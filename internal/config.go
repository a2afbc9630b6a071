package internal

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

type Config struct {
	Host           string `env:"HOST,default=0.0.0.0" validate:"required"`
	Port           int    `env:"PORT,default=3000" validate:"min=1,max=65535"`
	GrpcHealthPort int    `env:"GRPC_HEALTH_PORT,default=3001" validate:"min=1,max=65535,nefield=Port"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`

	StoreBackend        string `env:"STORE_BACKEND,default=badger" validate:"oneof=memory badger sqlite"`
	BadgerFilepath      string `env:"BADGER_FILEPATH,default=./data/badger" validate:"required_if=StoreBackend badger"`
	SQLiteFilepath      string `env:"SQLITE_FILEPATH,default=./data/chat.db" validate:"required_if=StoreBackend sqlite"`
	SubscriptionBackend string `env:"SUBSCRIPTION_BACKEND,default=memory" validate:"oneof=memory badger"`

	ConnectionBufferSize int     `env:"CONNECTION_BUFFER_SIZE,default=256" validate:"min=1"`
	MaxFrameSize         int64   `env:"MAX_FRAME_SIZE,default=65536" validate:"min=512"`
	MaxMessageLength     int     `env:"MAX_MESSAGE_LENGTH,default=4000" validate:"min=1"`
	MaxNameLength        int     `env:"MAX_NAME_LENGTH,default=64" validate:"min=1"`
	RateLimitPerSecond   float64 `env:"RATE_LIMIT_PER_SECOND,default=20" validate:"gt=0"`
	RateLimitBurst       int     `env:"RATE_LIMIT_BURST,default=40" validate:"min=1"`
	AllowedOrigins       string  `env:"ALLOWED_ORIGINS,default=*"`

	SinkTimeout   time.Duration `env:"SINK_TIMEOUT,default=2s" validate:"gt=0"`
	PushTimeout   time.Duration `env:"PUSH_TIMEOUT,default=10s" validate:"gt=0"`
	PushWorkers   int           `env:"PUSH_WORKERS,default=4" validate:"min=1"`
	PushQueueSize int           `env:"PUSH_QUEUE_SIZE,default=1024" validate:"min=1"`
	PushTTL       time.Duration `env:"PUSH_TTL,default=12h" validate:"gte=0"`

	VapidPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VapidPrivateKey string `env:"VAPID_PRIVATE_KEY" validate:"required_with=VapidPublicKey"`
	VapidSubject    string `env:"VAPID_SUBJECT,default=mailto:admin@example.com" validate:"required"`

	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=1s" validate:"gt=0"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=1m" validate:"gt=0"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
}

// Validate checks the decoded values against their struct tags.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) GrpcHealthAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.GrpcHealthPort))
}

// Origins splits ALLOWED_ORIGINS on commas and drops blanks.
func (c Config) Origins() []string {
	parts := lo.Map(strings.Split(c.AllowedOrigins, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Compact(parts)
}
