package main

import "time"

type Config struct {
	Host          string `env:"HOST,default=localhost"`
	Port          int    `env:"PORT,default=8080"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`
	RosterPath    string `env:"ROSTER_PATH"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN,default=http://localhost:3000"`

	TokenSecret string        `env:"TOKEN_SECRET,required=true"`
	TokenTTL    time.Duration `env:"TOKEN_TTL,default=24h"`

	MailboxLimit              int           `env:"MAILBOX_LIMIT,default=256"`
	CommandBufferSize         int           `env:"COMMAND_BUFFER_SIZE,default=256"`
	SinkBufferSize            int           `env:"SINK_BUFFER_SIZE,default=32"`
	WriteTimeout              time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	ModerationCharReplacement string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`

	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL,default=30s"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
}
