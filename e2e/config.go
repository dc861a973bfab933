package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_RECEIVE_TIMEOUT bounds every wait for a websocket frame
	ReceiveTimeout time.Duration `envconfig:"E2E_RECEIVE_TIMEOUT" default:"3s"`
	// E2E_SILENCE_WINDOW is how long a connection must stay quiet to count
	// as having received nothing
	SilenceWindow time.Duration `envconfig:"E2E_SILENCE_WINDOW" default:"300ms"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
