package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// COORDINATOR_ADDR points the scenarios at a running coordinator,
	// e.g. http://localhost:8080. Unset skips the whole suite.
	CoordinatorAddr string `envconfig:"COORDINATOR_ADDR"`
	// JWT_SECRET must match the secret the coordinator was started with so
	// the scenarios can mint their own collaborator tokens.
	JWTSecret string `envconfig:"JWT_SECRET" default:"e2e-secret"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
