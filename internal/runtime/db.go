package runtime

import (
	"fmt"

	"github.com/arman-radmanesh/clinicore/config"
)

// BuildPostgresDSN constructs a DSN from the application configuration.
func BuildPostgresDSN(cfg *config.Config) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("config is nil")
	}
	return cfg.Databases.Postgres.DSN()
}
