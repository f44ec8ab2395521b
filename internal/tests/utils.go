package tests

import (
	"os"

	"github.com/Layr-Labs/season-points/internal/config"
)

func GetConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Debug = os.Getenv(config.ENV_PREFIX+"_DEBUG") == "true"
	return cfg
}
