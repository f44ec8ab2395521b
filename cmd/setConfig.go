package cmd

import (
	"context"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var setConfigCmd = &cobra.Command{
	Use:   "set-config",
	Short: "Store a pipeline parameter that overrides the flag default",
	Run: func(cmd *cobra.Command, args []string) {
		bindCommandFlags(cmd)
		cfg := config.NewConfig()

		a := newApp(cfg)
		defer a.Close()
		l := a.logger

		key := viper.GetString(config.SetConfigKey)
		value := viper.GetString(config.SetConfigValue)
		if key == "" || value == "" {
			l.Sugar().Fatalw("Key and value are required", "flags", []string{config.SetConfigKey, config.SetConfigValue})
		}

		if err := a.configStore.SetValue(context.Background(), key, value); err != nil {
			l.Sugar().Errorw("Failed to set config value", "key", key, zap.Error(err))
			a.Close()
			cobra.CheckErr(err)
		}
	},
}
