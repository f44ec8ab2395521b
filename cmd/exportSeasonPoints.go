package cmd

import (
	"context"
	"io"
	"os"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var exportSeasonPointsCmd = &cobra.Command{
	Use:   "export-season-points",
	Short: "Export a week's season points as CSV",
	Run: func(cmd *cobra.Command, args []string) {
		bindCommandFlags(cmd)
		cfg := config.NewConfig()

		a := newApp(cfg)
		defer a.Close()
		l := a.logger

		weekId := viper.GetString(config.ExportWeekId)
		if weekId == "" {
			l.Sugar().Fatalw("Week id is required", "flag", config.ExportWeekId)
		}

		var w io.Writer = os.Stdout
		if outputFile := viper.GetString(config.ExportOutputFile); outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				l.Sugar().Fatalw("Failed to create output file", "path", outputFile, zap.Error(err))
			}
			defer f.Close()
			w = f
		}

		if err := a.calculator.ExportUserSeasonPoints(context.Background(), weekId, w); err != nil {
			l.Sugar().Errorw("Failed to export season points", "weekId", weekId, zap.Error(err))
			a.Close()
			cobra.CheckErr(err)
		}
	},
}
