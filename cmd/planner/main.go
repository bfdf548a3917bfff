package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"avalanche-planner/pkg/config"
)

var (
	configPath string
	cfg        config.Config
	logger     *slog.Logger

	rootCmd = &cobra.Command{
		Use:           "planner",
		Short:         "Plans off-piste routes over avalanche hazard terrain",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(configPath); err != nil {
				return err
			}
			logger = config.NewLogger(cfg.Log, os.Stderr)
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file")
	rootCmd.AddCommand(serveCmd, routeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("planner failed", "error", err)
		os.Exit(1)
	}
}
