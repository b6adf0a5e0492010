package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/m3rciful/lexibot/app"
	appconfig "github.com/m3rciful/lexibot/app/config"
	"github.com/m3rciful/lexibot/core/buildinfo"
	corecmd "github.com/m3rciful/lexibot/core/cmd"
	"github.com/m3rciful/lexibot/core/database"
	"github.com/m3rciful/lexibot/core/logger"
	"github.com/m3rciful/lexibot/migrations"
)

const (
	configEnvVar      = "CONFIG_PATH"
	defaultConfigPath = "config.yaml"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "lexibot: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	runCmd := newRunCommand(&configPath)
	root := &cobra.Command{
		Use:           "lexibot",
		Short:         "Personal vocabulary Telegram bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCmd.RunE,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path (overrides $"+configEnvVar+")")
	root.AddCommand(runCmd, newMigrateCommand(&configPath), newVersionCommand())
	return root
}

func newRunCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return corecmd.Run(corecmd.Options{
				ConfigPath:        *configPath,
				ConfigEnvVar:      configEnvVar,
				DefaultConfigPath: defaultConfigPath,
				LoadConfig:        app.LoadConfig,
				Bootstrap:         app.Bootstrap,
			})
		},
	}
}

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := corecmd.ResolveConfigPath(*configPath, configEnvVar, defaultConfigPath)
			if err != nil {
				return err
			}
			cfg, err := appconfig.Load(path)
			if err != nil {
				return err
			}
			if err := logger.InitLogger(cfg.CoreConfig()); err != nil {
				return err
			}
			defer func() { _ = logger.Shutdown() }()
			return database.RunMigrations(cfg.Database, migrations.FS())
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("lexibot " + buildinfo.String())
		},
	}
}
