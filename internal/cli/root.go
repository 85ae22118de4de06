// Package cli implements the fixit command line.
package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/erazemk/fixitforward/internal/config"
	"github.com/erazemk/fixitforward/internal/platform/logger"
)

// App is shared by every subcommand.
type App struct {
	ConfigPath string

	v        *viper.Viper
	cfg      *config.Config
	log      *zap.Logger
	closeLog func()
}

func NewRootCmd() *cobra.Command {
	app := &App{v: viper.New()}

	cmd := &cobra.Command{
		Use:          "fixit",
		Short:        "FixIt Forward repair marketplace",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Create the database
  fixit init --db fixit.sqlite3

  # Run the HTTP service
  fixit serve --addr :8080

  # Walk through a repair in memory
  fixit demo
`),
	}

	cmd.PersistentFlags().StringVarP(&app.ConfigPath, "config", "c", "", "Config file or directory holding fixit.yaml")
	cmd.PersistentFlags().StringP("db", "d", "fixit.sqlite3", "SQLite database path")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringP("log", "l", "", "Also write logs to this file")
	_ = app.v.BindPFlag("db", cmd.PersistentFlags().Lookup("db"))
	_ = app.v.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = app.v.BindPFlag("log.file", cmd.PersistentFlags().Lookup("log"))

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup()
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		app.close()
	}

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newDemoCmd(app))

	return cmd
}

// setup loads the configuration and installs the logger.
func (a *App) setup() error {
	cfg, err := config.Load(a.v, a.ConfigPath)
	if err != nil {
		return err
	}
	log, closeLog, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(log)

	a.cfg = cfg
	a.log = log
	a.closeLog = closeLog
	return nil
}

func (a *App) close() {
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
}
