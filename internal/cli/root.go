// Package cli holds the pmtrack command tree.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pmtrack/internal/config"
	"pmtrack/internal/logging"
	"pmtrack/internal/storage/sqlite"
	"pmtrack/internal/util"
)

// app carries the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

// NewRootCommand builds a fresh command tree with its own viper instance.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "pmtrack",
		Short: "Project tracker with boards, time tracking and reports",
		Long: `pmtrack serves the project tracker API and frontend, manages the
database schema and prints project cards and time reports from the shell.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", util.EnvOrDefault("PMTRACK_CONFIG", ""),
		"config file (default is ./pmtrack.yaml or $HOME/.config/pmtrack/pmtrack.yaml)")
	flags.String("db", "", "path to the sqlite database file")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	_ = a.v.BindPFlag("database.path", flags.Lookup("db"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))

	root.AddCommand(
		a.newServeCommand(),
		a.newMigrateCommand(),
		a.newProjectsCommand(),
		a.newReportCommand(),
	)
	return root
}

// Execute runs the pmtrack command tree.
func Execute() error {
	return NewRootCommand().Execute()
}

func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	if err := config.Init(a.v, a.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	if used := a.v.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", slog.String("file", used))
	}
	return nil
}

// openStore opens the configured database. Pending migrations run unless
// opts say otherwise.
func (a *app) openStore(opts ...sqlite.Option) (*sqlite.Store, error) {
	opts = append([]sqlite.Option{sqlite.WithBusyTimeout(a.cfg.Database.BusyTimeoutMS)}, opts...)
	store, err := sqlite.Open(a.cfg.Database.Path, a.logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", a.cfg.Database.Path, err)
	}
	return store, nil
}
