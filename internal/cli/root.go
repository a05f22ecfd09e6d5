// internal/cli/root.go
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tamzrod/uniform-watch/internal/config"
	"github.com/tamzrod/uniform-watch/internal/logger"
)

const envPrefix = "UNIFORMWATCH"

// app carries what every command shares: the override layer and the loaded config.
type app struct {
	v       *viper.Viper
	cfgFile string
	envFile string
	cfg     *config.Config
}

// NewRootCmd builds the command tree. Each call returns an independent tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "uniformwatch",
		Short: "Watch a uniform-detection service",
		Long: `Polls a remote uniform-detection service, serves a local dashboard with
the live status and video feed, and manages the student roster.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	pf.String("log-level", "", "log level: debug, info, warn, error, silent")
	pf.String("detection-url", "", "detection service base URL (default http://localhost:5000)")
	pf.Int("interval", 0, "status poll interval in milliseconds (default 1000)")
	pf.String("db", "", "roster database path (default roster.db)")

	_ = a.v.BindPFlag(config.KeyLogLevel, pf.Lookup("log-level"))
	_ = a.v.BindPFlag(config.KeyDetectionURL, pf.Lookup("detection-url"))
	_ = a.v.BindPFlag(config.KeyIntervalMs, pf.Lookup("interval"))
	_ = a.v.BindPFlag(config.KeyRosterDB, pf.Lookup("db"))

	root.AddCommand(
		a.runCmd(),
		a.statusCmd(),
		a.resetCmd(),
		a.shutdownCmd(),
		a.studentsCmd(),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// load resolves config: .env, YAML file, then flag and UNIFORMWATCH_* overrides.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	path := a.cfgFile
	if path == "" {
		path = os.Getenv(envPrefix + "_CONFIG")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	config.ApplyOverrides(cfg, a.v)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.Init(level, cmd.ErrOrStderr(), cfg.Log.Color)

	a.cfg = cfg
	return nil
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
