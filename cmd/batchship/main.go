package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/batchship/internal/cliconfig"
)

const helpDescription = `
Read lines from a file or stdin and ship them to a sink in periodic batches.

Highlights:
  - Lines are buffered in memory and flushed once per interval, in order.
  - A failed flush keeps the batch at the head of the queue for the next try.
  - On shutdown the queue is drained once before the sink is closed.
  - Sinks: stdout (JSON lines), http (JSON batches), sqlite.
`

var exampleUsage = strings.TrimSpace(`
  tail -F app.log | batchship --sink http --service-url http://collector:8080 --auth-key <key>
  batchship --input /var/log/app.log --follow --sink sqlite --sqlite-path lines.db
  batchship --config $HOME/.batchship/config.yaml --metrics-addr :9090
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func newLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := newLogger(zerolog.InfoLevel)

	root := &cobra.Command{
		Use:     "batchship",
		Short:   "Ship lines to a sink in periodic batches",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// BATCHSHIP_* override file config but not explicit flags.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			level, _ := cfg.Level()
			log = newLogger(level)

			logCfg := cfg
			if len(logCfg.AuthKey) > 0 {
				logCfg.AuthKey = "*****"
			}
			log.Info().Interface("config", logCfg).Msg("configuration")

			return run(cmd.Context(), cfg, log)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file, .toml or .yaml (default: $HOME/.batchship/config.toml)")
	root.Flags().StringVar(&cfg.Input, "input", cfg.Input, "file to read lines from (- for stdin)")
	root.Flags().BoolVar(&cfg.Follow, "follow", cfg.Follow, "keep reading lines appended to the input file")

	root.Flags().StringVar(&cfg.Sink, "sink", cfg.Sink, "sink to ship batches to (stdout, http, sqlite)")
	root.Flags().StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, "base URL of the http sink")
	root.Flags().StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "API key for the http sink")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout")
	root.Flags().StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "database file of the sqlite sink")

	root.Flags().DurationVar(&cfg.Interval, "interval", cfg.Interval, "time between flushes")
	root.Flags().IntVar(&cfg.Max, "max", cfg.Max, "pending count that triggers a warning (advisory)")
	root.Flags().StringVar(&cfg.DropPattern, "drop-pattern", cfg.DropPattern, "regular expression of lines to drop")
	root.Flags().BoolVar(&cfg.Trim, "trim", cfg.Trim, "trim surrounding whitespace from lines")

	root.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address to serve Prometheus metrics on (disabled when empty)")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("batchship")
		os.Exit(1)
	}
}
