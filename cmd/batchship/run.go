package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	oklogrun "github.com/oklog/run"
	"github.com/rs/zerolog"

	"github.com/bft-labs/batchship/internal/adapters/metrics"
	"github.com/bft-labs/batchship/internal/adapters/sink"
	"github.com/bft-labs/batchship/internal/adapters/source"
	"github.com/bft-labs/batchship/internal/cliconfig"
	"github.com/bft-labs/batchship/internal/domain"
	"github.com/bft-labs/batchship/pkg/aggregate"
	logAdapter "github.com/bft-labs/batchship/pkg/log"
)

// shutdownTimeout bounds the final drain and the sink close.
const shutdownTimeout = 30 * time.Second

// run wires the input, the buffered sink and the metrics endpoint into one
// process group and blocks until the input ends or a signal arrives.
func run(ctx context.Context, cfg cliconfig.Config, log zerolog.Logger) error {
	logger := logAdapter.NewZerologAdapterWithLogger(log)

	s, err := sink.Open(sink.Params{
		Kind:        cfg.Sink,
		Out:         os.Stdout,
		ServiceURL:  cfg.ServiceURL,
		AuthKey:     cfg.AuthKey,
		HTTPTimeout: cfg.HTTPTimeout,
		SQLitePath:  cfg.SQLitePath,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}

	collector, err := metrics.NewCollector(nil)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	transform, err := newTransform(cfg)
	if err != nil {
		return err
	}

	buffered, err := sink.NewBuffered(s, aggregate.Config[domain.Record]{
		Interval:  cfg.Interval,
		Max:       cfg.Max,
		Transform: transform,
	}, aggregate.WithLogger(logger), aggregate.WithEventHandler(collector))
	if err != nil {
		_ = s.Close(ctx)
		return fmt.Errorf("create buffered sink: %w", err)
	}

	var g oklogrun.Group

	{
		readCtx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				err := readInput(readCtx, cfg, logger, func(rec domain.Record) {
					_ = buffered.Write(readCtx, rec)
				})
				log.Info().Msg("input finished")
				return err
			},
			func(error) {
				cancel()
			},
		)
	}

	{
		term := make(chan os.Signal, 1)
		cancel := make(chan struct{})
		g.Add(
			func() error {
				signal.Notify(term, os.Interrupt, syscall.SIGTERM)
				defer signal.Stop(term)
				select {
				case sig := <-term:
					log.Info().Str("signal", sig.String()).Msg("received signal, stopping...")
				case <-cancel:
				}
				return nil
			},
			func(error) {
				close(cancel)
			},
		)
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Add(
			func() error {
				log.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("metrics server: %w", err)
				}
				return nil
			},
			func(error) {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			},
		)
	}

	runErr := g.Run()

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := buffered.Close(closeCtx); err != nil {
		log.Error().Err(err).Int("pending", buffered.Pending()).Msg("close sink")
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

// readInput emits records from the configured input until it ends or ctx is
// cancelled. Blocking reads are abandoned on cancellation.
func readInput(ctx context.Context, cfg cliconfig.Config, logger logAdapter.Logger, emit source.Emit) error {
	if cfg.Follow {
		return source.NewFollower(cfg.Input, logger).Run(ctx, emit)
	}

	var r io.Reader = os.Stdin
	name := "stdin"
	if cfg.Input != "" && cfg.Input != "-" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r, name = f, cfg.Input
	}

	errc := make(chan error, 1)
	go func() {
		errc <- source.ReadLines(ctx, r, name, emit)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	case <-ctx.Done():
		return nil
	}
}

// newTransform builds the record filter: optional trimming, then dropping
// of empty lines and lines matching the drop pattern.
func newTransform(cfg cliconfig.Config) (func(domain.Record) (domain.Record, bool), error) {
	drop, err := cfg.DropRegexp()
	if err != nil {
		return nil, err
	}

	return func(rec domain.Record) (domain.Record, bool) {
		if cfg.Trim {
			rec.Line = strings.TrimSpace(rec.Line)
		}
		if rec.Line == "" {
			return rec, false
		}
		if drop != nil && drop.MatchString(rec.Line) {
			return rec, false
		}
		return rec, true
	}, nil
}
