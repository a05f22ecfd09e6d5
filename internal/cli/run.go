// internal/cli/run.go
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamzrod/uniform-watch/internal/config"
	"github.com/tamzrod/uniform-watch/internal/dashboard"
	"github.com/tamzrod/uniform-watch/internal/logger"
	"github.com/tamzrod/uniform-watch/internal/metrics"
	"github.com/tamzrod/uniform-watch/internal/poller"
	"github.com/tamzrod/uniform-watch/internal/roster"
	"github.com/tamzrod/uniform-watch/internal/session"
	"github.com/tamzrod/uniform-watch/internal/stream"
	"github.com/tamzrod/uniform-watch/internal/writer"
)

const logModule = "main"

const shutdownGrace = 5 * time.Second

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll the detection service and serve the dashboard until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx)
		},
	}
	cmd.Flags().String("listen", "", "dashboard listen address (default :8090)")
	_ = a.v.BindPFlag(config.KeyListen, cmd.Flags().Lookup("listen"))
	return cmd
}

// run wires every component around one poller and blocks until ctx ends
// or the dashboard fails.
func (a *app) run(ctx context.Context) error {
	cfg := a.cfg
	m := metrics.New()

	// --------------------
	// Poller + detection client
	// --------------------

	p, client, err := poller.Build(cfg, poller.WithObserver(m))
	if err != nil {
		return fmt.Errorf("poller build failed: %w", err)
	}
	defer p.Wait()
	defer p.Stop()

	// --------------------
	// Session (single provider subscription)
	// --------------------

	broker, err := session.NewBroker(session.NewStaticProvider(
		session.ConfiguredUser(cfg.Session.User, cfg.Session.Email),
	))
	if err != nil {
		return err
	}
	defer broker.Close()

	// --------------------
	// Video feed (independent of the poller)
	// --------------------

	var frames dashboard.FrameSource
	if cfg.Stream.IsEnabled() {
		mon, err := stream.New(stream.Config{ReconnectDelay: ms(cfg.Stream.ReconnectMs)}, client, stream.WithObserver(m))
		if err != nil {
			return fmt.Errorf("stream build failed: %w", err)
		}
		if err := mon.Start(ctx); err != nil {
			return err
		}
		defer mon.Stop()
		frames = mon
	}

	// --------------------
	// Modbus status export (optional)
	// --------------------

	if cfg.Export.IsEnabled() {
		exp, closeExport, err := writer.Build(cfg.Export)
		if err != nil {
			return fmt.Errorf("export build failed: %w", err)
		}
		defer closeExport()

		expCtx, cancelExp := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			exp.Run(expCtx)
		}()
		defer func() {
			cancelExp()
			<-done
		}()

		unsub := p.Subscribe(exp.Notify)
		defer unsub()
		logger.Info(logModule, "exporting status to %s unit=%d slot=%d", cfg.Export.Endpoint, cfg.Export.UnitID, cfg.Export.BaseSlot)
	}

	// --------------------
	// Dashboard
	// --------------------

	serveErr := make(chan error, 1)
	if cfg.Dashboard.IsEnabled() {
		store, err := roster.Open(cfg.Roster.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		srv, err := dashboard.NewServer(&dashboard.Options{
			Address: cfg.Dashboard.Listen,
			Poller:  p,
			Stream:  frames,
			Metrics: m,
			Session: broker.Context(),
			Roster:  roster.NewService(store),
		})
		if err != nil {
			return err
		}
		go func() { serveErr <- srv.Start() }()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := srv.Stop(sctx); err != nil {
				logger.Warn(logModule, "dashboard shutdown: %v", err)
			}
		}()
	}

	// --------------------
	// Go
	// --------------------

	if err := p.Start(ctx); err != nil {
		return err
	}
	logger.Info(logModule, "polling %s every %s", client.BaseURL(), p.Interval())

	select {
	case <-ctx.Done():
		logger.Info(logModule, "shutting down")
		return nil
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		return nil
	}
}
