package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Arch199/crontrack/alert"
	"github.com/Arch199/crontrack/backoff"
	"github.com/Arch199/crontrack/config"
	"github.com/Arch199/crontrack/monitor"
	"github.com/Arch199/crontrack/notify"
)

func newMonitorCmd(configPath *string) *cobra.Command {
	var (
		runFor time.Duration
		tick   time.Duration
		once   bool
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the background loop that detects missed check-in windows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			s, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			opts := []monitor.Option{
				monitor.WithFanout(cfg.Monitor.Fanout),
				monitor.WithPageSize(cfg.Monitor.PageSize),
				monitor.WithRetry(backoff.Default(), cfg.Monitor.RetryAttempts),
				monitor.WithSite(notify.Site(cfg.Site)),
				monitor.WithEvents(s),
			}
			if tick > 0 {
				opts = append(opts, monitor.WithTickInterval(tick))
			} else {
				opts = append(opts, monitor.WithTickInterval(cfg.Monitor.TickInterval))
			}
			if runFor > 0 {
				opts = append(opts, monitor.WithTimeLimit(runFor))
			}

			m, err := monitor.New(
				s, s,
				alert.NewLedger(s),
				buildChannel(cfg),
				notify.DefaultRenderer,
				opts...,
			)
			if err != nil {
				return err
			}

			if once {
				m.RunOnce(ctx)
				return nil
			}

			if err := m.Start(ctx); err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigCh
				slog.Info("received signal, stopping monitor", slog.String("signal", sig.String()))
				m.Stop()
			}()

			m.Wait()
			return nil
		},
	}

	cmd.Flags().DurationVar(&runFor, "run-for", 0, "self-stop after this duration (0 = run until signaled)")
	cmd.Flags().DurationVar(&tick, "tick", 0, "override the configured tick interval")
	cmd.Flags().BoolVar(&once, "once", false, "run a single evaluation pass and exit")
	return cmd
}

// buildChannel wires the delivery stack: a per-method router over the
// configured transports, wrapped in logging, panic recovery, and a timeout.
func buildChannel(cfg *config.Config) notify.Channel {
	var email notify.Channel = notify.Disabled{}
	if cfg.Email.APIKey != "" {
		email = notify.NewEmail(cfg.Email.APIKey, cfg.Email.FromName, cfg.Email.FromAddress)
	}

	var sms notify.Channel = notify.Disabled{}
	if cfg.SMS.GatewayURL != "" {
		sms = notify.NewSMS(cfg.SMS.GatewayURL, cfg.SMS.Token,
			notify.WithSMSTimeout(cfg.SMS.Timeout),
		)
	}

	return notify.Wrap(
		notify.NewRouter(email, sms),
		notify.Tracing(),
		notify.Metrics(),
		notify.Logging(slog.Default()),
		notify.Recover(slog.Default()),
		notify.Timeout(30*time.Second),
	)
}
