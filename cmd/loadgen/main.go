package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/eventmap/internal/loadgen"
	"github.com/okian/eventmap/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Stderr.WriteString("load run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// newRootCommand builds the loadgen command with its flags bound to a
// loadgen.Config.
func newRootCommand() *cobra.Command {
	cfg := loadgen.DefaultConfig()
	var (
		logLevel   string
		logFormat  string
		runTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Generate synthetic events and verify the event map API end to end",
		Long: "loadgen uploads a synthetic event snapshot, waits for the background recompute,\n" +
			"checks clusters at every zoom band, requests recommendations for a nearby\n" +
			"profile and cross-checks the impact leaderboard.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return logger.Init(logger.WithLevel(logLevel), logger.WithFormat(logFormat))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()

			_, err := loadgen.Run(ctx, cfg)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the service")
	f.IntVar(&cfg.NumEvents, "events", cfg.NumEvents, "number of events to generate")
	f.Float64Var(&cfg.Center.Lat, "lat", cfg.Center.Lat, "latitude of the generated area center")
	f.Float64Var(&cfg.Center.Lng, "lng", cfg.Center.Lng, "longitude of the generated area center")
	f.Float64Var(&cfg.SpreadKm, "spread-km", cfg.SpreadKm, "radius of the generated area")
	f.IntVar(&cfg.HotSpots, "hot-spots", cfg.HotSpots, "dense areas events gather around")
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "generator seed (0 = time based)")
	f.IntVar(&cfg.TopN, "top", cfg.TopN, "leaderboard entries and recommendations to fetch")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent rank lookups")
	f.IntVar(&cfg.RankCheck, "rank-check", cfg.RankCheck, "events whose leaderboard rank is looked up")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	f.DurationVar(&cfg.Wait, "wait", cfg.Wait, "how long to wait for background recompute")
	f.StringVarP(&cfg.Output, "output", "o", "", "write the generated events to this JSON file")
	f.DurationVar(&runTimeout, "run-timeout", defaultRunTimeout, "limit for the whole run")

	pf := cmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "console", "log format (json, console)")
	return cmd
}
