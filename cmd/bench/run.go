package main

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/i5heu/GoCheckedQueue/internal/testbench"
	"github.com/i5heu/GoCheckedQueue/pkg/config"
)

type runOptions struct {
	*rootOptions
	configFile string
	iterations int
	duration   time.Duration
	noCheck    bool
	jsonExport bool
	output     string
	progress   bool
	cpus       int
}

func newRunCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run timed producer/consumer benchmarks",
		Long: `Run spawns producers and consumers against a fresh queue for every
concurrency setting and iteration, then verifies that every produced message
was consumed exactly once and that the queue structure is intact.

Example:
  bench run --iter 3 --duration 2s --json
  bench run --config bench.yaml --progress`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolveConfig(cmd)
			if err != nil {
				return err
			}
			if opts.cpus > 0 {
				runtime.GOMAXPROCS(opts.cpus)
			}
			session, err := runSession(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.logger, cfg, opts.progress)
			if err != nil {
				return err
			}
			if opts.jsonExport {
				if err := appendReport(cfg.Output, session); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nWrote results to %s\n", cfg.Output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.configFile, "config", "", "YAML file with bench settings")
	cmd.Flags().IntVar(&opts.iterations, "iter", 0, "number of iterations per concurrency setting (overrides config)")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "duration of each iteration (overrides config)")
	cmd.Flags().BoolVar(&opts.noCheck, "no-check", false, "only run the variant without invariant checks")
	cmd.Flags().BoolVar(&opts.jsonExport, "json", false, "append results to the JSON report")
	cmd.Flags().StringVar(&opts.output, "output", "", "JSON report path (overrides config)")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "display a progress bar with ETA")
	cmd.Flags().IntVar(&opts.cpus, "cpu", 0, "if non-zero, set GOMAXPROCS to this value")

	return cmd
}

// resolveConfig loads the config file, if any, and applies flag overrides.
func (o *runOptions) resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.configFile != "" {
		var err error
		if cfg, err = config.Load(o.configFile); err != nil {
			return cfg, err
		}
	}
	if cmd.Flags().Changed("iter") {
		cfg.Iterations = o.iterations
	}
	if cmd.Flags().Changed("duration") {
		cfg.Duration = o.duration
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = o.output
	}
	if o.noCheck {
		cfg.InvariantChecks = false
	}
	return cfg, cfg.Validate()
}

// selectImplementations drops the checked variant when checks are disabled.
func selectImplementations(cfg config.Config) []Implementation {
	var impls []Implementation
	for _, impl := range getImplementations() {
		if impl.checks && !cfg.InvariantChecks {
			continue
		}
		impls = append(impls, impl)
	}
	return impls
}

// runSession runs every configured benchmark once per iteration and returns
// the collected report. The first integrity failure aborts the session.
func runSession(out, progressOut io.Writer, logger *slog.Logger, cfg config.Config, progress bool) (FullReport, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	impls := selectImplementations(cfg)
	totalTests := len(cfg.Concurrency) * cfg.Iterations * len(impls)

	var bar *progressbar.ProgressBar
	if progress {
		bar = progressbar.NewOptions(totalTests,
			progressbar.OptionSetWriter(progressOut),
			progressbar.OptionSetDescription("benchmarks"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
		)
	}

	session := FullReport{
		SessionID:  uuid.NewString(),
		SystemInfo: gatherSystemInfo(),
	}
	session.SystemInfo.NumCPU = runtime.GOMAXPROCS(0)

	fmt.Fprintf(out, "GOMAXPROCS = %d\n", session.SystemInfo.NumCPU)

	for _, cc := range cfg.Concurrency {
		fmt.Fprintf(out, "  [Concurrency: producers=%d, consumers=%d]\n", cc.NumProducers, cc.NumConsumers)
		for iteration := 1; iteration <= cfg.Iterations; iteration++ {
			fmt.Fprintf(out, "    iteration %d/%d\n", iteration, cfg.Iterations)
			for _, impl := range impls {
				runtime.GC()
				q := impl.newQueue(logger)

				produced, consumed, actualTime, err := testbench.RunTimedTest[*int](
					q,
					cc,
					cfg.Duration,
					func(i int) *int {
						v := i
						return &v
					},
				)
				if err != nil {
					logger.Error("benchmark integrity failure",
						slog.String("implementation", impl.name),
						slog.Int("producers", cc.NumProducers),
						slog.Int("consumers", cc.NumConsumers),
						slog.String("error", err.Error()),
					)
					return session, fmt.Errorf("%s (producers=%d, consumers=%d): %w",
						impl.name, cc.NumProducers, cc.NumConsumers, err)
				}

				throughput := float64(consumed) / actualTime.Seconds()
				fmt.Fprintf(out, "    %s => produced=%d, consumed=%d, throughput=%.0f msg/s, took=%v\n",
					impl.name, produced, consumed, throughput, actualTime)

				session.Benchmarks = append(session.Benchmarks, BenchmarkResult{
					Implementation:      impl.name,
					InvariantChecks:     impl.checks,
					NumProducers:        cc.NumProducers,
					NumConsumers:        cc.NumConsumers,
					NumMessages:         produced,
					NumMessagesConsumed: consumed,
					TestDuration:        cfg.Duration.String(),
					ActualElapsed:       actualTime.String(),
					Throughput:          throughput,
					Timestamp:           time.Now().Unix(),
					GoVersion:           runtime.Version(),
				})

				if bar != nil {
					_ = bar.Add(1)
				}
			}
		}
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(progressOut)
	}

	session.SessionTime = time.Now().Format(time.RFC3339)
	return session, nil
}
