package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/sysmonitor/internal/config"
	"github.com/Dicklesworthstone/sysmonitor/internal/logging"
	"github.com/Dicklesworthstone/sysmonitor/internal/model"
	"github.com/Dicklesworthstone/sysmonitor/internal/sampler"
	"github.com/Dicklesworthstone/sysmonitor/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flagged := config.Default()
	var configPath string

	cmd := &cobra.Command{
		Use:          "sysmoni",
		Short:        "Live CPU, memory, GPU clock and temperature monitor",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags(), flagged)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			switch {
			case cfg.JSON:
				log := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
				return runOnce(ctx, cmd.OutOrStdout(), sampler.New(cfg, log))
			case cfg.JSONStream:
				log := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
				return runStream(ctx, cmd.OutOrStdout(), sampler.New(cfg, log), log)
			default:
				log, closeLog, err := tuiLogger(cfg)
				if err != nil {
					return err
				}
				defer closeLog()
				return ui.RunTUI(ctx, cfg, sampler.New(cfg, log))
			}
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	flagged.RegisterFlags(cmd.Flags())
	return cmd
}

// runOnce takes two samples one interval apart so the CPU figure has a
// baseline, then prints the second as JSON.
func runOnce(ctx context.Context, out io.Writer, s *sampler.Sampler) error {
	s.SampleOnce()
	select {
	case <-time.After(s.Interval):
	case <-ctx.Done():
		return ctx.Err()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(s.SampleOnce())
}

// runStream writes one NDJSON line per tick until interrupted. A failed
// write stops sampling and is returned.
func runStream(ctx context.Context, out io.Writer, s *sampler.Sampler, log *logrus.Logger) error {
	g, gCtx := errgroup.WithContext(ctx)
	lines := make(chan []byte)

	g.Go(func() error {
		defer close(lines)
		for sample := range s.Stream(gCtx) {
			b, err := json.Marshal(sample)
			if err != nil {
				return fmt.Errorf("encode sample: %w", err)
			}
			logSample(log, sample)
			select {
			case lines <- b:
			case <-gCtx.Done():
				return nil
			}
		}
		return nil
	})

	g.Go(func() error {
		for b := range lines {
			if _, err := out.Write(append(b, '\n')); err != nil {
				return fmt.Errorf("write sample: %w", err)
			}
		}
		return nil
	})

	log.WithField("interval", s.Interval).Info("Streaming samples")
	return g.Wait()
}

func logSample(log *logrus.Logger, s model.Sample) {
	log.WithFields(logrus.Fields{
		"cpu":        s.CPU.UsagePercent,
		"cpu_source": s.CPU.Source.String(),
		"mem_used":   s.Memory.UsedMB,
		"gpu_mhz":    s.GPU.FrequencyMHz,
		"temp_c":     s.CPU.TemperatureC,
	}).Debug("Sample")
}

// tuiLogger keeps log output off the alternate screen: logs go to the
// configured file or nowhere.
func tuiLogger(cfg config.Config) (*logrus.Logger, func(), error) {
	if cfg.LogFile == "" {
		return logging.Discard(), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.New(f, cfg.LogLevel, cfg.LogFormat), func() { f.Close() }, nil
}
