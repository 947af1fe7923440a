package commands

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"debts/internal/cli"
	"debts/internal/config"
	apphttp "debts/internal/http"
	"debts/internal/log"
	"debts/internal/shell"
)

type runOptions struct {
	port     string
	headless bool
}

func (r *runOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.port, "port", "", "listen port, 0 picks a free one (overrides PORT)")
	cmd.Flags().BoolVar(&r.headless, "headless", false, "serve without opening a window")
}

func runApp(ctx context.Context, opts *overrides, run *runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(func(c *config.Config) {
		opts.apply(c)
		if run.port != "" {
			c.Port = run.port
		}
		if run.headless {
			c.Headless = true
		}
	})
	if err != nil {
		return err
	}

	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting debts",
		"backend", cfg.DataBackend,
		"addr", cfg.Addr(),
		"headless", cfg.Headless)

	ctx, stop := cli.SignalContext(ctx)
	defer stop()

	res, err := cli.InitBackend(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("initialize backend: %w", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	l, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}

	srv := apphttp.NewServer(l.Addr().String(), res.Service, logger)

	var window shell.Window
	if !cfg.Headless {
		window = shell.NewWebviewWindow(cfg.WindowTitle, cfg.WindowWidth, cfg.WindowHeight)
	}

	if err := shell.New(srv, l, window, logger).Run(ctx); err != nil {
		return err
	}
	logger.Info("Stopped")
	return nil
}
