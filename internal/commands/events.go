package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"debts/internal/amqp"
	"debts/internal/cli"
	"debts/internal/config"
)

func newEventsCommand(opts *overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Print debt change events from the broker until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadAndValidateConfig(func(c *config.Config) {
				opts.apply(c)
				c.Headless = true
			})
			if err != nil {
				return err
			}
			if cfg.AMQPURL == "" {
				return errors.New("AMQP_URL is not set")
			}

			logger := cli.SetupLogger(cfg.LogLevel)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := cli.SignalContext(ctx)
			defer stop()

			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				return fmt.Errorf("connect to broker: %w", err)
			}
			defer client.Close()

			logger.Info("Listening for debt events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			out := cmd.OutOrStdout()
			err = client.ConsumeDebtEvents(ctx, func(msg *amqp.DebtEventMessage) error {
				_, err := fmt.Fprintln(out, formatEvent(msg))
				return err
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func formatEvent(msg *amqp.DebtEventMessage) string {
	line := fmt.Sprintf("%s %s #%d %s remaining=%.2f",
		msg.Timestamp.Format("2006-01-02 15:04:05"), msg.Type, msg.ID, msg.Name, msg.RemainingAmount)
	if msg.Action != "" {
		line += fmt.Sprintf(" %s=%.2f", msg.Action, msg.Amount)
	}
	return line
}
