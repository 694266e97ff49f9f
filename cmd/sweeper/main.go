package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/commission-api/internal/app"
	"github.com/noah-isme/commission-api/internal/service"
	"github.com/noah-isme/commission-api/pkg/config"
	"github.com/noah-isme/commission-api/pkg/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sweeper",
		Short: "Expire proposals that waited too long for a response",
	}
	rootCmd.AddCommand(onceCmd())
	rootCmd.AddCommand(runCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func onceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("as-of")
			asOf := time.Now().UTC()
			if raw != "" {
				parsed, err := time.Parse(time.RFC3339, raw)
				if err != nil {
					return fmt.Errorf("invalid --as-of: %w", err)
				}
				asOf = parsed.UTC()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			container, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer container.Close()

			expired, err := container.Proposals.ExpireOldProposals(ctx, asOf)
			if err != nil {
				fmt.Printf("%s %v\n", color.New(color.FgRed).Sprint("FAILED"), err)
				return err
			}
			marker := color.New(color.FgGreen).Sprint("OK")
			if expired > 0 {
				marker = color.New(color.FgYellow).Sprint("EXPIRED")
			}
			fmt.Printf("%s %d proposal(s) as of %s\n", marker, expired, asOf.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().String("as-of", "", "reference time in RFC3339 (default now)")
	return cmd
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sweep on an interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			container, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer container.Close()

			interval, _ := cmd.Flags().GetDuration("interval")
			if interval <= 0 {
				interval = container.Config.Sweeper.Interval
			}
			sweeper := service.NewExpirySweeper(container.Proposals, service.SweeperConfig{
				Interval:   interval,
				MaxRetries: 2,
				RetryDelay: 30 * time.Second,
				Logger:     container.Logger,
			})
			fmt.Printf("%s sweeping every %s\n", color.New(color.FgCyan).Sprint("RUNNING"), interval)
			sweeper.Run(ctx)
			fmt.Println(color.New(color.FgBlue).Sprint("STOPPED"))
			return nil
		},
	}
	cmd.Flags().Duration("interval", 0, "sweep interval (default from config)")
	return cmd
}

func bootstrap(ctx context.Context) (*app.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return nil, err
	}
	logr, err := logger.New(cfg, "sweeper")
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	container, err := app.Build(ctx, cfg, logr)
	if err != nil {
		logr.Error("failed to build services", zap.Error(err))
		return nil, err
	}
	return container, nil
}
