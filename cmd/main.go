package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"s3repack/internal/app"
	"s3repack/internal/config"
	"s3repack/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile  string
	failedTasks int64
)

var rootCmd = &cobra.Command{
	Use:   "s3repack",
	Short: "Repack Parquet objects between S3 prefixes",
	Long:  `A concurrent pipeline that rewrites Parquet objects under a source prefix into a destination prefix, so that strict Parquet consumers can load them. Supports skip-if-exists idempotency, an outcome journal, and prometheus metrics.`,
	RunE:  runRepack,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, optional)")

	// Source store flags
	rootCmd.Flags().String("src-endpoint", "", "Source S3 endpoint")
	rootCmd.Flags().String("src-access-key", "", "Source access key")
	rootCmd.Flags().String("src-secret-key", "", "Source secret key")
	rootCmd.Flags().Bool("src-secure", true, "Use HTTPS for source")

	// Destination store flags
	rootCmd.Flags().String("dst-endpoint", "", "Destination S3 endpoint")
	rootCmd.Flags().String("dst-access-key", "", "Destination access key")
	rootCmd.Flags().String("dst-secret-key", "", "Destination secret key")
	rootCmd.Flags().Bool("dst-secure", true, "Use HTTPS for destination")

	// Pipeline flags
	rootCmd.Flags().String("src", "", "Source prefix URI, e.g. s3://my-bucket/path/to/prefix")
	rootCmd.Flags().String("dst", "", "Destination prefix URI, e.g. s3://my-bucket-repacked/path/to/prefix")
	rootCmd.Flags().Int("batch-size", 65536, "Row batch size used when rewriting")
	rootCmd.Flags().Int("workers", 0, "Max parallel workers (0 selects a sensible default)")
	rootCmd.Flags().Bool("no-skip-existing", false, "Do not skip when destination object already exists")
	rootCmd.Flags().StringSlice("extensions", []string{".parquet", ".parq"}, "File extensions to repack")
	rootCmd.Flags().String("journal", "", "Outcome journal database file (empty disables journaling)")
	rootCmd.Flags().String("metrics-addr", "", "Prometheus listen address, e.g. :8080 (empty disables)")
	rootCmd.Flags().String("log-level", "info", "Log level (debug/info/warn/error)")
}

func runRepack(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	repacker, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create repacker: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Received shutdown signal, finishing in-flight tasks...")
		cancel()
	}()

	succeeded, failed, err := repacker.Run(ctx)

	if closeErr := repacker.Close(); closeErr != nil {
		log.Error("Error closing repacker", zap.Error(closeErr))
	}

	if err != nil {
		return err
	}

	fmt.Printf("Completed: %d, Errors: %d\n", succeeded, failed)
	failedTasks = failed
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if failedTasks > 0 {
		os.Exit(2)
	}
}
