package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/adapter/postgres"
	"github.com/YelzhanWeb/orderdesk/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/orderdesk/internal/config"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "orderdesk",
		Short:         "Multi-branch restaurant ordering backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the yaml config file")

	root.AddCommand(
		apiCommand(&configPath),
		paymentEventsCommand(&configPath),
		notificationSubscriberCommand(&configPath),
		catalogChangeCommand(&configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime holds the infrastructure every mode needs.
type runtime struct {
	cfg    *config.Config
	lgr    logger.Logger
	db     postgres.DB
	mqConn rabbitmq.Connection
}

func setup(ctx context.Context, configPath, service string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lgr := logger.New(service, cfg.Log.Level)

	// Connect to PostgreSQL
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		lgr.Error("db_connection_failed", "Failed to connect to PostgreSQL", "startup", nil, err)
		return nil, err
	}
	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	// Connect to RabbitMQ
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		db.Close()
		lgr.Error("rabbitmq_connection_failed", "Failed to connect to RabbitMQ", "startup", nil, err)
		return nil, err
	}
	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	return &runtime{cfg: cfg, lgr: lgr, db: db, mqConn: mqConn}, nil
}

func (rt *runtime) Close() {
	if err := rt.mqConn.Close(); err != nil {
		rt.lgr.Warn("rabbitmq_close_failed", "Error closing RabbitMQ connection", "shutdown", nil, err)
	}
	rt.db.Close()
}
