package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/orderdesk/internal/app/catalog"
	"github.com/YelzhanWeb/orderdesk/internal/config"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

// catalogChangeCommand announces a branch or promotion edit so running api
// instances drop their cached copy.
func catalogChangeCommand(configPath *string) *cobra.Command {
	var msg interfaces.CatalogChangeMessage
	var op string

	cmd := &cobra.Command{
		Use:   "catalog-change",
		Short: "Publish a branch or promotion change to the catalog feed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg.Op = interfaces.ChangeOp(op)
			switch msg.Op {
			case interfaces.ChangeInsert, interfaces.ChangeUpdate, interfaces.ChangeDelete:
			default:
				return fmt.Errorf("unknown op %q", op)
			}
			if msg.Entity != catalog.EntityBranch && msg.Entity != catalog.EntityPromotion {
				return fmt.Errorf("unknown entity %q", msg.Entity)
			}
			if msg.ID == "" {
				return fmt.Errorf("--id is required")
			}
			msg.At = time.Now().UTC()

			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			lgr := logger.New("catalog-change", cfg.Log.Level)

			mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
			if err != nil {
				return err
			}
			defer mqConn.Close()

			if err := rabbitmq.NewPublisher(mqConn).PublishCatalogChange(cmd.Context(), msg); err != nil {
				return err
			}
			lgr.Info("catalog_change_published", "Catalog change published", "", map[string]interface{}{
				"entity": msg.Entity,
				"op":     msg.Op,
				"id":     msg.ID,
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&msg.Entity, "entity", "", "branches or promotions")
	cmd.Flags().StringVar(&op, "op", "update", "insert, update or delete")
	cmd.Flags().StringVar(&msg.ID, "id", "", "entity id")
	return cmd
}
