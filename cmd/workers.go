package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/mail"
	"github.com/YelzhanWeb/orderdesk/internal/adapter/postgres"
	"github.com/YelzhanWeb/orderdesk/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/orderdesk/internal/adapter/stripe"
	"github.com/YelzhanWeb/orderdesk/internal/app/loyalty"
	"github.com/YelzhanWeb/orderdesk/internal/app/payment"

	amqpAdapter "github.com/YelzhanWeb/orderdesk/internal/adapter/amqp"
)

func paymentEventsCommand(configPath *string) *cobra.Command {
	var prefetch int

	cmd := &cobra.Command{
		Use:   "payment-events",
		Short: "Apply queued payment processor events to orders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx, *configPath, "payment-events")
			if err != nil {
				return err
			}
			defer rt.Close()

			// Initialize repositories
			orderRepo := postgres.NewOrderRepository(rt.db)
			loyaltyRepo := postgres.NewLoyaltyRepository(rt.db)

			// Initialize services
			publisher := rabbitmq.NewPublisher(rt.mqConn)
			processor := stripe.NewProcessor(rt.cfg.Stripe.SecretKey, rt.cfg.Stripe.WebhookSecret)
			loyaltyService := loyalty.NewService(loyaltyRepo, rt.cfg.Store.CacheTTL, rt.lgr)
			paymentService := payment.NewService(orderRepo, processor, publisher, loyaltyService, paymentOptions(rt), rt.lgr)

			handler := amqpAdapter.NewPaymentEventHandler(paymentService, rt.lgr)
			consumer := rabbitmq.NewConsumer(rt.mqConn, prefetch, rt.lgr)

			rt.lgr.Info("service_started", "Payment event consumer started", "startup", map[string]interface{}{
				"prefetch": prefetch,
			})
			return consume(ctx, rt, func(ctx context.Context) error {
				return consumer.ConsumePaymentEvents(ctx, handler.HandlePaymentEvent)
			})
		},
	}
	cmd.Flags().IntVar(&prefetch, "prefetch", 10, "RabbitMQ prefetch count")
	return cmd
}

func notificationSubscriberCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "notification-subscriber",
		Short: "Send order confirmation emails",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx, *configPath, "notification-subscriber")
			if err != nil {
				return err
			}
			defer rt.Close()

			handler := amqpAdapter.NewNotificationHandler(mail.NewSMTPMailer(rt.cfg.SMTP), rt.lgr)
			consumer := rabbitmq.NewConsumer(rt.mqConn, 1, rt.lgr)

			rt.lgr.Info("service_started", "Notification Subscriber started", "startup", nil)
			return consume(ctx, rt, func(ctx context.Context) error {
				return consumer.ConsumeNotifications(ctx, handler.HandleNotification)
			})
		},
	}
}

// consume blocks until ctx is cancelled. A consumer error other than
// cancellation stops the process.
func consume(ctx context.Context, rt *runtime, run func(context.Context) error) error {
	err := run(ctx)
	rt.lgr.Info("shutdown_initiated", "Consumer stopped", "shutdown", nil)
	if err != nil && ctx.Err() == nil {
		rt.lgr.Error("consumer_error", "Error consuming messages", "runtime", nil, err)
		return err
	}
	return nil
}
