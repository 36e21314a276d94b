package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/postgres"
	"github.com/YelzhanWeb/orderdesk/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/orderdesk/internal/adapter/stripe"
	"github.com/YelzhanWeb/orderdesk/internal/app/catalog"
	"github.com/YelzhanWeb/orderdesk/internal/app/checkout"
	"github.com/YelzhanWeb/orderdesk/internal/app/coupon"
	"github.com/YelzhanWeb/orderdesk/internal/app/eligibility"
	"github.com/YelzhanWeb/orderdesk/internal/app/loyalty"
	"github.com/YelzhanWeb/orderdesk/internal/app/order"
	"github.com/YelzhanWeb/orderdesk/internal/app/payment"
	"github.com/YelzhanWeb/orderdesk/internal/app/tracking"

	httpAdapter "github.com/YelzhanWeb/orderdesk/internal/adapter/http"
)

func apiCommand(configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "api",
		Short: "Serve the ordering HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx, *configPath, "api")
			if err != nil {
				return err
			}
			defer rt.Close()

			if cmd.Flags().Changed("port") {
				rt.cfg.Server.Port = port
			}
			return runAPI(ctx, rt)
		},
	}
	cmd.Flags().IntVar(&port, "port", 3000, "HTTP port, overrides server.port")
	return cmd
}

func runAPI(ctx context.Context, rt *runtime) error {
	cfg, lgr := rt.cfg, rt.lgr

	// Initialize repositories
	orderRepo := postgres.NewOrderRepository(rt.db)
	branchRepo := postgres.NewBranchRepository(rt.db)
	promotionRepo := postgres.NewPromotionRepository(rt.db)
	couponRepo := postgres.NewCouponRepository(rt.db)
	blacklistRepo := postgres.NewBlacklistRepository(rt.db)
	loyaltyRepo := postgres.NewLoyaltyRepository(rt.db)

	// Initialize messaging
	publisher := rabbitmq.NewPublisher(rt.mqConn)
	consumer := rabbitmq.NewConsumer(rt.mqConn, 10, lgr)
	processor := stripe.NewProcessor(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)

	// Initialize services
	catalogService := catalog.NewService(branchRepo, promotionRepo, cfg.Location(), cfg.Store.CacheTTL, lgr)
	couponService := coupon.NewService(couponRepo, lgr)
	checkoutService := checkout.NewService(catalogService, couponService, lgr)
	eligibilityService := eligibility.NewService(blacklistRepo, cfg.Eligibility.LookupTimeout, lgr)
	loyaltyService := loyalty.NewService(loyaltyRepo, cfg.Store.CacheTTL, lgr)
	paymentService := payment.NewService(orderRepo, processor, publisher, loyaltyService, paymentOptions(rt), lgr)
	orderService := order.NewService(orderRepo, eligibilityService, checkoutService, paymentService, lgr)
	trackingService := tracking.NewService(orderRepo, lgr)

	router := httpAdapter.NewRouter(httpAdapter.Handlers{
		Orders:   httpAdapter.NewOrderHandler(orderService, lgr),
		Tracking: httpAdapter.NewTrackingHandler(trackingService, lgr),
		Checkout: httpAdapter.NewCheckoutHandler(catalogService, checkoutService, couponService, eligibilityService, lgr),
		Loyalty:  httpAdapter.NewLoyaltyHandler(loyaltyService, lgr),
		Payments: httpAdapter.NewPaymentHandler(paymentService, processor, publisher, lgr),
	}, lgr)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// Catalog changes drop cached branches and promotions on every instance.
	g.Go(func() error {
		return consumer.ConsumeCatalogChanges(gctx, catalogService.HandleChange)
	})

	g.Go(func() error {
		lgr.Info("service_started", fmt.Sprintf("API started on port %d", cfg.Server.Port), "startup", map[string]interface{}{
			"port": cfg.Server.Port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		lgr.Info("shutdown_initiated", "Shutting down API", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		lgr.Error("server_error", "API stopped with error", "runtime", nil, err)
		return err
	}
	return nil
}

func paymentOptions(rt *runtime) payment.Options {
	return payment.Options{
		Currency:       rt.cfg.Stripe.Currency,
		PaymentMethods: rt.cfg.Stripe.PaymentMethods,
		PollAttempts:   rt.cfg.Payment.PollAttempts,
		PollInterval:   rt.cfg.Payment.PollInterval,
	}
}
