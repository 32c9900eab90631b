package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ondegooltd/sirahats-sub001/internal/auth"
	"github.com/ondegooltd/sirahats-sub001/internal/cache"
	"github.com/ondegooltd/sirahats-sub001/internal/config"
	h "github.com/ondegooltd/sirahats-sub001/internal/http"
	"github.com/ondegooltd/sirahats-sub001/internal/logger"
	"github.com/ondegooltd/sirahats-sub001/internal/notify"
	"github.com/ondegooltd/sirahats-sub001/internal/payment"
	"github.com/ondegooltd/sirahats-sub001/internal/repository"
	"github.com/ondegooltd/sirahats-sub001/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending index migrations before serving")
	return cmd
}

func runServe(ctx context.Context, migrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(os.Stdout, cfg.Log.Level)
	slog.SetDefault(log)

	if migrate {
		if err := repository.RunMigrations(cfg.Mongo.URI, cfg.Mongo.Database); err != nil {
			return err
		}
		slog.Info("migrations applied")
	}

	// Set up MongoDB connection
	db, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	store := repository.NewStore(db)
	slog.Info("connected to MongoDB", "database", cfg.Mongo.Database)

	cartCache, closeCache, err := setupCache(ctx, cfg.Redis)
	if err != nil {
		_ = store.Close(context.Background())
		return err
	}
	defer closeCache()

	notifications, stopNotify := setupNotifications(cfg, log)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	gateway := payment.NewClient(payment.Config{
		BaseURL:   cfg.Payment.BaseURL,
		SecretKey: cfg.Payment.SecretKey,
		Currency:  cfg.Payment.Currency,
		Channels:  cfg.Payment.Channels,
		Timeout:   cfg.Payment.Timeout,
	}, nil)

	carts := service.NewCartService(store.Carts, store.Products, cartCache)
	orders := service.NewOrderService(store.Orders, store.Products, carts, notifications,
		cfg.Checkout, cfg.EstimatedDelivery())

	handler := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.HTTP.RequestTimeout,
		MaxRequestBodySize: cfg.HTTP.MaxRequestBodySize,
		SignatureHeader:    cfg.Payment.SignatureHeader,
	}, h.Services{
		Cart:     carts,
		Orders:   orders,
		Payments: service.NewPaymentService(gateway, store.Orders, cfg.Payment.CallbackURL),
		Webhooks: service.NewWebhookService(cfg.Payment.SecretKey, store.Webhooks, store.Orders, notifications),
		Catalog:  service.NewCatalogService(store.Products, store.Collections),
		Accounts: service.NewAccountService(store.Users, store.Products, tokens, notifications,
			cfg.Payment.Currency, cfg.Auth.AdminEmails),
		Leads:  service.NewLeadService(store.Leads, notifications, cfg.Mail.AdminInbox),
		Tokens: tokens,
		Health: store,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return serveUntilStopped(srv, quit, cfg.HTTP.ShutdownTimeout, func(ctx context.Context) {
		stopNotify()
		if err := store.Close(ctx); err != nil {
			slog.Error("failed to disconnect from MongoDB", "error", err)
		}
	})
}

// serveUntilStopped runs srv until a signal arrives or ListenAndServe fails, then
// shuts down and calls release. A listen failure is returned after the shutdown.
func serveUntilStopped(srv *http.Server, quit <-chan os.Signal, shutdownTimeout time.Duration, release func(context.Context)) error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("storefront listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-serveErr:
		if err != nil {
			slog.Error("server error", "error", err)
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	release(shutdownCtx)
	slog.Info("storefront stopped")
	return runErr
}

// setupCache returns the Redis cart cache, or a no-op cache when Redis is not configured.
func setupCache(ctx context.Context, cfg config.RedisConfig) (cache.CartCache, func(), error) {
	if cfg.Addr == "" {
		slog.Info("redis not configured, cart cache disabled")
		return cache.Noop{}, func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	slog.Info("redis ping succeeded", "addr", cfg.Addr)

	cartCache := cache.NewRedisCache(redisClient, cache.Options{TTL: cfg.CacheTTL, Prefix: cfg.Prefix})
	return cartCache, func() { redisClient.Close() }, nil
}

// setupNotifications builds the dispatch chain. With Kafka brokers the request path
// publishes to the topic and an in-process consumer feeds the mailer; otherwise the
// mailer is called directly in the background. The returned func drains and stops it.
func setupNotifications(cfg *config.Config, log *slog.Logger) (*notify.Async, func()) {
	var mailer notify.Notifier
	if cfg.Mail.BaseURL != "" {
		mailer = notify.NewHTTPMailer(notify.MailerConfig{
			BaseURL: cfg.Mail.BaseURL,
			APIKey:  cfg.Mail.APIKey,
			From:    cfg.Mail.From,
			Timeout: cfg.Mail.Timeout,
		}, nil)
	} else {
		slog.Info("mail provider not configured, notifications are logged only")
		mailer = notify.NewLogMailer(log)
	}

	if len(cfg.Kafka.Brokers) == 0 {
		async := notify.NewAsync(mailer, cfg.Mail.Timeout)
		return async, async.Wait
	}

	publisher := notify.NewPublisher(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
	consumer := notify.NewConsumer(mailer, cfg.Kafka.Topic, cfg.Kafka.GroupID, cfg.Kafka.Brokers...)

	consumerCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		consumer.Run(consumerCtx)
	}()
	slog.Info("notifications routed through kafka", "topic", cfg.Kafka.Topic)

	async := notify.NewAsync(publisher, cfg.Mail.Timeout)
	return async, func() {
		async.Wait()
		if err := publisher.Close(); err != nil {
			slog.Error("failed to close kafka publisher", "error", err)
		}
		cancel()
		<-done
		consumer.Close()
	}
}
