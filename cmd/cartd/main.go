package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/fjod/go_cart/gomarketplace/internal/http"
	"github.com/fjod/go_cart/gomarketplace/internal/publisher"
	"github.com/fjod/go_cart/gomarketplace/internal/service"
	"github.com/fjod/go_cart/gomarketplace/internal/storage"
	"github.com/fjod/go_cart/gomarketplace/pkg/circuitbreaker"
	"github.com/fjod/go_cart/gomarketplace/pkg/logger"
	"github.com/fjod/go_cart/gomarketplace/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := loadConfig()
	log := logger.New(logger.Options{Service: "cartd", Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("cartd stopped with error")
		os.Exit(1)
	}
	log.Info("cartd stopped")
}

func run(ctx context.Context, cfg *Config, log *logrus.Entry) error {
	kv, closeStorage, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStorage(); err != nil {
			log.WithError(err).Warn("failed to close storage")
		}
	}()

	kv = storage.NewBreakerStore(kv, circuitbreaker.DefaultConfig("cart-storage"), log)
	cartMetrics := metrics.NewCartMetrics(prometheus.DefaultRegisterer, classifyError)
	store := service.NewCartStore(kv, log, service.WithRecorder(cartMetrics))

	g, ctx := errgroup.WithContext(ctx)

	if len(cfg.KafkaBrokers) > 0 {
		pub := publisher.NewCartEventPublisher(cfg.KafkaTopic, log, cfg.KafkaBrokers...)
		defer pub.Close()
		store.Subscribe(pub.Enqueue)
		g.Go(func() error {
			pub.Run(ctx)
			return nil
		})
		log.WithField("topic", cfg.KafkaTopic).Info("publishing cart events to kafka")
	}

	loadCtx, cancel := context.WithTimeout(ctx, cfg.StorageTimeout)
	err = store.Load(loadCtx)
	cancel()
	if err != nil {
		// the store is usable with an empty cart
		log.WithError(err).Warn("starting with an empty cart")
	}

	router := h.NewRouter(store, h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Metrics:            metrics.Handler(),
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "cartd"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		log.WithField("port", cfg.HTTPPort).Info("cartd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// classifyError maps a mutation error to the metrics result label.
func classifyError(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, service.ErrItemNotFound):
		return "not_found"
	case errors.Is(err, service.ErrInvalidProduct):
		return "invalid_product"
	case errors.Is(err, service.ErrNotLoaded):
		return "not_loaded"
	case errors.Is(err, service.ErrStorageWrite):
		return "storage_error"
	default:
		return "error"
	}
}
