package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/novasalud/inventory/internal/cart"
	"github.com/novasalud/inventory/internal/config"
	"github.com/novasalud/inventory/internal/event"
	"github.com/novasalud/inventory/internal/http"
	"github.com/novasalud/inventory/internal/log"
	"github.com/novasalud/inventory/internal/relay"
	"github.com/novasalud/inventory/internal/repository"
	"github.com/novasalud/inventory/internal/scanner"
	"github.com/novasalud/inventory/internal/service"
	"github.com/novasalud/inventory/internal/storage/db"
	"github.com/novasalud/inventory/internal/storage/mq"
	"github.com/novasalud/inventory/internal/telemetry"
	"github.com/novasalud/inventory/pkg/cmdutil"
	"github.com/novasalud/inventory/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running inventory application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		HTTP     config.HTTP
		Relay    config.Relay
		Scanner  config.Scanner
		Kafka    config.Kafka
		Otel     config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	dbClient := db.NewClient(pgxPool)

	kafkaProducer, err := mq.NewKafkaProducer(ctx, cfg.Kafka)
	if err != nil {
		return fmt.Errorf("error creating kafka producer: %w", err)
	}
	defer kafkaProducer.Close()

	kafkaConsumer, err := mq.NewKafkaConsumer(ctx, cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("error creating kafka consumer: %w", err)
	}
	defer kafkaConsumer.Close()

	validate, err := validator.NewDefaultValidator()
	if err != nil {
		return fmt.Errorf("error creating validator: %w", err)
	}

	productRepository := repository.NewProductRepository(dbClient)
	saleRepository := repository.NewSaleRepository(dbClient)
	alertRepository := repository.NewAlertRepository(dbClient)
	outboxMsgRepository := repository.NewOutboxMsgRepository(dbClient)

	cartStore := cart.NewStore()

	productService := service.NewProductService(dbClient, productRepository, outboxMsgRepository)
	cartService := service.NewCartService(cartStore, productRepository)
	checkoutService := service.NewCheckoutService(logger, dbClient, cartStore, productRepository, saleRepository, outboxMsgRepository)
	alertService := service.NewAlertService(alertRepository)

	interruptChan := cmdutil.InterruptChan()
	var wg sync.WaitGroup

	wg.Go(func() {
		svc := event.New(logger, kafkaConsumer)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running event service: %w", err))
		}
		logger.InfoContext(ctx, "event service started")

		<-interruptChan

		logger.InfoContext(ctx, "event service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "event service is stopped")
	})

	wg.Go(func() {
		svc := http.New(cfg.HTTP, logger, validate, productService, cartService, checkoutService, alertService)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running http service: %w", err))
		}

		logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

		<-interruptChan

		logger.InfoContext(ctx, "http service is shutting down")
		if err := cleanup(ctx); err != nil {
			logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
		}

		logger.InfoContext(ctx, "http service is stopped")
	})

	wg.Go(func() {
		svc := scanner.NewService(cfg.Scanner, logger, dbClient, productRepository, alertRepository, outboxMsgRepository)
		cleanup := svc.Run(ctx)
		logger.InfoContext(ctx, "scanner service started")

		<-interruptChan

		logger.InfoContext(ctx, "scanner service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "scanner service is stopped")
	})

	wg.Go(func() {
		svc := relay.NewService(cfg.Relay, logger, dbClient, outboxMsgRepository, kafkaProducer)
		cleanup := svc.Run(ctx)
		logger.InfoContext(ctx, "relay service started")

		<-interruptChan

		logger.InfoContext(ctx, "relay service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "relay service is stopped")
	})

	wg.Wait()

	return nil
}
