package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/plugpoint/plugpoint/libs/config"
	"github.com/plugpoint/plugpoint/libs/db"
	"github.com/plugpoint/plugpoint/libs/httpx"
	"github.com/plugpoint/plugpoint/libs/kafkax"
	otelx "github.com/plugpoint/plugpoint/libs/otel"
	"github.com/plugpoint/plugpoint/libs/runtime"
	"github.com/plugpoint/plugpoint/services/booking-service/internal/consumer"
	"github.com/plugpoint/plugpoint/services/booking-service/internal/handlers"
	"github.com/plugpoint/plugpoint/services/booking-service/internal/inbox"
	"github.com/plugpoint/plugpoint/services/booking-service/internal/outbox"
	"github.com/plugpoint/plugpoint/services/booking-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8082")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	repo := storage.NewBookingRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	inboxRepo := inbox.NewRepository(pool)
	startConsumer := func(topic string, handler consumer.Handler) {
		if strings.TrimSpace(topic) == "" {
			return
		}
		c := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "booking-service"),
			Topic:   topic,
		}, handler)
		go c.Run(ctx)
	}

	upsertFromEvent := func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			ChargerID    string              `json:"charger_id"`
			HostID       string              `json:"host_id"`
			Timezone     string              `json:"timezone"`
			AutoAccept   bool                `json:"auto_accept"`
			PricePerHour float64             `json:"price_per_hour"`
			IsActive     *bool               `json:"is_active"`
			Availability map[string][]string `json:"availability_hours"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if payload.ChargerID == "" || payload.HostID == "" {
			logger.Error("missing required event fields", "topic", msg.Topic)
			return nil
		}
		if payload.Timezone == "" {
			payload.Timezone = "UTC"
		}
		active := true
		if payload.IsActive != nil {
			active = *payload.IsActive
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := repo.UpsertCharger(ctx, tx, storage.ChargerInfo{
			ChargerID:    payload.ChargerID,
			HostID:       payload.HostID,
			Timezone:     payload.Timezone,
			AutoAccept:   payload.AutoAccept,
			PricePerHour: payload.PricePerHour,
			IsActive:     active,
			Availability: payload.Availability,
		}); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}
	deactivateFromEvent := func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			ChargerID string `json:"charger_id"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if payload.ChargerID == "" {
			return nil
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := repo.DeactivateCharger(ctx, tx, payload.ChargerID); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}

	startConsumer(config.String("KAFKA_TOPIC_CHARGER_CREATED", "charger.created.v1"), upsertFromEvent)
	startConsumer(config.String("KAFKA_TOPIC_CHARGER_UPDATED", "charger.updated.v1"), upsertFromEvent)
	startConsumer(config.String("KAFKA_TOPIC_CHARGER_AVAILABILITY", "charger.availability.updated.v1"), upsertFromEvent)
	startConsumer(config.String("KAFKA_TOPIC_CHARGER_DEACTIVATED", "charger.deactivated.v1"), deactivateFromEvent)

	bookingHandler := handlers.NewBookingHandler(repo, outboxRepo, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("POST /api/v1/bookings", bookingHandler.Create)
	mux.HandleFunc("GET /api/v1/bookings", bookingHandler.List)
	mux.HandleFunc("GET /api/v1/bookings/window", bookingHandler.Window)
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", bookingHandler.Cancel)
	mux.HandleFunc("POST /api/v1/bookings/{id}/decide", bookingHandler.Decide)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
