package main

import (
	"context"
	"net/http"
	"time"

	"github.com/plugpoint/plugpoint/libs/config"
	"github.com/plugpoint/plugpoint/libs/db"
	"github.com/plugpoint/plugpoint/libs/httpx"
	"github.com/plugpoint/plugpoint/libs/kafkax"
	otelx "github.com/plugpoint/plugpoint/libs/otel"
	"github.com/plugpoint/plugpoint/libs/runtime"
	"github.com/plugpoint/plugpoint/services/charger-service/internal/handlers"
	"github.com/plugpoint/plugpoint/services/charger-service/internal/outbox"
	"github.com/plugpoint/plugpoint/services/charger-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "charger-service")
	port, err := config.Port("PORT", "8081")
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

	repo := storage.NewChargerRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	chargerHandler := handlers.NewChargerHandler(repo, outboxRepo, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("POST /api/v1/chargers", chargerHandler.Create)
	mux.HandleFunc("GET /api/v1/chargers/search", chargerHandler.Search)
	mux.HandleFunc("GET /api/v1/chargers/mine", chargerHandler.Mine)
	mux.HandleFunc("GET /api/v1/chargers/{id}", chargerHandler.Get)
	mux.HandleFunc("PUT /api/v1/chargers/{id}", chargerHandler.Update)
	mux.HandleFunc("DELETE /api/v1/chargers/{id}", chargerHandler.Deactivate)
	mux.HandleFunc("GET /api/v1/chargers/{id}/status", chargerHandler.Status)
	mux.HandleFunc("POST /api/v1/chargers/{id}/availability", chargerHandler.Availability)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "charger")
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
