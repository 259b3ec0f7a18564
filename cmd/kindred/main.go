package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/kindredapp/kindred-go/internal/config"
	"github.com/kindredapp/kindred-go/internal/infra/database"
	"github.com/kindredapp/kindred-go/internal/infra/repository"
	"github.com/kindredapp/kindred-go/internal/present/rest"
	"github.com/kindredapp/kindred-go/internal/present/rest/middleware"
	"github.com/kindredapp/kindred-go/internal/service"
	"github.com/kindredapp/kindred-go/internal/usecase"
)

func initTracer(endpoint string) (func(context.Context), error) {
	ctx := context.Background()

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("kindred")))
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown trace provider",
				slog.String("error", err.Error()),
				slog.String("module", "main"),
			)
		}
	}, nil
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config",
			slog.String("error", err.Error()),
			slog.String("module", "main"),
		)
		os.Exit(1)
	}

	if conf.Server.EnableTrace {
		cleanup, err := initTracer(conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to init tracer",
				slog.String("error", err.Error()),
				slog.String("module", "main"),
			)
			os.Exit(1)
		}
		defer cleanup(context.Background())
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("failed to connect database",
			slog.String("error", err.Error()),
			slog.String("module", "main"),
		)
		os.Exit(1)
	}

	if err := database.MigratePostgres(db); err != nil {
		slog.Error("failed to migrate database",
			slog.String("error", err.Error()),
			slog.String("module", "main"),
		)
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server)
	mc := database.NewMemcached(conf.Server)

	personRepo := repository.NewPersonRepository(db, mc)
	relationshipRepo := repository.NewRelationshipRepository(db)
	updateRepo := repository.NewUpdateRepository(db)
	moderationRepo := repository.NewModerationRepository(db)

	signal := service.NewSignalService(rdb)
	auth := service.NewAuthService(rdb, time.Duration(conf.Server.SessionTTLSec)*time.Second)

	peopleUC := usecase.NewPeopleUsecase(personRepo, relationshipRepo, signal)
	relationshipUC := usecase.NewRelationshipUsecase(relationshipRepo, personRepo, signal)
	updateUC := usecase.NewUpdateUsecase(updateRepo, personRepo)
	moderationUC := usecase.NewModerationUsecase(moderationRepo, personRepo)

	handler := rest.NewHandler(peopleUC, relationshipUC, updateUC, moderationUC, signal)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("kindred"))
	}

	handler.RegisterRoutes(e, middleware.NewAuthMiddleware(auth))

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}
