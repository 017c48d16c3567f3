package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/kittygram/kittygram-api/api/handlers"
	"github.com/kittygram/kittygram-api/api/middleware"
	"github.com/kittygram/kittygram-api/api/services"
	docs "github.com/kittygram/kittygram-api/docs"
	"github.com/kittygram/kittygram-api/internal/events"
	"github.com/kittygram/kittygram-api/internal/metrics"
	"github.com/kittygram/kittygram-api/internal/throttle"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Kittygram API
// @version v1
// @description Cats, their owners and their achievements.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server for handling API requests",
	Run: func(cmd *cobra.Command, args []string) {

		// Load the config, initialize the database and set up logging
		commonSetUp()
		defer catsDB.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Initialize event publisher
		publisher := initializeNotifier()
		defer publisher.Close()

		// Initialize throttles
		store, err := initializeThrottleStore(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize throttle store")
		}
		chains, err := throttle.NewChains(appCfg.Throttle, store)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid throttle configuration")
		}

		m := metrics.New()
		m.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		service := &services.Service{
			Config:    appCfg,
			DB:        catsDB,
			Publisher: publisher,
			Throttles: chains,
			Metrics:   m,
		}

		// Create routes
		r := mux.NewRouter()
		r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
		r.HandleFunc("/healthz", handlers.Health(catsDB)).Methods(http.MethodGet)

		// Register the routes
		api := r.PathPrefix(appCfg.BasePath).Subrouter()

		// Apply the middleware to the API routes
		api.Use(middleware.WithLogger)
		api.Use(middleware.Metrics(m))
		api.Use(middleware.JWTMiddleware(appCfg.Auth.SigningKey))

		handlers.RegisterRoutes(api, service)

		// Docs
		docs.SwaggerInfo.Host = appCfg.Host
		docs.SwaggerInfo.BasePath = appCfg.BasePath
		r.PathPrefix(appCfg.DocsPath).Handler(httpSwagger.Handler(
			httpSwagger.URL(path.Join(appCfg.DocsPath, "/doc.json")),
			httpSwagger.DeepLinking(true),
			httpSwagger.DocExpansion("none"),
			httpSwagger.DomID("swagger-ui"),
		)).Methods(http.MethodGet)

		addr := fmt.Sprintf("%s:%d", host, port)
		server := &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("server shutdown failed")
			}
		}()

		log.Info().Msg(fmt.Sprintf("Server started at %s", addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("could not start server")
		}
		log.Info().Msg("Server stopped")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&host, "host", "0.0.0.0", "host to run the server on")
	serveCmd.Flags().IntVar(&port, "port", 8080, "port to run the server on")
}

// initializeNotifier connects to Pulsar, or drops events when no URL is configured.
func initializeNotifier() events.Notifier {
	if appCfg.Pulsar.URL == "" {
		log.Warn().Msg("pulsar url is not configured, resource events are disabled")
		return events.NoopNotifier{}
	}

	publisher, err := events.NewEventPublisher(appCfg.Pulsar.URL, appCfg.Pulsar.TopicProducer)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize event publisher")
	}
	return publisher
}

// initializeThrottleStore shares counters through Redis when an address is configured and
// keeps them in process memory otherwise.
func initializeThrottleStore(ctx context.Context) (throttle.Store, error) {
	if appCfg.Redis.Addr == "" {
		log.Info().Msg("Using in-memory throttle counters")
		store := throttle.NewMemoryStore()
		store.StartSweeper(ctx, time.Minute, 24*time.Hour)
		return store, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     appCfg.Redis.Addr,
		Password: appCfg.Redis.Password,
		DB:       appCfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", appCfg.Redis.Addr, err)
	}

	log.Info().Str("addr", appCfg.Redis.Addr).Msg("Using redis throttle counters")
	return throttle.NewRedisStore(client, "kittygram:"), nil
}
