// cmd/spec-server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"drone-configurator/internal/common/camunda"
	"drone-configurator/internal/common/config"
	"drone-configurator/internal/common/database"
	commonhttp "drone-configurator/internal/common/http"
	"drone-configurator/internal/common/logger"
	"drone-configurator/internal/common/observability"
	"drone-configurator/internal/providers"
	"drone-configurator/internal/specgen"
	gs "drone-configurator/internal/workers/drone/generate-specs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console", "stderr")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewFromConfig(cfg.Logging)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})
	log.Info("starting spec server", map[string]interface{}{
		"environment":     cfg.App.Environment,
		"defaultProvider": cfg.Providers.Default,
	})

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("otel metrics disabled", map[string]interface{}{"error": err.Error()})
	}
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Optional answer cache ---
	// A cache that is down at start stays wired: lookups fall through and /ready
	// reports it until Redis answers.
	var cache providers.AnswerCache
	var cachePing gs.Pinger
	if cfg.Cache.Enabled {
		redisClient, err := database.NewRedis(cfg.Cache.Redis)
		if err != nil {
			log.Warn("answer cache disabled", map[string]interface{}{"error": err.Error()})
		} else {
			defer redisClient.Close()
			cache, cachePing = redisClient, redisClient
			if err := redisClient.Ping(ctx); err != nil {
				log.Warn("answer cache unreachable at start", map[string]interface{}{
					"address": cfg.Cache.Redis.Address,
					"error":   err.Error(),
				})
			} else {
				log.Info("answer cache connected", map[string]interface{}{"address": cfg.Cache.Redis.Address})
			}
		}
	}

	pipeline, err := specgen.NewFromConfig(cfg, cache, log)
	if err != nil {
		zapLog.Fatal("pipeline setup failed", zap.Error(err))
	}

	handler := gs.NewHandler(gs.LoadConfig(cfg), pipeline, obs, log)

	apiServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler.Routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	opsServer := &http.Server{
		Addr:    cfg.Server.MetricsAddress,
		Handler: opsMux(gs.ReadyHandler(pipeline, cachePing, log)),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("api server listening", map[string]interface{}{"address": apiServer.Addr, "route": gs.Route})
		return listen(apiServer)
	})
	g.Go(func() error {
		log.Info("health/metrics server listening", map[string]interface{}{"address": opsServer.Addr})
		return listen(opsServer)
	})

	if cfg.Camunda.Enabled {
		g.Go(func() error {
			client, err := camunda.Connect(gctx, cfg.Camunda, camunda.DefaultRetryConfig, log)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				return err
			}
			jobWorker := camunda.StartWorker(client, gs.TaskType, cfg.Camunda, handler.Handle, log)

			<-gctx.Done()
			jobWorker.Close()
			jobWorker.AwaitClose()
			return client.Close()
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, stopping servers", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
		defer cancel()

		return errors.Join(
			apiServer.Shutdown(shutdownCtx),
			opsServer.Shutdown(shutdownCtx),
		)
	})

	if err := g.Wait(); err != nil {
		log.Error("spec server stopped with error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log.Info("spec server stopped gracefully", nil)
}

func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func opsMux(ready http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		commonhttp.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/ready", ready)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
