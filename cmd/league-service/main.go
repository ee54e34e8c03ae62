// @title YourLeague Media & Notification API
// @version 1.0
// @description Match video uploads and match notifications (email and push).
// @BasePath /
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/freeplay/yourleague-service/docs"
	"github.com/freeplay/yourleague-service/internal/blobstore"
	"github.com/freeplay/yourleague-service/internal/cache"
	"github.com/freeplay/yourleague-service/internal/catalog"
	"github.com/freeplay/yourleague-service/internal/config"
	"github.com/freeplay/yourleague-service/internal/http/handlers/health"
	"github.com/freeplay/yourleague-service/internal/http/handlers/notifications"
	"github.com/freeplay/yourleague-service/internal/http/handlers/videos"
	"github.com/freeplay/yourleague-service/internal/http/handlers/websocket"
	"github.com/freeplay/yourleague-service/internal/http/middleware"
	"github.com/freeplay/yourleague-service/internal/mailer"
	"github.com/freeplay/yourleague-service/internal/notify"
	"github.com/freeplay/yourleague-service/internal/push"
	"github.com/freeplay/yourleague-service/internal/storage"
	wsHub "github.com/freeplay/yourleague-service/internal/websocket"
)

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func main() {
	// load config
	cfg := config.MustLoad()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// blob store
	blobs, err := blobstore.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize blob store:", err)
	}
	slog.Info("Blob store ready", slog.String("driver", cfg.Blob.Driver))

	// catalog storage
	var store storage.Storage
	store, err = catalog.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize catalog storage:", err)
	}
	defer store.Close()
	slog.Info("Catalog storage ready", slog.String("driver", cfg.Catalog.Driver))

	// redis is optional; it backs the cache, the push broker and rate limiting
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.Warn("Redis is not reachable yet", slog.String("addr", cfg.Redis.Addr), slog.String("error", err.Error()))
		}
		store = cache.NewCatalogCache(store, redisClient, cfg.Catalog.CacheTTL)
	}

	cat := catalog.New(store, blobs)

	// notification channels
	opts := notify.Options{
		MaxConcurrentSends: cfg.Notify.MaxConcurrentSends,
		SendTimeout:        cfg.Notify.SendTimeout,
	}
	if cfg.SMTP.Host != "" {
		m, err := mailer.New(cfg.SMTP)
		if err != nil {
			log.Fatal("Failed to initialize mailer:", err)
		}
		opts.Mailer = m
	} else {
		slog.Warn("SMTP is not configured, email notifications are disabled")
	}

	hub := wsHub.NewHub()
	go hub.Run()
	defer hub.Stop()

	var history notifications.HistoryReader
	if cfg.Push.Enabled && redisClient != nil {
		broker := push.NewRedisBroker(redisClient, cfg.Push.StreamMaxLen)
		opts.Broker = broker
		history = broker

		if err := push.NewRelay(redisClient, hub).Start(ctx); err != nil {
			slog.Error("Failed to start push relay", slog.String("error", err.Error()))
		}
	} else {
		slog.Warn("Push broker is not configured, push notifications are disabled")
	}

	dispatcher := notify.New(opts)

	// setup router
	router := http.NewServeMux()
	resolver, err := middleware.NewIPResolver(cfg.HTTPServer.TrustedProxies)
	if err != nil {
		log.Fatal("Invalid trusted proxies:", err)
	}
	origins := middleware.NewOriginPolicy(cfg.HTTPServer.AllowedOrigins)
	rateLimits := middleware.NewRateLimitConfig(redisClient, cfg.RateLimit, resolver)
	videoHandlers := videos.NewVideoHandlers(cat, cfg.HTTPServer.MaxUploadBytes, cfg.PublicURL)
	notificationHandlers := notifications.NewNotificationHandlers(dispatcher, history)

	router.HandleFunc("GET /health", health.Health(dispatcher, redisClient))
	router.Handle("GET /metrics", promhttp.Handler())
	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	router.HandleFunc("POST /matches/{matchId}/videos", videoHandlers.Upload())
	router.HandleFunc("POST /upload-video", videoHandlers.Upload())
	router.HandleFunc("GET /matches/{matchId}/videos", videoHandlers.List())
	router.HandleFunc("GET /videos", videoHandlers.List())
	router.HandleFunc("GET "+blobstore.PathPrefix+"{name}", videoHandlers.Serve())

	router.Handle("POST /notify", rateLimits.RateLimitedHandler(middleware.ActionNotify, notificationHandlers.Notify()))
	router.Handle("POST /send-cart-confirmation", rateLimits.RateLimitedHandler(middleware.ActionNotify, notificationHandlers.CartConfirmation()))
	router.Handle("POST /push", rateLimits.RateLimitedHandler(middleware.ActionPush, notificationHandlers.Push()))
	router.HandleFunc("GET /matches/{matchId}/push-history", notificationHandlers.PushHistory())
	router.HandleFunc("GET /ws", websocket.WebSocketHandler(hub, origins.CheckOrigin))

	if redisClient != nil {
		router.HandleFunc("GET /cache/stats", cache.GetCacheStats(redisClient))
		router.HandleFunc("DELETE /cache", cache.ClearCache(redisClient))
	}

	server := http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      middleware.Chain(router, middleware.Logging, middleware.Recovery, middleware.CORS(origins)),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	slog.Info("Server started",
		slog.String("address", cfg.HTTPServer.Address),
		slog.String("env", cfg.Env),
		slog.Bool("email", dispatcher.EmailEnabled()),
		slog.Bool("push", dispatcher.PushEnabled()),
		slog.String("origins", strings.Join(cfg.HTTPServer.AllowedOrigins, ",")))

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-ctx.Done()

	slog.Info("Shutting down server...", slog.Int("websocket_clients", hub.GetClientCount()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}
