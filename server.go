package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnspace/apilog"
	"learnspace/live"
	"learnspace/middleware"
	"learnspace/notify"
	"learnspace/ratelim"
	"learnspace/reports"
	"learnspace/requests"
	"learnspace/rooms"
	"learnspace/routes"
	"learnspace/users"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		if app.cfg.IsProduction() {
			// HSTS only makes sense behind HTTPS
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		}
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), app)
		},
	}
}

func serve(ctx context.Context, a *App) error {
	cfg, logger := a.cfg, a.logger

	go a.hub.Run()

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	if relay, ok := a.events.(*live.RedisRelay); ok {
		go relay.Run(relayCtx)
	}

	limiter := ratelim.NewRateLimiter(cfg.Rate.RPS, cfg.Rate.Burst)
	stopJanitor := make(chan struct{})
	go limiter.Janitor(time.Minute, stopJanitor)

	auth := middleware.NewAuth(cfg.JWT.Secret, cfg.JWT.TTL)
	logs := apilog.New(cfg.APILog.Capacity)
	roomSvc := rooms.NewService(a.store, a.events, logger)
	userSvc := users.NewService(a.store, logger)

	router := httprouter.New()
	router.GET("/health", Index)
	routes.RoutesWrapper(router, routes.Handlers{
		Auth:     auth,
		Limiter:  limiter,
		Requests: requests.NewHandler(a.requests),
		Rooms:    rooms.NewHandler(roomSvc),
		Users:    users.NewHandler(userSvc, auth, cfg.IsProduction(), logger),
		Email:    notify.NewHandler(a.emailjs, a.notifier),
		Reports:  reports.NewHandler(a.requests),
		Logs:     logs,
		Hub:      a.hub,
	})

	// apply middleware: CORS → security headers → logging → api log → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(logs.Middleware(router))

	handler := loggingMiddleware(logger, securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		logger.Info("stopping live hub")
		a.hub.Stop()
		stopRelay()
		close(stopJanitor)
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr()), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	logger.Info("shutdown signal received; shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped cleanly")
	return nil
}
