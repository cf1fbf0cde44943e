package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/borkya1/smart-gallery/internal/controllers"
	"github.com/borkya1/smart-gallery/internal/identity"
	"github.com/borkya1/smart-gallery/internal/providers"
	"github.com/borkya1/smart-gallery/internal/structures"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type App struct {
	WebServer *http.Server
}

// NewHandler assembles the HTTP surface: API routes behind CORS, access log,
// compression and metrics, with /health and /metrics served beside them.
func NewHandler(healthController *controllers.HealthController, conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) http.Handler {
	// Inner mux: API routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	api := providers.CompressionMiddleware(providers.MetricsMiddleware(metrics, apiMux))

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", api)

	return providers.CorsMiddleware(providers.AccessLogMiddleware(logger, mux))
}

// NewApp serves handler until SIGINT or SIGTERM and then shuts down gracefully.
func NewApp(handler http.Handler, verifier identity.TokenVerifierInterface, conf *structures.Config, logger providers.Logger) (*App, error) {
	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)
	defer logger.Close()
	defer verifier.Close()

	app := &App{
		WebServer: &http.Server{
			Addr:              conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      90 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof(providers.TypeApp, "Listening HTTP clients on %s:%d", conf.WebServer.Host, conf.WebServer.Port)
		if err := app.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		return nil, fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.WebServer.Shutdown(ctx); err != nil {
		return nil, err
	}
	logger.Infof(providers.TypeApp, "gracefully stopped")
	return app, nil
}
