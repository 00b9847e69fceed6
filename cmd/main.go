package main

//
//  @title           varpulse API
//  @version         1.0
//  @description     Parallel VaR dataset generator: products, trades and risks.
//  @termsOfService  https://github.com/guttosm/varpulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/varpulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        runs
//  @tag.description Start and inspect generation runs
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/guttosm/varpulse/config"
	_ "github.com/guttosm/varpulse/docs" // swagger docs
	"github.com/guttosm/varpulse/internal/app"
	"github.com/guttosm/varpulse/internal/logger"
)

// Execution modes.
const (
	modeGenerate = "generate"
	modeAPI      = "api"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback that stops the active run and closes the run store.
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// options are the command line settings; zero values leave the loaded
// configuration untouched.
type options struct {
	mode string
	port string
}

// parseFlags reads args and applies every explicitly set override to cfg.
func parseFlags(args []string, cfg config.Config, stderr io.Writer) (options, config.Config, error) {
	fs := flag.NewFlagSet("varpulse", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := options{}
	fs.StringVar(&opts.mode, "mode", modeGenerate, "Mode: generate or api")
	fs.StringVar(&opts.port, "port", cfg.Server.Port, "Port for API mode")
	trades := fs.Int64("trades", cfg.Generator.TradeCount, "Number of trades (and risks) to generate")
	products := fs.Int("products", cfg.Generator.ProductCount, "Size of the product table")
	vector := fs.Int("vector", cfg.Generator.VectorLength, "Length of each risk PnL vector")
	parallel := fs.Int("parallel", cfg.Generator.Parallelism, "Concurrent generation batches")
	failFast := fs.Bool("fail-fast", cfg.Generator.FailFast, "Cancel remaining batches on the first failure")
	out := fs.String("output", cfg.Output.Mode, "Output mode: in-memory-channel, csv-files or columnar-files")
	dir := fs.String("dir", cfg.Output.Dir, "Root directory for file output")
	files := fs.Int("files", cfg.Output.NumberOfFiles, "Trade and risk files per run (0 keeps the buffer sizes)")
	backend := fs.String("backend", cfg.Channel.Backend, "Channel backend: memory, postgres, kafka or nats")

	if err := fs.Parse(args); err != nil {
		return options{}, cfg, err
	}

	cfg.Generator.TradeCount = *trades
	cfg.Generator.ProductCount = *products
	cfg.Generator.VectorLength = *vector
	cfg.Generator.Parallelism = *parallel
	cfg.Generator.FailFast = *failFast
	cfg.Output.Mode = *out
	cfg.Output.Dir = *dir
	cfg.Output.NumberOfFiles = *files
	cfg.Channel.Backend = *backend
	cfg.Server.Port = opts.port

	if opts.mode != modeGenerate && opts.mode != modeAPI {
		return options{}, cfg, fmt.Errorf("unknown mode %q", opts.mode)
	}
	return opts, cfg, cfg.Validate()
}

// runGenerate is an indirection for unit testing.
var runGenerate = app.RunGeneration

// generate executes a single run and returns its error.
func generate(ctx context.Context, cfg config.Config) error {
	runID := uuid.NewString()
	logger.L().Info().
		Str("run_id", runID).
		Int64("trades", cfg.Generator.TradeCount).
		Str("output", cfg.Output.Mode).
		Msg("running generation")

	_, err := runGenerate(ctx, cfg, runID)
	return err
}

// main is the entry point of the varpulse application.
//
// Modes (selected via --mode flag):
//   - generate: Produces one dataset of products, trades and risks and exits.
//   - api:      Starts the REST API that runs generations on request.
//
// Flags override the loaded configuration for this process only; see
// parseFlags for the full list.
func main() {
	// Initialize JSON logger
	logger.Init()

	// Load configuration from environment, .env or CONFIG_FILE
	if err := config.LoadConfig(); err != nil {
		logger.L().Fatal().Err(err).Msg("invalid configuration")
	}

	opts, cfg, err := parseFlags(os.Args[1:], config.AppConfig, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.L().Fatal().Err(err).Msg("invalid arguments")
	}
	config.AppConfig = cfg

	switch opts.mode {
	case modeGenerate:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := generate(ctx, cfg); err != nil {
			logger.L().Fatal().Err(err).Msg("generation failed")
		}
		logger.L().Info().Msg("generation completed successfully")

	case modeAPI:
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, opts.port)
		gracefulShutdown(context.Background(), server, cleanup)
	}
}
