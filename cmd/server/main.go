// Package main runs the LVR dashboard backend: it performs a blocking
// initial refresh of both cache domains, then serves the read views while
// background loops keep the caches current against brontes.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"brontes-lvr/internal/api"
	"brontes-lvr/internal/lvr"
	chstore "brontes-lvr/internal/storage/clickhouse"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	allowedOrigin := flag.String("allowed-origin", envOr("ALLOWED_ORIGIN", "http://localhost:3000"), "CORS origin of the dashboard frontend")
	poolsFlag := flag.String("pools", os.Getenv("POOL_ADDRESSES"), "Comma-separated pool address allow-list (default: built-in list)")
	pageSize := flag.Int("page-size", lvr.PageSize, "Rows per table page")
	metricInterval := flag.Duration("metric-interval", lvr.DefaultMetricInterval, "Per-block cache refresh interval")
	medianInterval := flag.Duration("median-interval", lvr.DefaultMedianInterval, "Median cache refresh interval")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required")
	}

	pools := resolvePools(*poolsFlag)
	logger.Printf("Tracking %d pools", len(pools))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to ClickHouse
	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to clickhouse: %v", err)
	}
	defer conn.Close()

	source := chstore.NewBrontesSource(conn, chstore.SourceOptions{
		Pools:  pools,
		Logger: log.New(os.Stdout, "[brontes] ", log.LstdFlags|log.Lshortfile),
	})

	service := lvr.NewService(lvr.Options{
		Source:         source,
		PageSize:       *pageSize,
		MetricInterval: *metricInterval,
		MedianInterval: *medianInterval,
		Logger:         log.New(os.Stdout, "[lvr] ", log.LstdFlags|log.Lshortfile),
	})

	// Populate the caches before accepting read traffic, so the first
	// caller is never served an empty cache when upstream data exists.
	service.InitialRefresh(ctx)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Background refresh loops
	go func() {
		if err := service.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("Refresh loop error: %v", err)
		}
	}()

	// HTTP server
	handler := api.NewHandler(api.HandlerOptions{
		Service:       service,
		AllowedOrigin: *allowedOrigin,
		Logger:        log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lshortfile),
	})

	mux := http.NewServeMux()
	handler.Routes(mux)

	server := &http.Server{
		Addr:    *listenAddr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}
	}()

	logger.Printf("Listening on %s", *listenAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// resolvePools parses the allow-list flag, falling back to the built-in
// list.
func resolvePools(raw string) []string {
	if raw == "" {
		return lvr.DefaultPools
	}

	var pools []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			pools = append(pools, p)
		}
	}
	if len(pools) == 0 {
		return lvr.DefaultPools
	}
	return pools
}

// envOr returns the environment value or a default.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
