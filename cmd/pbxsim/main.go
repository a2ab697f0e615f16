package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	backendURL := getEnv("BACKEND_URL", "http://localhost:8080")
	callInterval := getDurationEnv("CALL_INTERVAL_MS", 2000) * time.Millisecond
	statusInterval := getDurationEnv("STATUS_TICK_INTERVAL_MS", 60000) * time.Millisecond

	log.Info().
		Str("backend_url", backendURL).
		Dur("call_interval", callInterval).
		Dur("status_interval", statusInterval).
		Msg("starting pbxwatch simulator")

	client := NewAPIClient(backendURL)
	generator := NewGenerator(client, callInterval, statusInterval, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		generator.Run(ctx)
		close(done)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down simulator...")
	cancel()
	<-done
	log.Info().Msg("simulator stopped")
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv reads an integer environment variable as a duration unit count
func getDurationEnv(key string, defaultValue int) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return time.Duration(defaultValue)
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", value).Msg("invalid interval, using default")
		return time.Duration(defaultValue)
	}
	return time.Duration(n)
}
