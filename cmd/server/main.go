package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/lox/cardsforbots/internal/oracle"
	"github.com/lox/cardsforbots/internal/server"
	"github.com/lox/cardsforbots/internal/store"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"cardsforbots.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Store    string `short:"s" long:"store" help:"Game store: memory or redis (overrides config)"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("cardsforbots-server"),
		kong.Description("Party card game server for humans and LLM bots"),
		kong.UsageOnError(),
	)

	// Provider API keys and the redis address may live in a .env file.
	_ = godotenv.Load()

	cfg, err := server.LoadServerConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Store != "" {
		cfg.Server.Store = CLI.Store
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Server.RedisAddr = addr
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	// Setup logging
	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	var gameStore store.Store
	switch cfg.Server.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Server.RedisAddr})
		gameStore = store.NewRedisStore(client)
		logger.Info("using redis store", "addr", cfg.Server.RedisAddr)
	default:
		gameStore = store.NewMemoryStore()
		logger.Info("using in-memory store")
	}

	oracleClient := oracle.NewClient(logger, oracle.ProvidersFromEnv(logger))
	logger.Info("oracle providers configured", "providers", oracleClient.Providers())

	addr := cfg.GetServerAddress()
	if CLI.Addr != "" {
		addr = CLI.Addr
	}

	srv := server.NewServer(addr, logger, gameStore, oracleClient, server.Options{
		TickInterval: cfg.TickInterval(),
		Defaults:     cfg.GameSettings(),
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting cardsforbots server", "addr", addr, "store", cfg.Server.Store)
	if err := srv.Start(runCtx); err != nil {
		logger.Error("server exited", "error", err)
		ctx.Exit(1)
	}
}
