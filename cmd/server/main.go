package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/neonchat/neonchat/internal/chat"
	"github.com/neonchat/neonchat/internal/server"
)

func newLogger() *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(os.Stdout),
		zapcore.InfoLevel,
	)
	return zap.New(core)
}

func main() {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := server.LoadConfig()
	if err != nil {
		logger.Fatal("loading configuration failed", zap.Error(err))
	}

	// An explicit port argument wins over the environment.
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port <= 0 || port > 65535 {
			logger.Fatal("invalid port argument", zap.String("arg", os.Args[1]))
		}
		cfg.Port = os.Args[1]
	}

	registry := chat.NewRegistry(logger)
	hub := server.NewHub(registry, cfg, logger)
	go hub.Run()

	mux := server.SetupRoutes(hub)
	httpServer := server.CreateServer(cfg.Addr(), mux)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer, logger)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("signal received, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}

	_ = server.ShutdownServer(httpServer, cfg.ShutdownTimeout, logger)
	if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
		logger.Warn("hub shutdown incomplete", zap.Error(err))
	}
}
