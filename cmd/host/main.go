package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/perchdesk/perch/internal/host"
	"github.com/perchdesk/perch/internal/infrastructure/config"
	"github.com/perchdesk/perch/internal/logging"
	"go.uber.org/zap"
)

func main() {
	dev := flag.Bool("dev", false, "Development logging")
	flag.Parse()

	cfg := config.LoadOrDefault()

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development || *dev,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		log = logging.NewDefault()
	}
	defer log.Sync()

	// Headless assembly: the shell embedding this host supplies the
	// consent prompter, the device gate, and the GPU sampler.
	h, err := host.New(cfg, host.Options{}, log)
	if err != nil {
		log.Error("failed to assemble host", zap.Error(err))
		os.Exit(1)
	}

	if err := h.Start(context.Background()); err != nil {
		log.Error("failed to start host", zap.Error(err))
		h.Close()
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("shutting down", zap.String("signal", sig.String()))

	if err := h.Close(); err != nil {
		log.Error("error during shutdown", zap.Error(err))
		os.Exit(1)
	}
}
