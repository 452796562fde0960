package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/readaloud/internal/api"
	"github.com/dgallion1/readaloud/internal/chunker"
	"github.com/dgallion1/readaloud/internal/config"
	"github.com/dgallion1/readaloud/internal/library"
	"github.com/dgallion1/readaloud/internal/pipeline"
	"github.com/dgallion1/readaloud/internal/reader"
	"github.com/dgallion1/readaloud/internal/session"
	"github.com/dgallion1/readaloud/internal/speech"
	"github.com/dgallion1/readaloud/internal/speech/command"
	"github.com/dgallion1/readaloud/internal/speech/mock"
	"github.com/dgallion1/readaloud/internal/speech/ws"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the library and extraction pipeline.
	lib := library.New(cfg.DocumentTTL)
	orch := pipeline.NewOrchestrator(cfg, lib, log)
	orch.Start(ctx)

	// Initialize speech and the reading desk.
	var (
		driver   speech.Driver
		wsDriver *ws.Driver
	)
	switch cfg.SpeechDriver {
	case config.DriverWebSocket:
		wsDriver = ws.New(log)
		driver = wsDriver
	case config.DriverCommand:
		driver = command.New(command.Config{
			Binary:         cfg.SpeechCommand,
			Args:           cfg.SpeechArgs,
			WordsPerMinute: cfg.SpeechWPM,
		}, log)
	case config.DriverMock:
		driver = mock.New(250 * time.Millisecond)
	}

	desk := session.New(driver, session.Options{
		Chunk: chunker.Config{
			MaxLength:  cfg.ChunkMaxLength,
			BreakRatio: cfg.ChunkBreakRatio,
		},
		ReadAcrossPages: cfg.ReadAcrossPages,
	}, log)

	// Initialize HTTP server.
	var speechWS http.Handler
	if wsDriver != nil {
		speechWS = wsDriver
		desk.AddHook(func(e reader.Event) { wsDriver.Publish(e) })
	}
	srv := api.NewServer(orch, lib, desk, speechWS, log, cfg)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		desk.Close()
		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting readaloud",
		"port", cfg.Port,
		"speech_driver", cfg.SpeechDriver,
		"read_across_pages", cfg.ReadAcrossPages,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
