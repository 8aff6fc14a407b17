package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"card-scanner/config"
	telegram "card-scanner/internal/api"
	"card-scanner/internal/container"
	"card-scanner/internal/infrastructure/ocr"
	"card-scanner/internal/infrastructure/preview"
	"card-scanner/internal/infrastructure/render"
	"card-scanner/internal/infrastructure/storage"
	"card-scanner/internal/infrastructure/vision"
	"card-scanner/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Создаём хранилище пользователей
	deps := container.Dependencies{
		Users:    storage.NewMemoryUserRepository(),
		FastText: vision.NewTextDetector(),
		Capture:  vision.NewCapture(),
	}

	faces, err := vision.NewFaceDetector(cfg.FaceCascadePath)
	if err != nil {
		lg.Warn("face detector disabled", zap.Error(err))
	} else {
		defer faces.Close()
		deps.Faces = faces
	}

	recognizer, err := ocr.NewRecognizer(cfg.OCRLanguage)
	if err != nil {
		lg.Warn("text recognizer disabled", zap.Error(err))
	} else {
		defer recognizer.Close()
		deps.AccurateText = recognizer
	}

	painter, err := render.NewPainter()
	if err != nil {
		lg.Fatal("failed to create painter", zap.Error(err))
	}
	deps.Painter = painter

	// Собираем сервисы приложения
	services := container.New(cfg, deps, lg)

	var (
		hub    *preview.Hub
		sinks  telegram.PreviewSinks
		server *preview.Server
	)
	if cfg.PreviewAddr != "" {
		hub = preview.NewHub(lg)
		sinks = hub
		server = preview.NewServer(cfg.PreviewAddr, hub, lg)
	}

	// Создаём бота
	bot, err := telegram.NewBot(cfg.TelegramToken, services, sinks, lg)
	if err != nil {
		lg.Fatal("failed to create bot", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("bot is running")
		return bot.Run(gctx)
	})
	if server != nil {
		g.Go(func() error {
			return server.Run(gctx)
		})
	}

	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	services.Live.StopAll(shutdownCtx)

	if err != nil {
		lg.Error("stopped with error", zap.Error(err))
		return
	}
	lg.Info("stopped")
}
