package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"frigo/internal/config"
	"frigo/internal/handler"
	"frigo/internal/logger"
	"frigo/internal/matcher"
	"frigo/internal/normalize"
	"frigo/internal/ocr"
	"frigo/internal/ocr/tesseract"
	"frigo/internal/parser"
	"frigo/internal/port"
	"frigo/internal/repository/postgres"
	"frigo/internal/router"
	"frigo/internal/service"
	s3storage "frigo/internal/storage/s3"
	"frigo/internal/validator"
	"frigo/internal/vision"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zlog, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, &cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	receiptRepo := postgres.NewReceiptRepo(db)
	stockRepo := postgres.NewStockRepo(db)
	catalogRepo := postgres.NewCatalogRepo(db)

	// Initialize storage; the archive is optional.
	var archive port.ObjectStorage
	if cfg.S3.Enabled {
		archive, err = s3storage.NewImageArchive(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	} else {
		zlog.Info("server: image archive disabled")
	}

	// Initialize the receipt pipeline
	ocr.RegisterRecognizer("tesseract", tesseract.New)
	recognizer, err := ocr.NewRecognizer(&cfg.OCR)
	if err != nil {
		return fmt.Errorf("failed to initialize OCR: %w", err)
	}
	normalizer, err := normalize.NewNormalizer(&cfg.Parser)
	if err != nil {
		return fmt.Errorf("failed to load normalizer: %w", err)
	}
	pipeline := service.NewReceiptPipeline(
		&cfg.Vision,
		vision.NewPreprocessor(&cfg.Vision),
		ocr.NewOrchestrator(ocr.NewEngine(recognizer, &cfg.OCR, zlog), zlog),
		parser.NewSelector(parser.NewDefaultRegistry(&cfg.Parser), zlog),
		normalizer,
		validator.NewConsistencyValidator(validator.NewDefaultRegistry(), zlog),
		zlog,
	)

	// Build the catalog index before serving so the first upload gets suggestions.
	productMatcher := matcher.NewMatcher(catalogRepo, &cfg.Matcher, zlog)
	if err := productMatcher.Build(ctx); err != nil {
		return fmt.Errorf("failed to build catalog index: %w", err)
	}

	// Initialize services
	receiptSvc := service.NewReceiptService(receiptRepo, stockRepo, pipeline, productMatcher, archive, cfg, zlog)
	go service.NewCatalogRefreshWorker(receiptSvc, cfg.Matcher.RefreshInterval, zlog).Start(ctx)

	// Initialize handlers
	receiptH := handler.NewReceiptHandler(receiptSvc, cfg.Vision.MaxImageBytes(), zlog)
	catalogH := handler.NewCatalogHandler(receiptSvc, zlog)
	healthH := handler.NewHealthHandler(db, productMatcher)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router.Setup(receiptH, catalogH, healthH, zlog, cfg.Server.CORSOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server: listening", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		zlog.Info("server: shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
