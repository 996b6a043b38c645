package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/siacdev/siac/internal/siac/auth"
	"github.com/siacdev/siac/internal/siac/cache"
	"github.com/siacdev/siac/internal/siac/config"
	"github.com/siacdev/siac/internal/siac/controller"
	gorm "github.com/siacdev/siac/internal/siac/db"
	"github.com/siacdev/siac/internal/siac/events"
	"github.com/siacdev/siac/internal/siac/handlers"
	"github.com/siacdev/siac/internal/siac/importer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "siac",
	Short: "SIAC business management platform",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var (
	importFile    string
	importCompany string
)

var importCmd = &cobra.Command{
	Use:   "products:import",
	Short: "Import products from a CSV file into a company catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "config file path")
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "CSV file path (required)")
	importCmd.Flags().StringVar(&importCompany, "company", "", "target company id (required)")
	_ = importCmd.MarkFlagRequired("file")
	_ = importCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	return filepath.Join("internal", "siac", "config", "config.yaml")
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	repo     *gorm.Repository
	producer controller.EventProducer
	svc      *controller.Services
	authn    *auth.Authenticator
	closers  []func()
}

func buildApp(logger *zap.Logger) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	repo, err := gorm.NewRepository(&gorm.Config{
		Driver:   cfg.DBDriver,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, repo: repo}
	a.closers = append(a.closers, func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close repository", zap.Error(err))
		}
	})

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("initialize Kafka producer: %w", err)
		}
		a.producer = producer
		a.closers = append(a.closers, producer.Close)
	} else {
		logger.Info("no Kafka brokers configured, events disabled")
		a.producer = events.NopProducer{}
	}

	store := cache.New(cfg.RedisAddr, cfg.RedisPassword, time.Duration(cfg.CacheTTL)*time.Second, logger)
	a.svc = controller.NewServices(repo, a.producer, store, logger)

	a.authn = auth.NewAuthenticator(repo, cfg.JWTSecret, logger)
	if err := a.authn.EnsureRootUser(context.Background()); err != nil {
		a.close()
		return nil, fmt.Errorf("seed root user: %w", err)
	}
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func runServe() error {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	a, err := buildApp(logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer a.close()

	handler := handlers.NewHandler(a.svc, a.authn, logger)
	server := handlers.NewServer(a.cfg.HTTPPort, handler, a.cfg.JWTSecret, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	waitForShutdown(server, errCh, logger)
	return nil
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then
// shuts down the server.
func waitForShutdown(server *handlers.Server, errCh <-chan error, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			return
		}
	}

	server.Stop()
	logger.Info("Server stopped properly")
}

func runImport() error {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	f, err := os.Open(importFile)
	if err != nil {
		return fmt.Errorf("open CSV: %w", err)
	}
	defer f.Close()

	a, err := buildApp(logger)
	if err != nil {
		return err
	}
	defer a.close()

	rows, err := importer.Parse(f)
	if err != nil {
		return fmt.Errorf("parse CSV: %w", err)
	}

	ctx := context.Background()
	if cfg, err := a.svc.Catalog.GetCatalogConfig(ctx, auth.RootUserID, importCompany); err == nil && cfg != nil {
		importer.ApplyCatalogTypes(rows, cfg.Fields)
	}

	report, err := a.svc.Catalog.ImportProducts(ctx, auth.RootUserID, importCompany, rows)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	for _, w := range report.Warnings {
		fmt.Printf("  [warn] %s\n", w)
	}
	fmt.Printf(`
=== Import Report ===
CSV rows:  %d
Created:   %d
Skipped:   %d
=====================
`, report.TotalRows, report.Created, report.TotalRows-report.Created)
	return nil
}
