package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/db"
	"github.com/danielhkuo/campus-vote/mailer"
	"github.com/danielhkuo/campus-vote/media"
	"github.com/danielhkuo/campus-vote/middleware"
	"github.com/danielhkuo/campus-vote/otp"
	"github.com/danielhkuo/campus-vote/router"
)

func main() {
	var err error

	if err := cliparse.LoadEnvFile(".env"); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect and verify
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err, "type", cfg.DatabaseType)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	if cfg.SeedFile != "" {
		if err := applySeed(dbConn, cfg.SeedFile); err != nil {
			slog.Error("seeding failed", "error", err, "file", cfg.SeedFile)
			os.Exit(1)
		}
	}

	svc, cleanup, err := services(dbConn, cfg)
	if err != nil {
		slog.Error("service setup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create router
	mux := router.NewRouter(dbConn, cfg, svc)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux, cfg.AllowedOrigin),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Warn("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

func applySeed(conn *sql.DB, path string) error {
	seed, err := db.LoadSeed(path)
	if err != nil {
		return err
	}
	n, err := db.ApplySeed(context.Background(), conn, seed)
	if err != nil {
		return err
	}
	slog.Info("seed applied", "file", path, "accounts_added", n)
	return nil
}

// services picks each backend from the configuration
func services(conn *sql.DB, cfg cliparse.Config) (router.Services, func(), error) {
	var svc router.Services
	cleanup := func() {}

	if cfg.RedisURL != "" {
		store, err := otp.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return svc, cleanup, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return svc, cleanup, err
		}
		svc.OTPStore = store
		cleanup = func() { store.Close() }
		slog.Info("OTP store", "backend", "redis")
	} else {
		svc.OTPStore = otp.NewSQLStore(conn)
		slog.Info("OTP store", "backend", "sql")
	}

	if cfg.SMTPHost != "" {
		svc.Mailer = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		slog.Info("Mailer", "backend", "smtp", "host", cfg.SMTPHost)
	} else {
		svc.Mailer = mailer.LogMailer{}
		slog.Warn("SMTP_HOST not set, login codes will be logged")
	}

	if cfg.S3Bucket != "" {
		store, err := media.NewS3Store(context.Background(), media.S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   "candidates/",
		})
		if err != nil {
			return svc, cleanup, err
		}
		svc.Media = store
		slog.Info("Image store", "backend", "s3", "bucket", cfg.S3Bucket)
	} else {
		store, err := media.NewDiskStore(cfg.UploadDir, cfg.PublicURL)
		if err != nil {
			return svc, cleanup, err
		}
		svc.Media = store
		slog.Info("Image store", "backend", "disk", "dir", cfg.UploadDir)
	}

	return svc, cleanup, nil
}
