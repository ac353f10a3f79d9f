// Command notekeepd serves the note-and-file manager API backed either by
// Postgres plus an object store, or by Redis with inlined payloads.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/notekeep/notekeep/api"
	"github.com/notekeep/notekeep/api/validator"
	"github.com/notekeep/notekeep/blob"
	"github.com/notekeep/notekeep/postgres"
	"github.com/notekeep/notekeep/redis"
	"github.com/notekeep/notekeep/remote"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	if err := run(logger); err != nil {
		logger.Error("Fatal", "error", err.Error())
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	if err := godotenv.Load(); err != nil {
		logger.Info(".env not found, using environment variables")
	}

	ctx := context.Background()
	store, err := connectStore(ctx, logger)
	if err != nil {
		return err
	}

	a := &api.API{
		Logger: logger,
		Store:  store,
		Val:    validator.New(),
	}

	addr := envOr("ADDR", ":8080")
	logger.Info("Listening", "addr", addr)
	return http.ListenAndServe(addr, a)
}

func connectStore(ctx context.Context, logger *slog.Logger) (api.Store, error) {
	backend := envOr("STORAGE_BACKEND", "remote")
	logger.Info("Connecting storage", "backend", backend)

	switch backend {
	case "local":
		return redis.Connect(ctx, envOr("REDIS_ADDR", "localhost:6379"))
	default:
		rows, err := postgres.Connect(ctx, os.Getenv("DATABASE_URL"))
		if err != nil {
			return nil, err
		}
		blobs, err := blob.Connect(ctx, blob.Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    os.Getenv("S3_BUCKET"),
			PublicURL: os.Getenv("S3_PUBLIC_URL"),
			UseSSL:    os.Getenv("S3_USE_SSL") != "false",
		})
		if err != nil {
			return nil, err
		}
		return &remote.Store{
			Logger: logger,
			Rows:   rows,
			Blobs:  blobs,
		}, nil
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
