package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/eskrenkovic/matchroom/internal/config"
	"github.com/eskrenkovic/matchroom/internal/server"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootPath := "."
	if len(os.Args) > 1 {
		rootPath = os.Args[1]
		if rootPath == "" {
			log.Fatal("root directory path is empty")
		}
	}

	if err := godotenv.Load(path.Join(rootPath, "config.env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal(err)
	}
	if _, ok := os.LookupEnv("ROOT_PATH"); !ok {
		_ = os.Setenv("ROOT_PATH", rootPath)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		_ = cfg.Logger.Sync()
	}()
	zap.ReplaceGlobals(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewHTTPServer(ctx, cfg)
	if err != nil {
		cfg.Logger.Fatal("creating server", zap.Error(err))
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Start()
	}()

	select {
	case err := <-errs:
		if err != nil {
			cfg.Logger.Error("server failed", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		cfg.Logger.Error("stopping server", zap.Error(err))
	}
}
