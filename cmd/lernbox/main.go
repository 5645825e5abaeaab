package main

import (
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/TaughtMe/LernBox/internal/config"
	"github.com/TaughtMe/LernBox/internal/storage"
	"github.com/TaughtMe/LernBox/internal/store"
	"github.com/TaughtMe/LernBox/internal/web"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.LoadFromArgs(os.Args[1:])
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer db.Close()
	logger.Info("database opened", zap.String("path", cfg.DBPath))

	st, err := store.New(db, logger)
	if err != nil {
		logger.Fatal("failed to load decks", zap.Error(err))
	}
	st.SetDefaultLanguages(cfg.LangFront, cfg.LangBack)

	srv, err := web.NewServer(st, logger, cfg.PageCapacity)
	if err != nil {
		logger.Fatal("failed to build server", zap.Error(err))
	}

	logger.Info("listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, srv); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
