package main

import (
	"os"
	"path/filepath"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/config"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/logging"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/storage"
)

func loadConfigOrExit() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Missing or invalid configuration", err, nil)
	}
	return cfg
}

func loadCatalogOrExit(path string) *config.LoadedCatalog {
	lc, err := config.LoadCatalog(path)
	if err != nil {
		logging.Fatal("Missing or invalid content catalog", err, logging.Fields{"catalog_path": path})
	}
	return lc
}

func createRepositoryOrExit(dbPath string, seeds []storage.Seed) storage.Repository {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logging.Fatal("Failed to create database directory", err, logging.Fields{"dir": dir})
		}
	}
	db, err := storage.OpenAndMigrate(dbPath, seeds)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	return storage.NewSQLiteRepository(db)
}
