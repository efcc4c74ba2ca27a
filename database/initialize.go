package database

import (
	"os"

	"tweet-fleet/config"

	"github.com/jmoiron/sqlx"
	"github.com/umakantv/go-utils/db"
	"github.com/umakantv/go-utils/db/migrations"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// DSN adds the connection options every writer needs: transactions take the
// write lock up front and wait for each other instead of failing with
// SQLITE_BUSY.
func DSN(path string) string {
	return path + "?_txlock=immediate&_busy_timeout=5000"
}

func InitializeDatabase(cfg config.DatabaseConfig) *sqlx.DB {
	dbConn := db.GetDBConnection(db.DatabaseConfig{
		DRIVER: "sqlite3",
		DB:     DSN(cfg.Path),
	})

	err := migrations.Migrate(dbConn, cfg.MigrationsDir)
	if err != nil {
		logger.Error("Error while running migration", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Database initialized successfully", zap.String("path", cfg.Path))
	return dbConn
}
