package main

import (
	"flag"
	"fmt"
	"os"

	"tweet-fleet/config"
	"tweet-fleet/database"
	"tweet-fleet/server"

	_ "github.com/mattn/go-sqlite3"
	"github.com/umakantv/go-utils/db/migrations"
	"github.com/umakantv/go-utils/logger"
)

func main() {
	commandFlag := flag.String("command", "start", "Command to run modules")
	nameFlag := flag.String("name", "", "Migration name (alphanum+underscore only)")
	dirFlag := flag.String("dir", "./database/migrations", "Target directory for the new .sql file")
	flag.Parse()

	if *commandFlag == "" {
		fmt.Println("Usage: go run main.go --command <start|init-db|create-migration> [... other options]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	switch *commandFlag {
	case "start":
		server.StartServer(cfg)
	case "init-db":
		logger.Init(logger.LoggerConfig{CallerKey: "file", TimeKey: "timestamp", CallerSkip: 1})
		conn := database.InitializeDatabase(cfg.Database)
		conn.Close()
		logger.Info("Database initialized")
	case "create-migration":
		migrations.CreateMigration(nameFlag, dirFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", *commandFlag)
		os.Exit(1)
	}
}
