package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"qsim/internal/config"
	"qsim/internal/database"
)

func main() {
	var (
		configPath = flag.String("config", "configs/config.yaml", "configuration file path")
		dir        = flag.String("dir", "migrations", "migrations directory")
		down       = flag.Bool("down", false, "roll back all migrations")
		version    = flag.Bool("version", false, "print current migration version")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, *dir)
	if err != nil {
		log.Fatalf("Failed to create migrator: %v", err)
	}

	switch {
	case *version:
		v, err := migrator.Version()
		if err != nil {
			log.Fatalf("Failed to read version: %v", err)
		}
		fmt.Printf("current migration version: %d\n", v)
	case *down:
		if err := migrator.Down(); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		log.Println("Migrations rolled back")
	default:
		if err := migrator.Up(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations applied")
	}
}
