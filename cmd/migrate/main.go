package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/ignite/marketpulse/internal/config"
	"github.com/ignite/marketpulse/internal/pkg/distlock"
	"github.com/ignite/marketpulse/migrations"
)

const usage = `usage: migrate [-config path] <command> [version]

commands:
  up            apply all pending migrations
  up-to V       apply migrations up to version V
  down          roll back the latest migration
  down-to V     roll back to version V
  status        list applied and pending migrations
  version       print the current schema version`

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		cfg, err := config.LoadFromEnv(*configPath)
		if err != nil {
			log.Fatalf("[migrate] DATABASE_URL is not set and config could not be loaded: %v", err)
		}
		dsn = cfg.Database.URL
	}
	if dsn == "" {
		log.Fatal("[migrate] DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("[migrate] connect: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("[migrate] ping: %v", err)
	}
	log.Println("[migrate] connected to database")

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("[migrate] dialect: %v", err)
	}

	// Replicas starting together run migrations one at a time.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	lock := distlock.NewPGAdvisoryLock(db, "marketpulse:migrate")
	if err := distlock.Wait(ctx, lock, time.Second); err != nil {
		log.Fatalf("[migrate] waiting for migration lock: %v", err)
	}
	err = goose.RunContext(ctx, args[0], db, ".", args[1:]...)
	if relErr := lock.Release(context.Background()); relErr != nil {
		log.Printf("[migrate] releasing lock: %v", relErr)
	}
	if err != nil {
		log.Fatalf("[migrate] %s: %v", args[0], err)
	}
	log.Printf("[migrate] %s complete", args[0])
}
