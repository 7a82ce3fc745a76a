package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"uniform-studio/config"
	"uniform-studio/internal/redis"
	"uniform-studio/internal/repository"
	"uniform-studio/internal/services"
	"uniform-studio/pkg/database"
	"uniform-studio/pkg/logger"

	"gorm.io/gorm"
)

const usage = `
Uniform Studio - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Create or update every table and index
  status      Show database connection status and table sizes
  seed-dev    Seed a demo school with requests, deliveries and chat
  set-rate    Store the platform service fee rate, e.g. set-rate 0.02
  reset       Drop all tables and re-run migrations (DANGEROUS)

Flags:
  -school-email string  Demo school email for seed-dev (default "school@uniform.dev")
  -school-pass string   Demo school password for seed-dev (default "School@123!")
  -yes                  Skip the reset countdown

Examples:
  go run ./cmd/migrate up
  go run ./cmd/migrate seed-dev
  go run ./cmd/migrate set-rate 0.025
  go run ./cmd/migrate -yes reset
`

func main() {
	defaults := database.DefaultSeedConfig()
	schoolEmail := flag.String("school-email", defaults.SchoolEmail, "Demo school email for seeding")
	schoolPass := flag.String("school-pass", defaults.SchoolPassword, "Demo school password for seeding")
	yes := flag.Bool("yes", false, "Skip the reset countdown")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer database.Close(db)

	switch command {
	case "up":
		runMigrationsUp(db)
	case "status":
		showStatus(db)
	case "seed-dev":
		seed := database.DefaultSeedConfig()
		seed.SchoolEmail = *schoolEmail
		seed.SchoolPassword = *schoolPass
		runSeedDevelopment(db, seed)
	case "set-rate":
		runSetRate(cfg, db, flag.Arg(1))
	case "reset":
		runReset(db, *yes)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp(db *gorm.DB) {
	log.Println("Running migrations UP...")

	if err := repository.InitSchema(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations completed successfully")
}

func showStatus(db *gorm.DB) {
	log.Println("Checking database status...")

	if err := database.HealthCheck(context.Background(), db); err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Database connection: OK")

	tables := []string{"schools", "design_requests", "design_quotations", "deliveries",
		"revision_requests", "messages", "chat_rooms", "payment_orders", "wallets", "business_configs"}
	for _, table := range tables {
		count, exists, err := database.TableCount(db, table)
		if err != nil {
			log.Printf("Error checking table %s: %v", table, err)
			continue
		}
		if exists {
			log.Printf("Table %-20s exists (%d rows)", table, count)
		} else {
			log.Printf("Table %-20s does not exist", table)
		}
	}
}

func runSeedDevelopment(db *gorm.DB, seed *database.SeedConfig) {
	log.Println("Seeding database (development mode)...")

	if err := repository.InitSchema(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	result, err := database.SeedDevelopment(context.Background(), db, seed)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seed Summary:")
	log.Printf("   - School: %s (ID: %s)", result.School.Email, result.School.ID)
	for _, r := range result.Requests {
		log.Printf("   - Request %-16s %s (%s)", r.Name, r.ID, r.Status)
	}
	log.Printf("   - Deliveries: %d", result.Deliveries)
	log.Printf("   - Messages: %d", result.Messages)
	log.Println("Development seeding completed")
}

// runSetRate writes business_configs.service_rate and drops the cached copy so the
// API picks it up on the next quote.
func runSetRate(cfg *config.Config, db *gorm.DB, arg string) {
	rate, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		log.Fatalf("Invalid rate %q: %v", arg, err)
	}

	l := logger.New(cfg.LogMode)
	defer l.Sync()
	ctx := context.Background()

	var cache services.RateCache
	rc := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rc.Close()
	if err := redis.HealthCheck(ctx, rc); err != nil {
		l.Warnf("redis unavailable, cached rate expires after %s: %v", cfg.ServiceRateTTL, err)
	} else {
		cache = redis.NewCacheStore(rc, redis.CacheConfig{ServiceRateTTL: cfg.ServiceRateTTL})
	}

	svc := services.NewConfigService(repository.NewConfigRepository(db), cache, services.FeeScheduleFromConfig(cfg), l)
	if err := svc.SetServiceRate(ctx, rate); err != nil {
		log.Fatalf("Failed to set service rate: %v", err)
	}
	log.Printf("Service rate set to %s", strconv.FormatFloat(rate, 'f', -1, 64))
}

func runReset(db *gorm.DB, skipCountdown bool) {
	log.Println("WARNING: This will DROP all tables and re-run migrations!")
	if !skipCountdown {
		log.Println("Press Ctrl+C within 5 seconds to cancel...")
		time.Sleep(5 * time.Second)
	}

	log.Println("Dropping all tables...")
	if err := repository.DropSchema(db); err != nil {
		log.Fatalf("Failed to drop tables: %v", err)
	}

	log.Println("Running migrations...")
	if err := repository.InitSchema(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Database reset completed")
}
