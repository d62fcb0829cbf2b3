package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemorySQLite is used when neither Postgres nor a SQLite file is configured
const MemorySQLite = "file:orderdesk?mode=memory&cache=shared"

// DB holds the Postgres connection, nil when snapshots live in SQLite
var DB *sql.DB

// Gorm holds the snapshot store connection
var Gorm *gorm.DB

// ConnString returns DATABASE_URL or a DSN built from the DB_* variables.
// The empty string means Postgres is not configured.
func ConnString() string {
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		return connStr
	}
	host := os.Getenv("DB_HOST")
	user := os.Getenv("DB_USER")
	dbname := os.Getenv("DB_NAME")
	if host == "" || user == "" || dbname == "" {
		return ""
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	sslmode := os.Getenv("DB_SSLMODE")
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, os.Getenv("DB_PASSWORD"), dbname, sslmode)
}

// InitDB opens the Postgres connection through pgx
func InitDB(ctx context.Context, connStr string) error {
	if connStr == "" {
		return fmt.Errorf("database connection variables not set. Set DATABASE_URL or DB_HOST, DB_USER, DB_NAME")
	}
	var err error
	DB, err = sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := DB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("✓ Database connection established successfully")
	return nil
}

// OpenSnapshotStore opens the gorm handle for snapshots. A SQLite path wins;
// otherwise the Postgres connection from InitDB is reused; with neither an
// in-memory SQLite database is used.
func OpenSnapshotStore(ctx context.Context, sqlitePath string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if os.Getenv("DB_DEBUG") == "1" {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	switch {
	case sqlitePath != "":
		dialector = sqlite.Open(sqlitePath)
		log.Printf("✓ Snapshot store: SQLite %s", sqlitePath)
	case ConnString() != "":
		if DB == nil {
			if err := InitDB(ctx, ConnString()); err != nil {
				return nil, err
			}
		}
		dialector = postgres.New(postgres.Config{Conn: DB})
		log.Printf("✓ Snapshot store: Postgres")
	default:
		dialector = sqlite.Open(MemorySQLite)
		log.Printf("⚠️  Snapshot store: in-memory SQLite, snapshots are lost on restart")
	}

	g, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	Gorm = g
	return g, nil
}

// CloseDB closes the database connections
func CloseDB() error {
	if Gorm != nil && DB == nil {
		if sqlDB, err := Gorm.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if DB != nil {
		return DB.Close()
	}
	return nil
}
