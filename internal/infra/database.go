package infra

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Migrations holds the versioned SQL schema. The schema is owned by goose,
// never by GORM AutoMigrate: partial indexes and advisory-lock assumptions
// cannot be expressed in struct tags.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// NewDatabase establishes a GORM connection backed by pgx. Driver errors are
// translated so that unique violations surface as gorm.ErrDuplicatedKey.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// RunMigrations applies every pending migration. Used at startup when
// AUTO_MIGRATE is set, by cmd/migrate and by integration tests.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	return RunGoose(ctx, db, "up")
}

// RunGoose executes a goose command ("up", "down", "status", "version", ...)
// against the embedded migrations.
func RunGoose(ctx context.Context, db *gorm.DB, command string, args ...string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, sqlDB, "migrations", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
