package db

import (
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"hrdesk/internal/models"
)

// Open opens a gorm connection for the given driver name.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	// TranslateError maps unique violations to gorm.ErrDuplicatedKey
	gdb, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	if driver == "sqlite" {
		// one writer keeps sqlite from returning "database is locked"
		sqlDB.SetMaxOpenConns(1)
	}
	return gdb, nil
}

func Connect(driver, dsn string) *gorm.DB {
	gdb, err := Open(driver, dsn)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}

	log.Println("✅ Database connected successfully")
	return gdb
}

// AutoMigrate creates or updates every table.
func AutoMigrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	// badge codes used to be unique across orgs
	if m := gdb.Migrator(); m.HasIndex(&models.Member{}, "idx_member_badge_code") {
		if err := m.DropIndex(&models.Member{}, "idx_member_badge_code"); err != nil {
			return fmt.Errorf("drop global badge index: %w", err)
		}
	}
	return nil
}
