package database

import (
	"fmt"
	stdlog "log"
	"time"

	"foodgram/backend/internal/logging"
	"foodgram/backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to the database behind dsn using the named driver
// ("postgres" or "sqlite").
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	// GORM logs through zerolog so SQL warnings share the request log stream.
	gormLogger := logger.New(
		stdlog.New(logging.Logger(), "", 0),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		// A single connection keeps in-memory databases alive and
		// serialises writers.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Ingredient{},
		&models.Tag{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Favorite{},
		&models.ShoppingCart{},
		&models.Subscription{},
	)
}

// Connect initializes the global connection and runs migrations.
func Connect(driver, dsn string) {
	var err error
	DB, err = Open(driver, dsn)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", driver).Msg("failed to connect to database")
	}
	logging.Info().Str("driver", driver).Msg("database connection established")

	if err := Migrate(DB); err != nil {
		logging.Fatal().Err(err).Msg("failed to migrate database")
	}
	logging.Info().Msg("database migrated")
}
