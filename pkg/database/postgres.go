package database

import (
	"fmt"
	"time"

	"go-stock-tracker/internal/config"
	"go-stock-tracker/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// zapWriter adapts a zap logger to gorm's logger.Writer.
type zapWriter struct {
	log *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.Infof(format, args...)
}

// NewGormLogger routes SQL logs through zap. Production only logs slow queries and errors.
func NewGormLogger(log *zap.Logger, production bool) logger.Interface {
	level := logger.Info
	if production {
		level = logger.Warn
	}
	return logger.New(
		zapWriter{log: log.Named("gorm").Sugar()},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func ConnectDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.Database.GetDSN(),
		PreferSimpleProtocol: true, // no implicit prepared statements; safe behind transaction-mode poolers
	}), &gorm.Config{
		Logger:      NewGormLogger(log, cfg.IsProduction()),
		PrepareStmt: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	log.Info("database connection established")
	return db, nil
}

// Models lists every table in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.Privilege{},
		&model.Role{},
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.StockRequest{},
		&model.StockTransaction{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
