package db

import (
	"time"

	"microlend-backend/internal/domain/application"
	"microlend-backend/internal/domain/loan"
	"microlend-backend/internal/domain/loantype"
	"microlend-backend/internal/domain/payment"
	"microlend-backend/internal/domain/user"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func OpenGorm(dsn string, log *zap.Logger) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn), log)
}

// OpenGormWithDialector opens, tunes the pool and pings. Split out so tests
// can hand in a dialector backed by sqlmock.
func OpenGormWithDialector(dial gorm.Dialector, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	log.Info("gorm: connected", zap.String("dialect", dial.Name()))
	return db, nil
}

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&user.User{},
		&loantype.LoanType{},
		&loantype.PaymentDuration{},
		&application.Application{},
		&loan.Loan{},
		&loan.Term{},
		&payment.Payment{},
	}
}

// Migrate creates or updates the service tables. Extra models (adapter
// tables) are migrated after the core ones.
func Migrate(db *gorm.DB, extra ...any) error {
	return db.AutoMigrate(append(Models(), extra...)...)
}
