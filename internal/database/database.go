package database

import (
	"fmt"
	"sync"
	"time"

	"one-os/configs"
	"one-os/internal/logger"
	"one-os/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type DBManager struct {
	WriteDB     *gorm.DB
	ReadDBs     []*gorm.DB
	nextReplica int
	replicaMu   sync.Mutex
	log         *logger.Logger
}

// New opens the primary connection and any configured read replicas. Replicas
// that fail to connect are logged and skipped.
func New(cfg *configs.Config, log *logger.Logger) (*DBManager, error) {
	m := &DBManager{
		ReadDBs: make([]*gorm.DB, 0, len(cfg.ReadReplicaURLs)),
		log:     log.With("service", "DBManager"),
	}

	writeDB, err := Open(cfg.DatabaseDriver, cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("connect to write database: %w", err)
	}
	m.WriteDB = writeDB

	sqlDB, err := m.WriteDB.DB()
	if err == nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	for i, url := range cfg.ReadReplicaURLs {
		readDB, err := Open(cfg.DatabaseDriver, url, log)
		if err != nil {
			m.log.Warn("failed to connect to read replica", "replica", i, "error", err)
			continue
		}
		m.ReadDBs = append(m.ReadDBs, readDB)
	}

	m.log.Info("database connection established", "driver", cfg.DatabaseDriver, "replicas", len(m.ReadDBs))
	return m, nil
}

// NewFromDB wraps an already open primary connection with no replicas.
func NewFromDB(db *gorm.DB, log *logger.Logger) *DBManager {
	return &DBManager{WriteDB: db, log: log.With("service", "DBManager")}
}

// Open connects with the gorm dialector for driver. Duplicate key errors are
// translated to gorm.ErrDuplicatedKey.
func Open(driver, dsn string, log *logger.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormLogger.New(log, gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
}

// Migrate creates or updates every table.
func (m *DBManager) Migrate() error {
	if err := m.WriteDB.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetReadDB returns a read replica using round-robin, or the primary when
// there are none.
func (m *DBManager) GetReadDB() *gorm.DB {
	m.replicaMu.Lock()
	defer m.replicaMu.Unlock()

	if len(m.ReadDBs) == 0 {
		return m.WriteDB
	}

	db := m.ReadDBs[m.nextReplica]
	m.nextReplica = (m.nextReplica + 1) % len(m.ReadDBs)
	return db
}

func (m *DBManager) Ping() error {
	sqlDB, err := m.WriteDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (m *DBManager) Close() error {
	for _, db := range append([]*gorm.DB{m.WriteDB}, m.ReadDBs...) {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.Close(); err != nil {
			return err
		}
	}
	return nil
}
