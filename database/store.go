package database

import (
	"fmt"
	"time"

	"github.com/yeremiapane/restaurant-pos/config"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store owns the database handle. It is built once in main (or per test) and
// passed to every service.
type Store struct {
	DB     *gorm.DB
	Driver string

	// PasswordCost is the bcrypt cost used when seeding users.
	PasswordCost int
}

// Open connects to the configured driver. SQLite gets a single connection so
// every write is serialized.
func Open(cfg *config.Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverSQLite, "":
		dialector = sqlite.Open(cfg.DBDSN)
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DBDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	gormLogger := logger.Default.LogMode(logger.Silent)
	if cfg.DBDebug {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	driver := cfg.DBDriver
	if driver == "" {
		driver = config.DriverSQLite
	}
	if driver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	utils.InfoLogger.WithField("driver", driver).Info("Database connected")
	return &Store{DB: db, Driver: driver, PasswordCost: bcrypt.DefaultCost}, nil
}

// Migrate creates or updates every table the POS core uses.
func (s *Store) Migrate() error {
	err := s.DB.AutoMigrate(
		&models.Zone{},
		&models.Table{},
		&models.TableSession{},
		&models.User{},
		&models.Category{},
		&models.Dish{},
		&models.Portion{},
		&models.AddOn{},
		&models.AddOnChoice{},
		&models.KOT{},
		&models.KOTItem{},
		&models.Bill{},
		&models.BillKOT{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	if s.Driver != config.DriverSQLite {
		// MySQL tidak punya partial index; keunikan sesi aktif dijaga service
		utils.InfoLogger.Println("Skipping partial indexes on non-sqlite driver")
		return nil
	}
	if err := ExecuteIndexes(s.DB); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenInMemory opens a migrated, private in-memory SQLite store named name.
// Used by tests; password hashing runs at bcrypt.MinCost.
func OpenInMemory(name string) (*Store, error) {
	store, err := Open(&config.Config{
		DBDriver: config.DriverSQLite,
		DBDSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name),
	})
	if err != nil {
		return nil, err
	}
	store.PasswordCost = bcrypt.MinCost
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
