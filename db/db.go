package db

import (
	"mediacat/config"
	"os"
	"path/filepath"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var Instance *gorm.DB

// Init connects to MySQL when MYSQL_DSN is configured, SQLite otherwise
func Init() {
	var dialector gorm.Dialector
	if config.MYSQL_DSN != "" {
		dialector = mysql.Open(config.MYSQL_DSN)
	} else {
		file := config.GetSQLiteFile()
		if err := os.MkdirAll(filepath.Dir(file), 0o777); err != nil {
			panic(err)
		}
		dialector = sqlite.Open(SQLiteDSN(file))
	}
	db, err := Open(dialector)
	if err != nil || db == nil {
		panic(err)
	}
	Instance = db
}

func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	level := logger.Warn
	if !config.DEBUG_MODE {
		level = logger.Error
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}
	if IsSQLite(db) {
		// SQLite has a single writer, share one connection to avoid "database is locked"
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func SQLiteDSN(file string) string {
	return file + "?_foreign_keys=on&_busy_timeout=10000"
}

func IsSQLite(tx *gorm.DB) bool {
	return tx.Dialector.Name() == "sqlite"
}
