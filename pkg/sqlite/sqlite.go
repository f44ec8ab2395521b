package sqlite

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewInMemoryPath returns a named, shared-cache in-memory database path so that
// every connection in the pool sees the same database.
func NewInMemoryPath(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
}

func NewSqlite(path string) gorm.Dialector {
	return sqlite.Open(path)
}

func NewGormSqliteFromSqlite(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// shared-cache databases lock at the table level; a single connection
	// keeps reads and writes from the same goroutine from contending.
	rawDb, err := db.DB()
	if err != nil {
		return nil, err
	}
	rawDb.SetMaxOpenConns(1)

	pragmas := []string{
		`PRAGMA foreign_keys = ON;`,
	}
	for _, pragma := range pragmas {
		if res := db.Exec(pragma); res.Error != nil {
			return nil, res.Error
		}
	}
	return db, nil
}
