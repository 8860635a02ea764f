package storage

import (
	"device-access-control/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteProvider struct {
	SQLProvider
}

func NewSQLiteProvider(config *config.Storage) (provider *SQLiteProvider) {
	base := NewSQLProvider("sqlite3", config.SQLite.Path)
	if base == nil {
		return nil
	}
	return &SQLiteProvider{
		SQLProvider: *base,
	}
}
