package repository

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type sessionValue struct {
	Namespace string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (sessionValue) TableName() string {
	return sessionTable
}

func OpenSQLite(path string) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// SQLiteStorage is the gorm-backed local database variant of MySQLStorage.
type SQLiteStorage struct {
	db        *gorm.DB
	namespace string
}

func NewSQLiteStorage(db *gorm.DB, namespace string) *SQLiteStorage {
	return &SQLiteStorage{db: db, namespace: namespace}
}

func (s *SQLiteStorage) EnsureSchema(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&sessionValue{})
}

func (s *SQLiteStorage) Load(ctx context.Context, keys ...string) (map[string]string, error) {
	keys = normalizeKeys(keys)
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	var rows []sessionValue
	if err := s.db.WithContext(ctx).
		Where("namespace = ? AND name IN ?", s.namespace, keys).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.Name] = row.Value
	}
	return out, nil
}

func (s *SQLiteStorage) Save(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]sessionValue, 0, len(values))
	for name, value := range values {
		rows = append(rows, sessionValue{Namespace: s.namespace, Name: name, Value: value, UpdatedAt: now})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	})
}

func (s *SQLiteStorage) Delete(ctx context.Context, keys ...string) error {
	keys = normalizeKeys(keys)
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("namespace = ? AND name IN ?", s.namespace, keys).
		Delete(&sessionValue{}).Error
}
