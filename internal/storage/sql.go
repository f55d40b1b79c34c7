package storage

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"privacy-node/internal/config"
	"privacy-node/internal/storage/models"
)

// SQLStore persists key-value entries in PostgreSQL through gorm.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(cfg config.DBConfig) (*SQLStore, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode, cfg.TimeZone)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("storage: connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.KVEntry{}); err != nil {
		return nil, fmt.Errorf("storage: auto-migrate: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Put(value []byte) (string, error) {
	key := GenerateDigest(value)
	if err := s.Update(key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *SQLStore) Get(key string) ([]byte, error) {
	var entry models.KVEntry
	err := s.db.First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: sql get: %w", err)
	}
	return entry.Value, nil
}

func (s *SQLStore) Update(key string, value []byte) error {
	entry := models.KVEntry{Key: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("storage: sql upsert: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(key string) ([]byte, error) {
	value, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if err := s.db.Delete(&models.KVEntry{}, "key = ?", key).Error; err != nil {
		return nil, fmt.Errorf("storage: sql delete: %w", err)
	}
	return value, nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
