package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var _ Backend = (*SQLiteBackend)(nil)

// document is one collection stored as a row.
type document struct {
	Name      string `gorm:"primaryKey"`
	Body      []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (document) TableName() string {
	return "documents"
}

// SQLiteBackend stores every collection as a row of a SQLite table.
type SQLiteBackend struct {
	db *gorm.DB
}

// NewSQLiteBackend opens the database at path and performs migrations.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Read(ctx context.Context, name string) ([]byte, error) {
	var doc document
	if err := b.db.WithContext(ctx).Where("name = ?", name).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return doc.Body, nil
}

func (b *SQLiteBackend) Write(ctx context.Context, name string, data []byte) error {
	doc := document{Name: name, Body: data, UpdatedAt: time.Now()}
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).Create(&doc).Error
	})
}

func (b *SQLiteBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
