package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one key-value pair persisted by GormStore.
type Entry struct {
	Key       string    `gorm:"column:entry_key;type:varchar(64);primaryKey" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Entry) TableName() string {
	return "kv_entries"
}

// GormStore persists keys as rows of the kv_entries table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry Entry
	err := s.db.WithContext(ctx).Take(&entry, "entry_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *GormStore) Set(ctx context.Context, key, value string) error {
	entry := Entry{Key: key, Value: value}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (s *GormStore) Remove(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&Entry{}).Error
}
