package db

import (
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVRecord 存储整文档粒度的键值对。
// 整个习惯数据文档作为一条记录整体读写，不存在部分写入。
type KVRecord struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (KVRecord) TableName() string {
	return "kv_records"
}

const (
	// KeyHabitData 表示习惯数据文档。
	KeyHabitData = "habit_tracker_data"
	// KeyParentPassword 表示家长口令。
	KeyParentPassword = "parent_password"
)

// KV 抽象底层键值持久化，便于在测试中注入内存实现。
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// GormKV 基于 gorm 的 KV 实现。
type GormKV struct {
	db *gorm.DB
}

// NewGormKV 构造 GormKV。
func NewGormKV(gdb *gorm.DB) *GormKV {
	return &GormKV{db: gdb}
}

// Get 读取指定键的值，第二个返回值表示记录是否存在。
func (s *GormKV) Get(key string) (string, bool, error) {
	var record KVRecord
	if err := s.db.Where("key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load record %s: %w", key, err)
	}
	return record.Value, true, nil
}

// Set 写入指定键的值，存在则覆盖。
func (s *GormKV) Set(key, value string) error {
	record := KVRecord{Key: key, Value: value}
	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("upsert record %s: %w", key, err)
	}
	return nil
}

// MemoryKV 是 KV 的内存实现，主要面向测试场景。
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryKV 构造 MemoryKV。
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

// Get 读取内存中的键值。
func (s *MemoryKV) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	return value, ok, nil
}

// Set 写入内存中的键值。
func (s *MemoryKV) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}
