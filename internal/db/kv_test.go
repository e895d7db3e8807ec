package db

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupKVTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:kv-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := gdb.AutoMigrate(&KVRecord{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestGormKVGetMissingKey(t *testing.T) {
	gdb, cleanup := setupKVTestDB(t)
	t.Cleanup(cleanup)

	kv := NewGormKV(gdb)

	value, ok, err := kv.Get(KeyHabitData)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected missing key, got value %q", value)
	}
}

func TestGormKVSetAndOverwrite(t *testing.T) {
	gdb, cleanup := setupKVTestDB(t)
	t.Cleanup(cleanup)

	kv := NewGormKV(gdb)

	if err := kv.Set(KeyParentPassword, "1234"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	value, ok, err := kv.Get(KeyParentPassword)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !ok || value != "1234" {
		t.Fatalf("expected stored value 1234, got %q (ok=%v)", value, ok)
	}

	if err := kv.Set(KeyParentPassword, "5678"); err != nil {
		t.Fatalf("Set overwrite returned error: %v", err)
	}

	value, ok, err = kv.Get(KeyParentPassword)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !ok || value != "5678" {
		t.Fatalf("expected overwritten value 5678, got %q (ok=%v)", value, ok)
	}

	// 覆盖写不应产生第二条记录
	var count int64
	if err := gdb.Model(&KVRecord{}).Where("key = ?", KeyParentPassword).Count(&count).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}
}

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()

	if _, ok, _ := kv.Get("missing"); ok {
		t.Fatal("expected missing key")
	}

	if err := kv.Set("k", "v"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	value, ok, err := kv.Get("k")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !ok || value != "v" {
		t.Fatalf("expected v, got %q (ok=%v)", value, ok)
	}
}
