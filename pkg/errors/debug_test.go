package errors

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestIsUniqueViolationRecognizesSqlite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.Exec(`CREATE TABLE slugs (slug TEXT NOT NULL UNIQUE)`).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := conn.Exec(`INSERT INTO slugs (slug) VALUES ('betta')`).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}

	dup := conn.Exec(`INSERT INTO slugs (slug) VALUES ('betta')`).Error
	if dup == nil {
		t.Fatal("expected duplicate insert to fail")
	}
	if !IsUniqueViolation(dup) {
		t.Fatalf("expected unique violation for %v", dup)
	}

	if IsUniqueViolation(nil) {
		t.Fatal("nil error must not be a unique violation")
	}
	if IsUniqueViolation(fmt.Errorf("boom")) {
		t.Fatal("arbitrary error must not be a unique violation")
	}
}
