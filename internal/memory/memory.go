// Package memory implements Fix Memory: a small persisted table of
// (error kind, logical issue kind) -> patch pairs stored through Record.
// The controller looks a pair up only once it has chosen the Structured
// method, and never calls Record itself. Backed by a local sqlite file via
// gorm, since Fix
// Memory has no multi-tenant server to connect to.
package memory

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codehealer/autofix-engine/internal/autofix"
)

// patchRecord is the gorm model backing the fix_memory table.
type patchRecord struct {
	ID            uint   `gorm:"primarykey"`
	ErrorKind     string `gorm:"index:idx_kind_issue,unique"`
	IssueKind     string `gorm:"index:idx_kind_issue,unique"`
	Pattern       string
	Replacement   string
	TimesApplied  int
	LastAppliedAt time.Time
}

func (patchRecord) TableName() string { return "fix_memory" }

// SQLiteFixMemory persists patches across runs in a local sqlite file. It
// satisfies internal/controller.FixMemory.
type SQLiteFixMemory struct {
	db *gorm.DB
}

// Open connects to (creating if absent) the sqlite database at path and
// migrates the fix_memory table.
func Open(path string) (*SQLiteFixMemory, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("memory: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&patchRecord{}); err != nil {
		return nil, fmt.Errorf("memory: migrate: %w", err)
	}
	return &SQLiteFixMemory{db: db}, nil
}

// Lookup returns the recorded patch for (kind, issueKind), if any.
func (m *SQLiteFixMemory) Lookup(kind autofix.ErrorKind, issueKind string) (*autofix.Patch, bool) {
	var rec patchRecord
	err := m.db.Where("error_kind = ? AND issue_kind = ?", string(kind), issueKind).First(&rec).Error
	if err != nil {
		return nil, false
	}
	return &autofix.Patch{Pattern: rec.Pattern, Replacement: rec.Replacement}, true
}

// Record stores or replaces the patch for (kind, issueKind), bumping
// TimesApplied on repeat hits.
func (m *SQLiteFixMemory) Record(kind autofix.ErrorKind, issueKind string, patch autofix.Patch) {
	var rec patchRecord
	err := m.db.Where("error_kind = ? AND issue_kind = ?", string(kind), issueKind).First(&rec).Error
	if err == nil {
		rec.Pattern = patch.Pattern
		rec.Replacement = patch.Replacement
		rec.TimesApplied++
		rec.LastAppliedAt = time.Now()
		m.db.Save(&rec)
		return
	}
	m.db.Create(&patchRecord{
		ErrorKind:     string(kind),
		IssueKind:     issueKind,
		Pattern:       patch.Pattern,
		Replacement:   patch.Replacement,
		TimesApplied:  1,
		LastAppliedAt: time.Now(),
	})
}

// Close releases the underlying sqlite connection.
func (m *SQLiteFixMemory) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
