package state

import "time"

const (
	cursorKey = "changes"
	headerKey = 1
)

type cursorRow struct {
	Name      string `gorm:"primaryKey;size:64"`
	Token     string `gorm:"size:255;not null"`
	UpdatedAt time.Time
}

func (cursorRow) TableName() string { return "sync_cursors" }

type headerRow struct {
	ID          int `gorm:"primaryKey;autoIncrement:false"`
	Version     int64
	CommittedAt *time.Time
}

func (headerRow) TableName() string { return "manifest_header" }

type assetRow struct {
	ID           string `gorm:"primaryKey;size:255"`
	Path         string `gorm:"size:1024;not null"`
	Kind         string `gorm:"size:16;not null"`
	Hash         string `gorm:"size:64"`
	Size         int64
	ModifiedTime time.Time
}

func (assetRow) TableName() string { return "manifest_assets" }

// Tables maps each state table to the columns the store reads and writes.
var Tables = map[string][]string{
	"sync_cursors":    {"name", "token", "updated_at"},
	"manifest_header": {"id", "version", "committed_at"},
	"manifest_assets": {"id", "path", "kind", "hash", "size", "modified_time"},
}
