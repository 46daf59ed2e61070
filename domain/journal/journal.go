// Package journal keeps a record of notable ticks: the frame as a PNG on
// disk and a row in a local SQLite database.
package journal

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Incident tags.
const (
	TagLowHP    = "low-hp"
	TagAttacked = "attacked"
	TagBoss     = "boss"
)

// Incident is one journal row.
type Incident struct {
	ID        uint   `gorm:"column:id;primaryKey;autoIncrement"`
	RunID     string `gorm:"column:run_id;not null;default:'';index"`
	Account   int    `gorm:"column:account;not null;default:0"`
	Window    string `gorm:"column:window;not null;default:''"`
	Tag       string `gorm:"column:tag;not null;default:''"`
	HP        int    `gorm:"column:hp;not null;default:-1"`
	MP        int    `gorm:"column:mp;not null;default:-1"`
	ImagePath string `gorm:"column:image_path;not null;default:''"`
	CreatedAt int64  `gorm:"column:created_at;not null;default:0;index"`
}

func (Incident) TableName() string { return "incidents" }

// Time returns CreatedAt as a time.
func (i Incident) Time() time.Time { return time.Unix(i.CreatedAt, 0) }

// Entry is what a session hands to Record.
type Entry struct {
	RunID   string
	Account int
	Window  string
	Tag     string
	HP, MP  int
	Frame   image.Image
	At      time.Time
}

// Journal writes screenshots and incident rows. Safe for concurrent use.
type Journal struct {
	mu     sync.Mutex
	db     *gorm.DB
	outDir string
}

// Open opens (creating if needed) the database at dbPath. Screenshots go to
// outDir.
func Open(dbPath, outDir string) (*Journal, error) {
	gdb, err := openSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", dbPath, err)
	}
	if err := gdb.AutoMigrate(&Incident{}); err != nil {
		closeDB(gdb)
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	return &Journal{db: gdb, outDir: outDir}, nil
}

func openSQLite(path string) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	gdb, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := gdb.Exec(`PRAGMA journal_mode=WAL;`).Error; err != nil {
		return nil, err
	}
	if err := gdb.Exec(`PRAGMA busy_timeout=5000;`).Error; err != nil {
		return nil, err
	}
	return gdb, nil
}

// Record saves the frame (when present) and inserts a row. The row is
// written even if the screenshot fails; the returned error reports either.
func (j *Journal) Record(e Entry) (Incident, error) {
	if j == nil || j.db == nil {
		return Incident{}, errors.New("journal is not open")
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	row := Incident{
		RunID:     e.RunID,
		Account:   e.Account,
		Window:    e.Window,
		Tag:       e.Tag,
		HP:        e.HP,
		MP:        e.MP,
		CreatedAt: e.At.Unix(),
	}
	var shotErr error
	if e.Frame != nil {
		row.ImagePath, shotErr = j.screenshot(e)
	}
	j.mu.Lock()
	err := j.db.Create(&row).Error
	j.mu.Unlock()
	if err != nil {
		return row, fmt.Errorf("insert incident: %w", err)
	}
	return row, shotErr
}

// screenshot writes <out>/<window>_<tag>_<YYYYmmdd-HH-MM-SS>.png.
func (j *Journal) screenshot(e Entry) (string, error) {
	if err := os.MkdirAll(j.outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s_%s.png", fileSafe(e.Window), fileSafe(e.Tag), e.At.Format("20060102-15-04-05"))
	path := filepath.Join(j.outDir, name)
	if err := imaging.Save(e.Frame, path); err != nil {
		return "", fmt.Errorf("save screenshot: %w", err)
	}
	return path, nil
}

// Recent returns the newest incidents first.
func (j *Journal) Recent(limit int) ([]Incident, error) {
	if j == nil || j.db == nil {
		return nil, errors.New("journal is not open")
	}
	if limit <= 0 {
		limit = 20
	}
	rows := make([]Incident, 0, limit)
	if err := j.db.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func closeDB(gdb *gorm.DB) {
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func fileSafe(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unnamed"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, s)
}
