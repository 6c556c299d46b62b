// Package state persists the player settings that survive restarts and
// hosts the trending cache table.
package state

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"

	"github.com/llehouerou/undertow/internal/db"
)

const (
	appName      = "undertow"
	dbFileName   = "undertow.db"
	saveDebounce = 500 * time.Millisecond
)

// Settings are the player settings restored on startup.
type Settings struct {
	Volume     float64
	RepeatMode int
	Shuffle    bool
}

// DefaultSettings is returned before anything was saved.
var DefaultSettings = Settings{Volume: 1}

type Manager struct {
	db        *sql.DB
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *Settings
}

// Open opens the database in the XDG data directory.
func Open() (*Manager, error) {
	dbPath, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath)
}

// OpenPath opens the database at path, creating its directory if needed.
func OpenPath(path string) (*Manager, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	sqlDB, err := db.Open(path)
	if err != nil {
		return nil, err
	}

	if err := initSchema(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &Manager{db: sqlDB}, nil
}

// Close flushes a pending save and closes the database.
func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	m.pending = nil
	m.saveMu.Unlock()

	if pending != nil {
		_ = saveSettings(m.db, *pending)
	}

	return m.db.Close()
}

func (m *Manager) DB() *sql.DB {
	return m.db
}

// GetSettings returns the saved settings, or DefaultSettings.
func (m *Manager) GetSettings() (Settings, error) {
	return getSettings(m.db)
}

// SaveSettings stores s after a short debounce. Rapid changes such as
// volume key repeats collapse into one write.
func (m *Manager) SaveSettings(s Settings) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &s

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		m.saveMu.Unlock()

		if pending != nil {
			_ = saveSettings(m.db, *pending)
		}
	})
}

func getSettings(sqlDB *sql.DB) (Settings, error) {
	var s Settings
	err := sqlDB.QueryRow(`
		SELECT volume, repeat_mode, shuffle FROM player_settings WHERE id = 1
	`).Scan(&s.Volume, &s.RepeatMode, &s.Shuffle)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultSettings, nil
	}
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}

func saveSettings(sqlDB *sql.DB, s Settings) error {
	_, err := sqlDB.Exec(`
		INSERT INTO player_settings (id, volume, repeat_mode, shuffle)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			volume = excluded.volume,
			repeat_mode = excluded.repeat_mode,
			shuffle = excluded.shuffle
	`, s.Volume, s.RepeatMode, s.Shuffle)
	return err
}
