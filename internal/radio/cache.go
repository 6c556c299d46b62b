package radio

import (
	"database/sql"
	"time"

	"github.com/llehouerou/undertow/internal/db"
	"github.com/llehouerou/undertow/internal/playlist"
)

// Cache keeps the last trending pool in SQLite so continuation still has
// material when the catalog is unreachable.
type Cache struct {
	db      *sql.DB
	ttlDays int
	now     func() time.Time
}

// NewCache creates a new Cache instance.
func NewCache(db *sql.DB, ttlDays int) *Cache {
	return &Cache{
		db:      db,
		ttlDays: ttlDays,
		now:     time.Now,
	}
}

// isExpired checks if a cached entry is expired.
func (c *Cache) isExpired(fetchedAt int64) bool {
	expiry := c.now().AddDate(0, 0, -c.ttlDays).Unix()
	return fetchedAt < expiry
}

// GetTrending returns the cached pool in rank order, or nil if it is
// missing or expired.
func (c *Cache) GetTrending() ([]playlist.Track, time.Time, error) {
	rows, err := c.db.Query(`
		SELECT track_id, title, artist, album, duration_ms, provider_id, thumbnail, fetched_at
		FROM trending_tracks
		ORDER BY rank ASC
	`)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	var result []playlist.Track
	var fetchedAt int64

	for rows.Next() {
		var t playlist.Track
		var durMs int64
		if err := rows.Scan(&t.ID, &t.Title, &t.Artist, &t.Album, &durMs,
			&t.ProviderID, &t.Thumbnail, &fetchedAt); err != nil {
			return nil, time.Time{}, err
		}
		if c.isExpired(fetchedAt) {
			return nil, time.Time{}, nil // Return empty to trigger refresh
		}
		t.Duration = time.Duration(durMs) * time.Millisecond
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}
	if len(result) == 0 {
		return nil, time.Time{}, nil
	}
	return result, time.Unix(fetchedAt, 0), nil
}

// SetTrending replaces the cached pool.
func (c *Cache) SetTrending(tracks []playlist.Track) error {
	return db.WithTx(c.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM trending_tracks`); err != nil {
			return err
		}

		now := c.now().Unix()
		stmt, err := tx.Prepare(`
			INSERT INTO trending_tracks
				(rank, track_id, title, artist, album, duration_ms, provider_id, thumbnail, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range tracks {
			if _, err := stmt.Exec(i, t.ID, t.Title, t.Artist, t.Album,
				t.Duration.Milliseconds(), t.ProviderID, t.Thumbnail, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// CleanExpired removes expired cache entries.
func (c *Cache) CleanExpired() error {
	expiry := c.now().AddDate(0, 0, -c.ttlDays).Unix()
	_, err := c.db.Exec(`DELETE FROM trending_tracks WHERE fetched_at < ?`, expiry)
	return err
}
