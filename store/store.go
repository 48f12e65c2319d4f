// Package store keeps the HomeKit pairing data and the last light state
// in one sqlite database.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/brutella/hap"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"lautenbacher.net/neostrip/light"
)

// ErrNotFound is returned by Get for keys that were never set.
var ErrNotFound = errors.New("key not found")

const serialKey = "serial"

type Store struct {
	db *sql.DB
}

var _ hap.Store = (*Store)(nil)

// Open opens the database at path and creates missing tables.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	// hap keeps its keys and pairings here
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv_store (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create kv_store table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS meta (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create meta table: %w", err)
	}

	// single row
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS light_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			payload TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create light_state table: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Set(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// KeysWithSuffix returns the matching keys in sorted order.
func (s *Store) KeysWithSuffix(suffix string) ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM kv_store`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		if strings.HasSuffix(key, suffix) {
			keys = append(keys, key)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return keys, nil
}

// SaveState replaces the persisted light state.
func (s *Store) SaveState(snap light.Snapshot) error {
	// a flash is not a state worth restoring
	snap.Flashing = false
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO light_state (id, payload, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, string(payload), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save light state: %w", err)
	}
	return nil
}

// LoadState returns the persisted light state, or nil if there is none.
func (s *Store) LoadState() (*light.Snapshot, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM light_state WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load light state: %w", err)
	}
	var snap light.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode light state: %w", err)
	}
	return &snap, nil
}

// SerialNumber returns the accessory serial number, creating it on first
// use. It stays the same for the lifetime of the database.
func (s *Store) SerialNumber() (string, error) {
	var serial string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE name = ?`, serialKey).Scan(&serial)
	if err == nil {
		return serial, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to read serial number: %w", err)
	}

	serial = strings.ToUpper(uuid.NewString())
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO meta (name, value) VALUES (?, ?)`, serialKey, serial); err != nil {
		return "", fmt.Errorf("failed to store serial number: %w", err)
	}
	// another writer may have won
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE name = ?`, serialKey).Scan(&serial); err != nil {
		return "", fmt.Errorf("failed to read serial number: %w", err)
	}
	return serial, nil
}
