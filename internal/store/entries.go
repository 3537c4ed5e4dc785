package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Entry is the latest value of one dashboard key.
type Entry struct {
	Table     string          `json:"table"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// EntryRepository reads and writes dashboard entries. Writes replace the
// previous value; no history is kept.
type EntryRepository struct {
	db *sql.DB
}

// Entries returns the entry repository for this store.
func (s *Store) Entries() *EntryRepository {
	return &EntryRepository{db: s.db}
}

const upsertEntry = `INSERT INTO entries (tbl, key, value, updated_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(tbl, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// Put sets table/key to the JSON encoding of value.
func (r *EntryRepository) Put(table, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", table, key, err)
	}

	if _, err := r.db.Exec(upsertEntry, table, key, string(data), time.Now()); err != nil {
		return fmt.Errorf("put %s/%s: %w", table, key, err)
	}
	return nil
}

// PutMany sets every key in values within one transaction, so readers never
// see a partially updated table. All entries share one timestamp.
func (r *EntryRepository) PutMany(table string, values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	encoded := make([]string, len(keys))
	for i, k := range keys {
		data, err := json.Marshal(values[k])
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", table, k, err)
		}
		encoded[i] = string(data)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertEntry)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i, k := range keys {
		if _, err := stmt.Exec(table, k, encoded[i], now); err != nil {
			return fmt.Errorf("put %s/%s: %w", table, k, err)
		}
	}

	return tx.Commit()
}

// Get retrieves one entry.
func (r *EntryRepository) Get(table, key string) (*Entry, error) {
	e := &Entry{}
	var value string

	err := r.db.QueryRow(
		`SELECT tbl, key, value, updated_at FROM entries WHERE tbl = ? AND key = ?`,
		table, key,
	).Scan(&e.Table, &e.Key, &value, &e.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	e.Value = json.RawMessage(value)
	return e, nil
}

// List retrieves every entry of table ordered by key.
func (r *EntryRepository) List(table string) ([]*Entry, error) {
	rows, err := r.db.Query(
		`SELECT tbl, key, value, updated_at FROM entries WHERE tbl = ? ORDER BY key`,
		table,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var value string
		if err := rows.Scan(&e.Table, &e.Key, &value, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Value = json.RawMessage(value)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// Delete removes one entry.
func (r *EntryRepository) Delete(table, key string) error {
	result, err := r.db.Exec(`DELETE FROM entries WHERE tbl = ? AND key = ?`, table, key)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
