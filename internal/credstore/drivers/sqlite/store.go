// Package sqlite stores credentials in a SQLite file. Values are sealed with
// AES-GCM before they reach disk.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/profilesync/internal/credstore"
	"github.com/aussiebroadwan/profilesync/pkg/cryptox"
	_ "modernc.org/sqlite"
)

type Store struct {
	db     *sql.DB
	sealer *cryptox.Sealer
	now    func() time.Time
}

var _ credstore.Store = (*Store)(nil)

// NewStore opens the database at dsn, which may carry modernc _pragma
// parameters. Call ApplyMigrations before use.
func NewStore(dsn string, sealer *cryptox.Sealer) (*Store, error) {
	if sealer == nil {
		return nil, errors.New("sqlite: sealer is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One writer at a time; the store is tiny.
	db.SetMaxOpenConns(1)

	return &Store{db: db, sealer: sealer, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var sealed []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, key).Scan(&sealed)
	if err != nil {
		return "", mapNotFound(err)
	}

	plain, err := s.sealer.Open(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to open credential %q: %w", key, err)
	}
	return string(plain), nil
}

func (s *Store) Put(ctx context.Context, key, value string) error {
	sealed, err := s.sealer.Seal([]byte(value))
	if err != nil {
		return fmt.Errorf("failed to seal credential %q: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, sealed, s.now().UnixMilli())
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, key)
	return err
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return credstore.ErrNotFound
	}
	return err
}
