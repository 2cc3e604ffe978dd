package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"academy/internal/adapters/storage"
)

const dateLayout = "2006-01-02T15:04:05Z07:00"

// SQLiteStore implements the credential Store interface using SQLite.
type SQLiteStore struct {
	db     storage.SQLDB
	sealer *Sealer
	now    func() time.Time
}

// NewSQLiteStore creates a credential store that seals values with sealer.
// PRE: sealer is non-nil
func NewSQLiteStore(db storage.SQLDB, sealer *Sealer) *SQLiteStore {
	return &SQLiteStore{db: db, sealer: sealer, now: time.Now}
}

// Get returns the token stored under name.
// PRE: name is non-empty
// POST: returns ErrNotFound if nothing is stored; ErrUnseal if the stored value cannot be opened
func (s *SQLiteStore) Get(ctx context.Context, name string) (string, error) {
	var sealed []byte
	err := s.db.QueryRowContext(ctx, `SELECT sealed FROM credential WHERE name = ?`, name).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("credential: get %s: %w", name, err)
	}
	plain, err := s.sealer.Open(sealed)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// Put stores token under name, replacing any previous value.
// PRE: name and token are non-empty
// POST: the stored value is sealed; updated_at is the current UTC time
func (s *SQLiteStore) Put(ctx context.Context, name, token string) error {
	if name == "" || token == "" {
		return errors.New("credential: name and token are required")
	}
	sealed, err := s.sealer.Seal([]byte(token))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO credential (name, sealed, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET sealed = excluded.sealed, updated_at = excluded.updated_at`,
		name, sealed, s.now().UTC().Format(dateLayout))
	if err != nil {
		return fmt.Errorf("credential: put %s: %w", name, err)
	}
	return nil
}

// Delete removes the credential stored under name.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credential WHERE name = ?`, name); err != nil {
		return fmt.Errorf("credential: delete %s: %w", name, err)
	}
	return nil
}

// DeletePrefix removes every credential whose name starts with prefix and
// returns how many were removed.
// PRE: prefix is non-empty
func (s *SQLiteStore) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM credential WHERE substr(name, 1, ?) = ?`, len(prefix), prefix)
	if err != nil {
		return 0, fmt.Errorf("credential: delete %s*: %w", prefix, err)
	}
	return res.RowsAffected()
}
