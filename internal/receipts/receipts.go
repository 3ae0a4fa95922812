// Package receipts keeps a local record of transactions made through the
// imparters. Credentials are never stored.
package receipts

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yolodolo42/ledgers/internal/imparter"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05"

// Store is an append-only table of transaction outcomes.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

type Receipt struct {
	ID        int64
	Tag       string
	Mode      string
	From      string
	To        string
	Amount    decimal.Decimal
	Gratis    bool
	Reference string
	CreatedAt time.Time
}

// Open opens (or creates) the receipt DB under dataDir/receipts.db.
func Open(dataDir string) (*Store, error) {
	return OpenDSN(filepath.Join(dataDir, "receipts.db"))
}

// OpenDSN opens (or creates) a receipt DB using the given sqlite DSN or path.
func OpenDSN(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open receipts db: %w", err)
	}
	// One connection, so ":memory:" databases are shared across calls.
	db.SetMaxOpenConns(1)

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS receipts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tag TEXT NOT NULL,
	mode TEXT,
	from_address TEXT NOT NULL,
	to_address TEXT,
	amount TEXT NOT NULL,
	gratis INTEGER NOT NULL DEFAULT 0,
	reference TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS receipts_tag ON receipts (tag, id);
`)
	if err != nil {
		return fmt.Errorf("create receipts table: %w", err)
	}
	return nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends the outcome of a CreateTransaction made on tag in mode.
func (s *Store) Record(tag imparter.Tag, mode string, out *imparter.TxOutcome) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("receipt store not initialized")
	}
	if tag == "" {
		return 0, errors.New("tag is required")
	}
	if out == nil || out.From == "" {
		return 0, errors.New("transaction outcome is required")
	}

	res, err := s.db.Exec(`
INSERT INTO receipts (tag, mode, from_address, to_address, amount, gratis, reference, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, string(tag), mode, out.From, out.To, out.Amount.String(), out.Gratis, out.Reference, s.now().UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("persist receipt: %w", err)
	}
	return res.LastInsertId()
}

// List returns the newest receipts first, for one tag or all when tag is empty.
func (s *Store) List(tag imparter.Tag, limit int) ([]Receipt, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("receipt store not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
SELECT id, tag, COALESCE(mode, ''), from_address, COALESCE(to_address, ''), amount, gratis, COALESCE(reference, ''), created_at
FROM receipts
WHERE ? = '' OR tag = ?
ORDER BY id DESC
LIMIT ?
`, string(tag), string(tag), limit)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	var out []Receipt
	for rows.Next() {
		var r Receipt
		var amount, created string
		if err := rows.Scan(&r.ID, &r.Tag, &r.Mode, &r.From, &r.To, &amount, &r.Gratis, &r.Reference, &created); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		if r.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("receipt %d amount: %w", r.ID, err)
		}
		if ts, err := time.Parse(timeLayout, created); err == nil {
			r.CreatedAt = ts
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
