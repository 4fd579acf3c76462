// Package persist implements an integrity-chained durable persistence
// layer: a SQLite schema, an append-only BLAKE3 hash chain over stored
// posits, and the startup rehydration / verify-and-backfill sequence. The
// query style (parameterized SQL over a thin wrapper, one statement per
// call) favors that over an ORM, since the schema here is small and
// fixed.
package persist

import (
	"context"
	"database/sql"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/transitdb/transit/construct"
	"github.com/transitdb/transit/errors"
	"github.com/transitdb/transit/identity"
)

// genesisHash is the 64-zero-character prev_hash of the first chain entry.
const genesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Mode distinguishes an in-memory (no durable writes survive process exit)
// store from a file-backed one.
type Mode int

const (
	InMemory Mode = iota
	File
)

// Store is a SQLite-backed durable store implementing store.Persistor.
// PersistPosit holds mu so that the hash chain's insertion order matches
// posit_id ascending; PersistThing and PersistRole do not take mu (they do
// not touch the chain).
type Store struct {
	db   *sql.DB
	mode Mode

	mu       sync.Mutex
	headHash string
	count    int64
}

// Open opens (and initializes, if new) a durable store. path == "" or
// ":memory:" selects InMemory mode; any other path selects File mode, with
// write-ahead logging and a busy timeout enabled. The
// connection pool is capped at one connection: ":memory:" SQLite databases
// are per-connection, so a shared single connection is required just to see
// a consistent database, and a single writer also avoids SQLITE_BUSY under
// concurrent access without a second serialization layer.
func Open(path string) (*Store, error) {
	mode := File
	if path == "" || path == ":memory:" {
		mode = InMemory
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.Config, err, "opening sqlite store")
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, mode: mode, headHash: genesisHash}
	if mode == File {
		if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
			return nil, errors.Wrap(errors.Config, err, "enabling WAL")
		}
		if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
			return nil, errors.Wrap(errors.Config, err, "setting busy timeout")
		}
	}
	if err := s.initSchema(context.Background()); err != nil {
		return nil, err
	}
	if err := s.loadHead(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// CurrentSuperhash returns the hash of the most recently appended chain
// entry, or the genesis hash if the chain is empty.
func (s *Store) CurrentSuperhash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headHash
}

// Count returns the number of chain entries appended so far.
func (s *Store) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Store) loadHead(ctx context.Context) error {
	row := s.db.QueryRowContext(ctx, `SELECT head_hash, count FROM LedgerHead WHERE name = 'PositLedger'`)
	var head string
	var count int64
	if err := row.Scan(&head, &count); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return errors.Wrap(errors.Persistence, err, "loading ledger head")
	}
	s.headHash, s.count = head, count
	return nil
}

// PersistThing implements store.Persistor.
func (s *Store) PersistThing(t identity.Thing) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO Thing(thing_id) VALUES(?)`, t)
	if err != nil {
		return errors.Wrap(errors.Persistence, err, "persisting thing")
	}
	return nil
}

// PersistRole implements store.Persistor.
func (s *Store) PersistRole(r *construct.Role) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO Role(role_id, name, reserved) VALUES(?,?,?)`,
		r.Thing(), r.Name(), boolToInt(r.Reserved()))
	if err != nil {
		return errors.Wrap(errors.Persistence, err, "persisting role")
	}
	return nil
}

// PersistPosit implements store.Persistor: inserts the posit row (if not
// already present) and appends one link to the BLAKE3 hash chain, under
// the serializing mutex.
func (s *Store) PersistPosit(p *construct.Posit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	asetText := p.AppearanceSet().Serialize()
	valueText := serializeValue(p.Value())
	timeText := p.Time().String()
	dtID := int(p.Value().Kind())

	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO Posit(posit_id, appearance_set_text, value_text, value_dt_id, time_text) VALUES(?,?,?,?,?)`,
		p.Thing(), asetText, valueText, dtID, timeText)
	if err != nil {
		return errors.Wrap(errors.Persistence, err, "persisting posit")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(errors.Persistence, err, "checking posit insert")
	}
	if n == 0 {
		return nil // already persisted by an earlier, idempotent retry
	}
	return s.appendHashLocked(p.Thing(), asetText, dtID, valueText, timeText)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
