package persist

import (
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"

	"github.com/transitdb/transit/errors"
	"github.com/transitdb/transit/identity"
)

// chainInput renders the exact byte string hashed into one PositHash link:
// "{posit_id}|{appearance_set_text}|{value_dt_id}|{value_text}|{time_text}|prev={prev_hash}".
func chainInput(positID identity.Thing, asetText string, dtID int, valueText, timeText, prev string) string {
	return fmt.Sprintf("%d|%s|%d|%s|%s|prev=%s", positID, asetText, dtID, valueText, timeText, prev)
}

func chainHash(input string) string {
	sum := blake3.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// appendHashLocked computes and stores the next chain link, then advances
// the in-memory head. Callers must hold s.mu.
func (s *Store) appendHashLocked(positID identity.Thing, asetText string, dtID int, valueText, timeText string) error {
	prev := s.headHash
	hash := chainHash(chainInput(positID, asetText, dtID, valueText, timeText, prev))

	if _, err := s.db.Exec(`INSERT INTO PositHash(posit_id, prev_hash, hash) VALUES(?,?,?)`,
		positID, prev, hash); err != nil {
		return errors.Wrap(errors.Persistence, err, "appending hash chain link")
	}
	count := s.count + 1
	if _, err := s.db.Exec(
		`INSERT INTO LedgerHead(name, head_hash, count) VALUES('PositLedger', ?, ?)
		 ON CONFLICT(name) DO UPDATE SET head_hash = excluded.head_hash, count = excluded.count`,
		hash, count); err != nil {
		return errors.Wrap(errors.Persistence, err, "advancing ledger head")
	}
	s.headHash, s.count = hash, count
	return nil
}
