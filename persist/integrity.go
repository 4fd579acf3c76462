package persist

import (
	"github.com/transitdb/transit/errors"
	"github.com/transitdb/transit/identity"
)

// IntegrityReport summarizes one VerifyAndBackfillIntegrity pass.
type IntegrityReport struct {
	PositCount        int64
	BackfilledCount   int64 // chain links written because PositHash was empty or short
	MismatchCount     int64
	FirstMismatchID   identity.Thing
	HasMismatch       bool
}

type positRow struct {
	id        identity.Thing
	asetText  string
	valueText string
	dtID      int
	timeText  string
}

// VerifyAndBackfillIntegrity recomputes the BLAKE3 hash chain over every
// Posit row, in posit_id order, and reconciles it against PositHash.
// Three cases:
//
//   - PositHash is empty and Posit is not: the chain was never built (or was
//     wiped). Recompute and insert every link from genesis, then set
//     LedgerHead to the final hash.
//   - PositHash already covers every posit: recompute each link against the
//     stored prev_hash chain and compare; mismatches are reported but not
//     silently rewritten, since a divergent hash means the stored value
//     changed underneath the chain, which is exactly what the chain exists
//     to catch.
//   - PositHash covers a strict prefix of Posit (a partial backfill, e.g.
//     the process died mid-write): verify the existing prefix, then
//     continue appending from where it left off.
func (s *Store) VerifyAndBackfillIntegrity() (*IntegrityReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT posit_id, appearance_set_text, value_text, value_dt_id, time_text FROM Posit ORDER BY posit_id`)
	if err != nil {
		return nil, errors.Wrap(errors.Persistence, err, "reading posits for integrity check")
	}
	var posits []positRow
	for rows.Next() {
		var r positRow
		if err := rows.Scan(&r.id, &r.asetText, &r.valueText, &r.dtID, &r.timeText); err != nil {
			rows.Close()
			return nil, errors.Wrap(errors.DataCorruption, err, "scanning posit for integrity check")
		}
		posits = append(posits, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.Persistence, err, "reading posits for integrity check")
	}
	rows.Close()

	existing, err := s.loadHashChain()
	if err != nil {
		return nil, err
	}

	report := &IntegrityReport{PositCount: int64(len(posits))}
	prev := genesisHash
	for _, p := range posits {
		want := chainHash(chainInput(p.id, p.asetText, p.dtID, p.valueText, p.timeText, prev))
		if have, ok := existing[p.id]; ok {
			if have.prev != prev || have.hash != want {
				report.MismatchCount++
				if !report.HasMismatch {
					report.HasMismatch = true
					report.FirstMismatchID = p.id
				}
				// Keep walking the chain as stored (not as recomputed) so a
				// single corrupted link doesn't cascade into false positives
				// for every posit after it.
				prev = have.hash
				continue
			}
			prev = want
			continue
		}
		if _, err := s.db.Exec(`INSERT INTO PositHash(posit_id, prev_hash, hash) VALUES(?,?,?)`, p.id, prev, want); err != nil {
			return nil, errors.Wrap(errors.Persistence, err, "backfilling hash chain link")
		}
		report.BackfilledCount++
		prev = want
	}

	count := int64(len(posits))
	if _, err := s.db.Exec(
		`INSERT INTO LedgerHead(name, head_hash, count) VALUES('PositLedger', ?, ?)
		 ON CONFLICT(name) DO UPDATE SET head_hash = excluded.head_hash, count = excluded.count`,
		prev, count); err != nil {
		return nil, errors.Wrap(errors.Persistence, err, "updating ledger head after integrity check")
	}
	s.headHash, s.count = prev, count

	return report, nil
}

type hashLink struct {
	prev string
	hash string
}

func (s *Store) loadHashChain() (map[identity.Thing]hashLink, error) {
	rows, err := s.db.Query(`SELECT posit_id, prev_hash, hash FROM PositHash`)
	if err != nil {
		return nil, errors.Wrap(errors.Persistence, err, "reading hash chain")
	}
	defer rows.Close()
	out := make(map[identity.Thing]hashLink)
	for rows.Next() {
		var id identity.Thing
		var link hashLink
		if err := rows.Scan(&id, &link.prev, &link.hash); err != nil {
			return nil, errors.Wrap(errors.DataCorruption, err, "scanning hash chain row")
		}
		out[id] = link
	}
	return out, rows.Err()
}
