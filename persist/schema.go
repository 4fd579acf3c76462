package persist

import (
	"context"

	"github.com/transitdb/transit/datatype"
	"github.com/transitdb/transit/errors"
)

// schemaDDL creates the six tables: Thing, Role, DataType,
// Posit, PositHash, and LedgerHead. Posit's natural key is the triple
// (appearance_set_text, value_text, time_text); it is unique so that a
// crash-restarted writer retrying the same CreatePosit call cannot double
// a row (the keeper's own Keep has already deduplicated the in-memory
// construct by the time PersistPosit runs, so this constraint is a second,
// durable line of defense rather than the primary dedup path).
const schemaDDL = `
CREATE TABLE IF NOT EXISTS Thing (
	thing_id INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS Role (
	role_id  INTEGER PRIMARY KEY,
	name     TEXT NOT NULL,
	reserved INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS role_name_reserved ON Role(name, reserved);

CREATE TABLE IF NOT EXISTS DataType (
	dt_id INTEGER PRIMARY KEY,
	tag   TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS Posit (
	posit_id            INTEGER PRIMARY KEY,
	appearance_set_text TEXT NOT NULL,
	value_text          TEXT NOT NULL,
	value_dt_id         INTEGER NOT NULL REFERENCES DataType(dt_id),
	time_text           TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS posit_natural_key ON Posit(appearance_set_text, value_text, time_text);

CREATE TABLE IF NOT EXISTS PositHash (
	posit_id  INTEGER PRIMARY KEY REFERENCES Posit(posit_id),
	prev_hash TEXT NOT NULL,
	hash      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS LedgerHead (
	name      TEXT PRIMARY KEY,
	head_hash TEXT NOT NULL,
	count     INTEGER NOT NULL
);
`

// catalog is the closed set of value kinds seeded into DataType on schema
// init, so restore can translate a stored dt_id back into a datatype.Kind
// without guessing.
var catalog = []datatype.Kind{
	datatype.KindCertainty,
	datatype.KindString,
	datatype.KindI64,
	datatype.KindDecimal,
	datatype.KindJSON,
	datatype.KindTime,
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return errors.Wrap(errors.Persistence, err, "creating schema")
	}
	for _, k := range catalog {
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO DataType(dt_id, tag) VALUES(?,?)`, int(k), k.Tag()); err != nil {
			return errors.Wrap(errors.Persistence, err, "seeding data type catalog")
		}
	}
	return nil
}
