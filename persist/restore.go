package persist

import (
	"strconv"
	"strings"

	"github.com/transitdb/transit/construct"
	"github.com/transitdb/transit/datatype"
	"github.com/transitdb/transit/errors"
	"github.com/transitdb/transit/identity"
	"github.com/transitdb/transit/store"
)

// Restore repopulates an empty Database from durable storage: identities
// first (so no freshly-generated identity can collide with a restored
// one), then roles (appearances reference them by thing id), then posits
// (appearance sets reference roles). Callers must call
// db.SeedReservedRoles() only after Restore returns, so a restored
// reserved role is recognized as "already kept" rather than recreated.
func (s *Store) Restore(db *store.Database) error {
	if err := s.restoreIdentities(db); err != nil {
		return err
	}
	if err := s.restoreRoles(db); err != nil {
		return err
	}
	if err := s.restorePosits(db); err != nil {
		return err
	}
	return nil
}

func (s *Store) restoreIdentities(db *store.Database) error {
	rows, err := s.db.Query(`SELECT thing_id FROM Thing ORDER BY thing_id`)
	if err != nil {
		return errors.Wrap(errors.Persistence, err, "restoring identities")
	}
	defer rows.Close()
	for rows.Next() {
		var t identity.Thing
		if err := rows.Scan(&t); err != nil {
			return errors.Wrap(errors.DataCorruption, err, "scanning Thing row")
		}
		db.ThingGenerator.Retain(t)
	}
	return rows.Err()
}

func (s *Store) restoreRoles(db *store.Database) error {
	rows, err := s.db.Query(`SELECT role_id, name, reserved FROM Role ORDER BY role_id`)
	if err != nil {
		return errors.Wrap(errors.Persistence, err, "restoring roles")
	}
	defer rows.Close()
	for rows.Next() {
		var id identity.Thing
		var name string
		var reserved int
		if err := rows.Scan(&id, &name, &reserved); err != nil {
			return errors.Wrap(errors.DataCorruption, err, "scanning Role row")
		}
		db.KeepRole(construct.NewRole(id, name, reserved != 0))
	}
	return rows.Err()
}

func (s *Store) restorePosits(db *store.Database) error {
	rows, err := s.db.Query(`SELECT posit_id, appearance_set_text, value_text, value_dt_id, time_text FROM Posit ORDER BY posit_id`)
	if err != nil {
		return errors.Wrap(errors.Persistence, err, "restoring posits")
	}
	defer rows.Close()
	for rows.Next() {
		var id identity.Thing
		var asetText, valueText, timeText string
		var dtID int
		if err := rows.Scan(&id, &asetText, &valueText, &dtID, &timeText); err != nil {
			return errors.Wrap(errors.DataCorruption, err, "scanning Posit row")
		}
		aset, err := parseAppearanceSet(db, asetText)
		if err != nil {
			return err
		}
		value, err := deserializeValue(datatype.Kind(dtID), valueText)
		if err != nil {
			return err
		}
		t, err := datatype.ParseTimeLiteral(timeText)
		if err != nil {
			return errors.Wrap(errors.DataCorruption, err, "restoring posit time")
		}
		keptAset, _ := db.KeepAppearanceSet(aset)
		db.KeepPosit(construct.NewPosit(id, keptAset, value, t))
	}
	return rows.Err()
}

// parseAppearanceSet reconstructs an AppearanceSet from its Serialize()
// text ("thing_id,role_id|thing_id,role_id|..."), resolving each role
// through the already-restored RoleKeeper.
func parseAppearanceSet(db *store.Database, text string) (*construct.AppearanceSet, error) {
	pairs := strings.Split(text, "|")
	appearances := make([]*construct.Appearance, 0, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(pair, ",", 2)
		if len(parts) != 2 {
			return nil, errors.Newf(errors.DataCorruption, "malformed appearance set text %q", text)
		}
		thingID, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, errors.Wrap(errors.DataCorruption, err, "parsing appearance thing id")
		}
		roleID, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return nil, errors.Wrap(errors.DataCorruption, err, "parsing appearance role id")
		}
		role, ok := db.RoleKeeper.Lookup(roleID)
		if !ok {
			return nil, errors.Newf(errors.DataCorruption, "appearance set references unknown role %d", roleID)
		}
		a, _ := db.KeepAppearance(construct.NewAppearance(thingID, role))
		appearances = append(appearances, a)
	}
	aset, ok := construct.NewAppearanceSet(appearances)
	if !ok {
		return nil, errors.Newf(errors.DataCorruption, "appearance set text %q has duplicate roles", text)
	}
	return aset, nil
}
