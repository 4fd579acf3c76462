package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/transitdb/transit/construct"
	"github.com/transitdb/transit/datatype"
)

func TestIndexPositPopulatesAllIndexes(t *testing.T) {
	rk := construct.NewRoleKeeper()
	ak := construct.NewAppearanceKeeper()
	ask := construct.NewAppearanceSetKeeper()
	pk := construct.NewPositKeeper()
	idx := New()

	role, _ := rk.Keep(construct.NewRole(1, "name", false))
	app, _ := ak.Keep(construct.NewAppearance(5, role))
	idx.IndexAppearance(app)
	set, _ := construct.NewAppearanceSet([]*construct.Appearance{app})
	kept, _ := ask.Keep(set)
	idx.IndexAppearanceSet(kept)

	now := datatype.NewDate(2024, 1, 1)
	p, _ := pk.Keep(construct.NewPosit(100, kept, datatype.String("Alice"), now))
	idx.IndexPosit(p)

	require.True(t, idx.RolePosits.Lookup(role.Thing()).Contains(100))
	require.True(t, idx.AppearanceSetPosits.Lookup(kept).Contains(100))
	gotSet, ok := idx.PositAppearanceSet.Get(100)
	require.True(t, ok)
	require.Same(t, kept, gotSet)
	gotTime, ok := idx.PositTime.Get(100)
	require.True(t, ok)
	require.True(t, gotTime.Equal(now))
	require.Contains(t, idx.RoleNamesValueType.Kinds([]string{"NAME"}), datatype.KindString)
	require.Len(t, idx.ThingAppearances.Lookup(5), 1)
}

func TestRoleAppearancesOnlyIndexesReservedRoles(t *testing.T) {
	rk := construct.NewRoleKeeper()
	ak := construct.NewAppearanceKeeper()
	idx := New()

	plain, _ := rk.Keep(construct.NewRole(1, "husband", false))
	reserved, _ := rk.Keep(construct.NewRole(2, "classification", true))

	plainApp, _ := ak.Keep(construct.NewAppearance(10, plain))
	reservedApp, _ := ak.Keep(construct.NewAppearance(20, reserved))

	idx.IndexAppearance(plainApp)
	idx.IndexAppearance(reservedApp)

	require.Empty(t, idx.RoleAppearances.Lookup(plain.Thing()))
	require.Len(t, idx.RoleAppearances.Lookup(reserved.Thing()), 1)
}
