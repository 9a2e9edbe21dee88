package iso8583

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// FieldTable
// ============================================================================

func TestNewFieldTable_AppliesPaddingDefaults(t *testing.T) {
	t.Parallel()

	tbl, err := NewFieldTable(" fisc ", []*FieldDef{
		{Number: 4, Name: "AMOUNT", Type: TypeNumeric, LengthType: Fixed, Length: 12, DataEncoding: BCD, LengthEncoding: BCD},
		{Number: 41, Name: "TERMINAL_ID", Type: TypeAlphaNumericSpecial, LengthType: Fixed, Length: 8, DataEncoding: ASCII, LengthEncoding: BCD},
	})
	require.NoError(t, err)
	assert.Equal(t, "FISC", tbl.Provider())

	amount, ok := tbl.Get(4)
	require.True(t, ok)
	assert.Equal(t, byte('0'), amount.PadChar)
	assert.True(t, amount.LeftPad)

	term, ok := tbl.Get(41)
	require.True(t, ok)
	assert.Equal(t, byte(' '), term.PadChar)
	assert.False(t, term.LeftPad)
}

func TestNewFieldTable_RejectsInvalidDefinition(t *testing.T) {
	t.Parallel()

	_, err := NewFieldTable("FISC", []*FieldDef{
		{Number: 1, Name: "X", Type: TypeNumeric, LengthType: Fixed, Length: 6, DataEncoding: BCD, LengthEncoding: BCD},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "outside 2..128")

	var te *TableError
	assert.ErrorAs(t, err, &te)
}

func TestNewFieldTable_CopiesDefinitions(t *testing.T) {
	t.Parallel()

	def := &FieldDef{Number: 4, Name: "AMOUNT", Type: TypeNumeric, LengthType: Fixed, Length: 12, DataEncoding: BCD, LengthEncoding: BCD}
	tbl, err := NewFieldTable("FISC", []*FieldDef{def})
	require.NoError(t, err)

	// Mutating the caller's definition must not reach the table.
	def.Length = 99
	got, ok := tbl.Get(4)
	require.True(t, ok)
	assert.Equal(t, 12, got.Length)
}

func TestFieldTable_Accessors(t *testing.T) {
	t.Parallel()

	tbl := DefaultTable()

	_, ok := tbl.Get(2)
	assert.True(t, ok)
	_, ok = tbl.Get(5)
	assert.False(t, ok)

	fields := tbl.Fields()
	assert.Len(t, fields, tbl.Len())
	assert.True(t, sort.IntsAreSorted(fields))

	// All hands out copies; editing them leaves the table alone.
	all := tbl.All()
	all[2].Length = 1
	orig, _ := tbl.Get(2)
	assert.Equal(t, 19, orig.Length)
}

// ============================================================================
// TableRegistry
// ============================================================================

func TestTableRegistry_LazyLoadAndCache(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	r := NewTableRegistry()

	// Register records the source without touching the file: it does not
	// have to exist until the first Table call.
	path := filepath.Join(dir, "atm.csv")
	r.Register("ATM", path)
	src, ok := r.Source("ATM")
	require.True(t, ok)
	assert.Equal(t, path, src)

	writeDefs(t, dir, "atm.csv", csvPANAmount)
	tbl, err := r.Table("ATM")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	again, err := r.Table("ATM")
	require.NoError(t, err)
	assert.Same(t, tbl, again)

	// Editing the file alone changes nothing until Reload swaps the table.
	writeDefs(t, dir, "atm.csv", csvWithResponseCode)
	cached, err := r.Table("ATM")
	require.NoError(t, err)
	assert.Same(t, tbl, cached)

	require.NoError(t, r.Reload("ATM"))
	fresh, err := r.Table("ATM")
	require.NoError(t, err)
	assert.NotSame(t, tbl, fresh)
	assert.Equal(t, 3, fresh.Len())
}

func TestTableRegistry_CaseInsensitiveNames(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeDefs(t, dir, "atm.csv", csvPANAmount)

	r := NewTableRegistry()
	r.Register("atm", path)

	tbl, err := r.Table("ATM")
	require.NoError(t, err)
	assert.Equal(t, "ATM", tbl.Provider())

	mixed, err := r.Table(" Atm ")
	require.NoError(t, err)
	assert.Same(t, tbl, mixed)

	_, ok := r.Source("aTm")
	assert.True(t, ok)
	assert.Equal(t, []string{"ATM"}, r.Providers())
}

func TestTableRegistry_UnknownProvider(t *testing.T) {
	t.Parallel()

	r := NewTableRegistry()

	_, err := r.Table("NOPE")
	assert.ErrorIs(t, err, ErrUnknownProvider)
	assert.ErrorContains(t, err, `"NOPE"`)

	assert.ErrorIs(t, r.Reload("NOPE"), ErrUnknownProvider)

	_, ok := r.Source("NOPE")
	assert.False(t, ok)
}

func TestTableRegistry_ReloadFailureKeepsPrevious(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeDefs(t, dir, "atm.csv", csvPANAmount)

	r := NewTableRegistry()
	r.Register("ATM", path)
	tbl, err := r.Table("ATM")
	require.NoError(t, err)

	writeDefs(t, dir, "atm.csv", csvBroken)
	err = r.Reload("ATM")
	require.Error(t, err)
	assert.ErrorContains(t, err, "unknown field type")

	kept, err := r.Table("ATM")
	require.NoError(t, err)
	assert.Same(t, tbl, kept)
}

func TestTableRegistry_RegisterTable(t *testing.T) {
	t.Parallel()

	r := NewTableRegistry()
	r.RegisterTable(DefaultTable())

	tbl, err := r.Table("fisc")
	require.NoError(t, err)
	assert.Same(t, DefaultTable(), tbl)
}

func TestTableRegistry_RegisterReplacesSourceAndDropsCache(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	first := writeDefs(t, dir, "v1.csv", csvPANAmount)
	second := writeDefs(t, dir, "v2.csv", csvWithResponseCode)

	r := NewTableRegistry()
	r.Register("ATM", first)
	tbl, err := r.Table("ATM")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	r.Register("ATM", second)
	swapped, err := r.Table("ATM")
	require.NoError(t, err)
	assert.Equal(t, 3, swapped.Len())
}

func TestTableRegistry_Clear(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeDefs(t, dir, "atm.csv", csvPANAmount)

	r := NewTableRegistry()
	r.Register("ATM", path)
	r.RegisterTable(DefaultTable())
	assert.Equal(t, []string{"ATM", "FISC"}, r.Providers())

	r.Clear()
	assert.Empty(t, r.Providers())
	_, err := r.Table("ATM")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
