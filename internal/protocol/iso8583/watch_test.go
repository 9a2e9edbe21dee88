package iso8583

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableWatcher_ReloadsOnWrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeDefs(t, dir, "atm.csv", csvPANAmount)

	r := NewTableRegistry()
	r.Register("ATM", path)
	initial, err := r.Table("ATM")
	require.NoError(t, err)
	require.Equal(t, 2, initial.Len())

	w, err := NewTableWatcher(r)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()
	require.NoError(t, w.Watch("atm"))

	writeDefs(t, dir, "atm.csv", csvWithResponseCode)
	require.Eventually(t, func() bool {
		tbl, err := r.Table("ATM")
		return err == nil && tbl.Len() == 3
	}, 3*time.Second, 50*time.Millisecond)
}

func TestTableWatcher_AtomicRename(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeDefs(t, dir, "atm.csv", csvPANAmount)

	r := NewTableRegistry()
	r.Register("ATM", path)
	_, err := r.Table("ATM")
	require.NoError(t, err)

	w, err := NewTableWatcher(r)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()
	require.NoError(t, w.Watch("ATM"))

	// Editors and config tooling replace files with write-temp-then-rename;
	// the directory watch has to catch the rename target.
	tmp := writeDefs(t, dir, "atm.csv.tmp", csvWithResponseCode)
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		tbl, err := r.Table("ATM")
		return err == nil && tbl.Len() == 3
	}, 3*time.Second, 50*time.Millisecond)
}

func TestTableWatcher_BrokenWriteKeepsServing(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeDefs(t, dir, "atm.csv", csvPANAmount)

	r := NewTableRegistry()
	r.Register("ATM", path)
	initial, err := r.Table("ATM")
	require.NoError(t, err)

	w, err := NewTableWatcher(r)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()
	require.NoError(t, w.Watch("ATM"))

	// A half-written or invalid file must not replace the served table.
	writeDefs(t, dir, "atm.csv", csvBroken)
	require.Never(t, func() bool {
		tbl, err := r.Table("ATM")
		return err != nil || tbl != initial
	}, 700*time.Millisecond, 50*time.Millisecond)

	// The watcher stays alive: the next good write swaps the table.
	writeDefs(t, dir, "atm.csv", csvWithResponseCode)
	require.Eventually(t, func() bool {
		tbl, err := r.Table("ATM")
		return err == nil && tbl.Len() == 3
	}, 3*time.Second, 50*time.Millisecond)
}

func TestTableWatcher_UnknownProvider(t *testing.T) {
	t.Parallel()

	w, err := NewTableWatcher(NewTableRegistry())
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	assert.ErrorIs(t, w.Watch("NOPE"), ErrUnknownProvider)
}

func TestTableWatcher_CloseStopsEventLoop(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeDefs(t, dir, "atm.csv", csvPANAmount)

	r := NewTableRegistry()
	r.Register("ATM", path)
	initial, err := r.Table("ATM")
	require.NoError(t, err)

	w, err := NewTableWatcher(r)
	require.NoError(t, err)
	require.NoError(t, w.Watch("ATM"))
	require.NoError(t, w.Close())

	// Writes after Close must not reload anything.
	writeDefs(t, dir, "atm.csv", csvWithResponseCode)
	require.Never(t, func() bool {
		tbl, err := r.Table("ATM")
		return err != nil || tbl != initial
	}, 700*time.Millisecond, 50*time.Millisecond)
}
