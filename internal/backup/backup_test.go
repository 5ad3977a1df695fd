package backup

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"luminachat/pkg/store"
)

func TestNewValidatesCron(t *testing.T) {
	mem := store.NewMemory()

	_, err := New(mem, "not a cron", 3, zap.NewNop())
	require.Error(t, err)

	s, err := New(mem, "", 0, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, "0 2 * * *", s.cron)
	require.Equal(t, 1, s.keep)
}

func TestRunOnceNoSnapshot(t *testing.T) {
	mem := store.NewMemory()
	s, err := New(mem, "* * * * *", 3, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.RunOnce())

	keys, err := mem.ListKeys(store.KeyBackupPrefix)
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestRunOnceCopiesSnapshot(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, mem.Set(store.KeyChats, `[{"id":"c1"}]`))

	s, err := New(mem, "* * * * *", 3, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.RunOnce())

	keys, err := mem.ListKeys(store.KeyBackupPrefix)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.True(t, strings.HasPrefix(keys[0], store.KeyBackupPrefix))

	raw, err := mem.Get(keys[0])
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"c1"}]`, raw)
}

func TestPruneKeepsNewest(t *testing.T) {
	mem := store.NewMemory()
	require.NoError(t, mem.Set(store.KeyChats, `[]`))

	s, err := New(mem, "* * * * *", 2, zap.NewNop())
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RunOnce())
		keys, err := mem.ListKeys(store.KeyBackupPrefix)
		require.NoError(t, err)
		require.LessOrEqual(t, len(keys), 2)
		for _, k := range keys {
			seen[k] = true
		}
	}
	require.Greater(t, len(seen), 2)

	// the survivors must be the newest of everything ever written
	all := make([]string, 0, len(seen))
	for k := range seen {
		all = append(all, k)
	}
	sort.Strings(all)

	keys, err := mem.ListKeys(store.KeyBackupPrefix)
	require.NoError(t, err)
	require.Equal(t, all[len(all)-2:], keys)
}
