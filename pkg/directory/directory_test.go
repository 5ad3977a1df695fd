package directory

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"luminachat/pkg/models"
	"luminachat/pkg/store"
)

func newTestDirectory(t *testing.T) (*Directory, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return New(mem, zap.NewNop()), mem
}

func TestLookup(t *testing.T) {
	d, _ := newTestDirectory(t)

	u, ok := d.Lookup("u1")
	require.True(t, ok)
	require.Equal(t, "Анна Смирнова", u.Name)

	agent, ok := d.Lookup(AgentUser.ID)
	require.True(t, ok)
	require.True(t, agent.IsAgent)

	_, ok = d.Lookup("nobody")
	require.False(t, ok)
}

func TestLookupFindsRememberedUsers(t *testing.T) {
	d, _ := newTestDirectory(t)
	stranger := models.User{ID: "x9", Name: "Stranger"}
	require.NoError(t, d.Remember(stranger))

	got, ok := d.Lookup("x9")
	require.True(t, ok)
	require.Equal(t, stranger, got)
}

func TestSearchMatchesCaseInsensitive(t *testing.T) {
	d, _ := newTestDirectory(t)

	got := d.Search("анна", nil)
	require.Len(t, got, 1)
	require.Equal(t, "u1", got[0].ID)

	require.Empty(t, d.Search("", nil))
	require.Empty(t, d.Search("zzz", nil))
}

func TestSearchExcludesExistingChats(t *testing.T) {
	d, _ := newTestDirectory(t)
	got := d.Search("анна", map[string]bool{"u1": true})
	require.Empty(t, got)
}

func TestRememberDeduplicatesByID(t *testing.T) {
	d, _ := newTestDirectory(t)
	u := models.User{ID: "x1", Name: "First"}
	require.NoError(t, d.Remember(u))

	// same id again, even with different fields, is ignored
	require.NoError(t, d.Remember(models.User{ID: "x1", Name: "Second"}))
	require.NoError(t, d.Remember(models.User{ID: "x2", Name: "Other"}))

	known := d.Known()
	require.Len(t, known, 2)
	require.Equal(t, "First", known[0].Name)
}

func TestCorruptRegistryTreatedAsEmpty(t *testing.T) {
	d, mem := newTestDirectory(t)
	require.NoError(t, mem.Set(store.KeyRegistry, "{{{"))
	require.Empty(t, d.Known())

	// and it heals on the next write
	require.NoError(t, d.Remember(models.User{ID: "x1", Name: "Fresh"}))
	require.Len(t, d.Known(), 1)
}
