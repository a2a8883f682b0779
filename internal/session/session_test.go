package session

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadDelete(t *testing.T) {
	m := NewManagerWithConfigDir(t.TempDir())

	state := &State{FileID: "F1", FileName: "report.pdf", Email: "alice@example.com", PermissionID: "P9"}
	require.NoError(t, m.Save(state, time.Hour))
	assert.False(t, state.CreatedDateTime.IsZero())
	assert.Equal(t, state.CreatedDateTime.Add(time.Hour), state.ExpirationDateTime)

	loaded, err := m.Load("report.pdf", "Alice@Example.com")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "F1", loaded.FileID)
	assert.Equal(t, "P9", loaded.PermissionID)

	info, err := os.Stat(m.GetSessionFilePath("report.pdf", "alice@example.com"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, m.Delete("report.pdf", "alice@example.com"))
	loaded, err = m.Load("report.pdf", "alice@example.com")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	require.NoError(t, m.Delete("report.pdf", "alice@example.com"), "deleting twice is not an error")
}

func TestLoadMissing(t *testing.T) {
	m := NewManagerWithConfigDir(t.TempDir())

	state, err := m.Load("nothing", "bob@example.com")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestLoadExpired(t *testing.T) {
	m := NewManagerWithConfigDir(t.TempDir())
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Save(&State{FileID: "F1", FileName: "a", Email: "b@example.com", PermissionID: "P1"}, time.Minute))

	now = now.Add(2 * time.Minute)
	state, err := m.Load("a", "b@example.com")
	require.NoError(t, err)
	assert.Nil(t, state)
	assert.NoFileExists(t, m.GetSessionFilePath("a", "b@example.com"))
}

func TestSessionFilePathDistinguishesRecipients(t *testing.T) {
	m := NewManagerWithConfigDir("/tmp/x")

	assert.NotEqual(t, m.GetSessionFilePath("a", "b@example.com"), m.GetSessionFilePath("a", "c@example.com"))
	assert.Equal(t, m.GetSessionFilePath("a", "B@example.com"), m.GetSessionFilePath("a", "b@example.com"))
}

func TestLoadCorrupt(t *testing.T) {
	m := NewManagerWithConfigDir(t.TempDir())
	path := m.GetSessionFilePath("a", "b@example.com")
	require.NoError(t, os.MkdirAll(m.getSessionDir(), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	_, err := m.Load("a", "b@example.com")
	assert.Error(t, err)
}
