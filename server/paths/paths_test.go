package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathManager(t *testing.T) {
	pm := NewManager("/tmp/test")
	require.NotNil(t, pm)

	assert.Equal(t, "/tmp/test", pm.GetBasePath())
	assert.Equal(t, "/tmp/test/database", pm.GetDatabaseDir())
	assert.Equal(t, "/tmp/test/database/sqllab.db", pm.GetDatabasePath())
	assert.Equal(t, "/tmp/test/sqllab.log", pm.GetLogPath())
	assert.Equal(t, "/tmp/test/sqllab.yml", pm.GetConfigPath("sqllab.yml"))
}

func TestDefault(t *testing.T) {
	assert.True(t, strings.HasSuffix(Default().GetBasePath(), HomeDirName))
}

func TestEnsureDirectoryStructure(t *testing.T) {
	pm := NewManager(filepath.Join(t.TempDir(), "lab"))
	require.NoError(t, pm.EnsureDirectoryStructure())

	info, err := os.Stat(pm.GetDatabaseDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// idempotent
	require.NoError(t, pm.EnsureDirectoryStructure())
}
