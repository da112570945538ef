package paths

import (
	"os"
	"path/filepath"

	"github.com/gear6io/sqllab/pkg/errors"
)

const (
	// HomeDirName is the directory created under the user's home
	HomeDirName = ".sqllab"

	databaseDir  = "database"
	databaseFile = "sqllab.db"
	logFile      = "sqllab.log"
)

// Manager resolves where the lab keeps its files
type Manager struct {
	basePath string
}

// NewManager creates a new path manager
func NewManager(basePath string) *Manager {
	return &Manager{
		basePath: basePath,
	}
}

// Default returns a manager rooted at ~/.sqllab, falling back to the
// temp directory when the home directory is unknown
func Default() *Manager {
	home, err := os.UserHomeDir()
	if err != nil {
		return NewManager(filepath.Join(os.TempDir(), HomeDirName))
	}
	return NewManager(filepath.Join(home, HomeDirName))
}

// GetBasePath returns the base data path
func (pm *Manager) GetBasePath() string {
	return pm.basePath
}

// GetDatabaseDir returns the directory holding the sandbox database
func (pm *Manager) GetDatabaseDir() string {
	return filepath.Join(pm.basePath, databaseDir)
}

// GetDatabasePath returns the sandbox database file
func (pm *Manager) GetDatabasePath() string {
	return filepath.Join(pm.GetDatabaseDir(), databaseFile)
}

// GetLogPath returns the log file
func (pm *Manager) GetLogPath() string {
	return filepath.Join(pm.basePath, logFile)
}

// GetConfigPath returns the per-user configuration file
func (pm *Manager) GetConfigPath(name string) string {
	return filepath.Join(pm.basePath, name)
}

// EnsureDirectoryStructure creates all necessary directories
func (pm *Manager) EnsureDirectoryStructure() error {
	dirs := []string{
		pm.basePath,
		pm.GetDatabaseDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.New(ErrDirectoryCreationFailed, "failed to create directory", err).AddContext("directory", dir)
		}
	}

	return nil
}
