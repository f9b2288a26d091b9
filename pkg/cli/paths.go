package cli

import (
	"os"
	"path/filepath"
)

const (
	// ConfigDirEnv overrides the application directory.
	ConfigDirEnv = "ECHOPRINT_CONFIG_DIR"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Paths provides access to the echoprint directory structure
type Paths struct {
	// AppDir is the root of the per-user directory.
	AppDir string
}

// NewPaths resolves the application directory: $ECHOPRINT_CONFIG_DIR if
// set, otherwise <user config dir>/<appName>.
func NewPaths(appName string) (*Paths, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return &Paths{AppDir: dir}, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &Paths{AppDir: filepath.Join(base, appName)}, nil
}

// ConfigFile returns <app dir>/config.yaml.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.AppDir, DefaultConfigFile)
}

// HistoryDir returns <app dir>/history, the default journal location.
func (p *Paths) HistoryDir() string {
	return filepath.Join(p.AppDir, "history")
}

// EnsureAppDir creates the app directory if it doesn't exist
func (p *Paths) EnsureAppDir() error {
	return os.MkdirAll(p.AppDir, 0755)
}
