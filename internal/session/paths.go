// Package session resolves the on-disk layout, name and identity of a
// jobdesk session. A session is one backend account on one machine.
package session

import (
	"os"
	"path/filepath"
)

// EnvHome overrides the base directory.
const EnvHome = "JOBDESK_HOME"

// BaseDir returns $JOBDESK_HOME or ~/.jobdesk.
func BaseDir() string {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".jobdesk")
}

// Dir returns the session-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "sessions", name)
}

// SocketPath returns the daemon health socket for a session.
func SocketPath(name string) string {
	return filepath.Join(Dir(name), "daemon.sock")
}

// LockPath returns the lock file path for a session.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// ProfilePath returns the session profile path.
func ProfilePath(name string) string {
	return filepath.Join(Dir(name), "profile.toml")
}

// DBPath returns the notification snapshot database path.
func DBPath(name string) string {
	return filepath.Join(Dir(name), "jobdesk.db")
}

// LogDir returns the log directory for a session.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the daemon log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "jobdeskd.log")
}

// TUILogPath returns the terminal UI log file path.
func TUILogPath(name string) string {
	return filepath.Join(LogDir(name), "tui.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the session directory tree with owner-only permissions.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
