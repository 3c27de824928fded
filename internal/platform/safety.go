package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// devDirName is the directory under os.TempDir() used for sandboxed databases.
const devDirName = "notes-dev"

// IsDevRun checks if the current process is running via `go run` or `go test`.
// It relies on the fact that these commands build binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveDatabasePath returns the database file to open. With forceTemp, a
// path outside the system temp directory is re-rooted into <temp>/notes-dev,
// keeping only its base name.
func ResolveDatabasePath(userPath string, forceTemp bool) string {
	if userPath == "" {
		userPath = "notes.db"
	}
	if !forceTemp {
		return userPath
	}

	clean := filepath.Clean(userPath)
	if rel, err := filepath.Rel(os.TempDir(), clean); err == nil && filepath.IsAbs(clean) && !strings.HasPrefix(rel, "..") {
		return clean
	}

	name := filepath.Base(clean)
	if name == "." || name == string(os.PathSeparator) {
		name = "notes.db"
	}
	return filepath.Join(os.TempDir(), devDirName, name)
}
