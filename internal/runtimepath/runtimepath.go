package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "taskbarwidget"

// Dir returns the runtime directory used for the control socket. Priority:
// 1) %LOCALAPPDATA%\taskbarwidget on Windows (created)
// 2) XDG_RUNTIME_DIR (if set)
// 3) /run/user/<uid> (if present)
// 4) /tmp/taskbarwidget-runtime-<uid> (created)
func Dir() (string, error) {
	if runtime.GOOS == "windows" {
		return windowsDir()
	}

	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	uid := os.Getuid()
	runUserDir := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
		return runUserDir, nil
	}

	tmpDir := fmt.Sprintf("/tmp/%s-runtime-%d", appName, uid)
	if err := os.MkdirAll(tmpDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return tmpDir, nil
}

func windowsDir() (string, error) {
	base := os.Getenv("LOCALAPPDATA")
	if base == "" {
		var err error
		base, err = os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve local app data: %w", err)
		}
	}
	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return dir, nil
}

// SocketPath returns the daemon IPC socket path.
func SocketPath() (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, appName+".sock"), nil
}
