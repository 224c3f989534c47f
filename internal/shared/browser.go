package shared

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

var getRuntime = func() string { return runtime.GOOS }

// startCommand launches the platform opener without waiting on it.
var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// OpenBrowser hands target to the system's default handler.
//
// target may be a URL or a local file path; paths are converted to file:// URIs.
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(target string) error {
	uri := FileURI(target)

	var name string
	var args []string
	rt := getRuntime()
	switch rt {
	case "darwin":
		name, args = "open", []string{uri}
	case "linux":
		name, args = "xdg-open", []string{uri}
	case "windows":
		name, args = "cmd", []string{"/c", "start", uri}
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := startCommand(name, args...); err != nil {
		return fmt.Errorf("failed to open %s: %w", uri, err)
	}

	return nil
}

// FileURI returns target unchanged when it already carries a scheme and a file:// URI for local paths.
func FileURI(target string) string {
	if strings.Contains(target, "://") {
		return target
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		abs = target
	}
	return "file://" + filepath.ToSlash(abs)
}
