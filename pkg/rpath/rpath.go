package rpath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func ExecutableDir() (string, error) {
	exe_path, err := os.Executable()
	if err != nil {
		return "",
			fmt.Errorf("Can't find executable's location. Error: %w", err)
	}
	return filepath.Dir(exe_path), nil
}

// Returns path unchanged if it's absolute, empty or a stream url
// (rtsp://, http://...), otherwise makes it absolute relative to
// the executable's directory
func Convert(exe_dir, path string) string {
	if path == "" || filepath.IsAbs(path) || strings.Contains(path, "://") {
		return path
	}
	return filepath.Join(exe_dir, path)
}
