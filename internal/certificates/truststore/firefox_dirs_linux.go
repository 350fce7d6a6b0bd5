//go:build linux

package truststore

import (
	"os"
	"path/filepath"
)

// firefoxProfileSubdirectory is joined onto the home directory, so it must stay relative.
const firefoxProfileSubdirectory = ".mozilla/firefox/"

func defaultFirefoxProfileDirectories() []string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = string(filepath.Separator)
	}
	return []string{filepath.Join(home, firefoxProfileSubdirectory)}
}
