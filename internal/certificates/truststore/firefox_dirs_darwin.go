//go:build darwin

package truststore

import (
	"os"
	"path/filepath"
)

const firefoxProfileSubdirectory = "Library/Application Support/Firefox/Profiles"

// NSS databases under the macOS profile root are used only when the nss flavor is enabled.
func defaultFirefoxProfileDirectories() []string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return nil
	}
	return []string{filepath.Join(home, filepath.FromSlash(firefoxProfileSubdirectory))}
}
