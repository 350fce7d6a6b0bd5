//go:build windows

package truststore

import (
	"os"
	"path/filepath"
)

const (
	environmentAppData         = "APPDATA"
	firefoxProfileSubdirectory = `Mozilla\Firefox\Profiles`
)

func defaultFirefoxProfileDirectories() []string {
	appData := os.Getenv(environmentAppData)
	if appData == "" {
		return nil
	}
	return []string{filepath.Join(appData, firefoxProfileSubdirectory)}
}
