package truststore

import (
	"fmt"
	"strings"
)

// Flavor selects the trust store family a request is routed to.
type Flavor string

const (
	FlavorSystem Flavor = "system"
	FlavorNSS    Flavor = "nss"
	FlavorJava   Flavor = "java"
)

// ParseFlavor normalizes a flavor name. Unknown names fail with ErrUnsupportedFlavor.
func ParseFlavor(rawValue string) (Flavor, error) {
	flavor := Flavor(strings.ToLower(strings.TrimSpace(rawValue)))
	switch flavor {
	case FlavorSystem, FlavorNSS, FlavorJava:
		return flavor, nil
	case "":
		return FlavorSystem, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFlavor, rawValue)
	}
}
