package truststore

import "errors"

// Error kinds returned by adapters and the dispatcher. Each returned error wraps exactly one kind
// alongside the underlying cause, so callers can match both with errors.Is.
var (
	// ErrUnsupportedFlavor reports a flavor or flavor/operation pair with no backing adapter.
	ErrUnsupportedFlavor = errors.New("unsupported trust store flavor")
	// ErrStoreNotFound reports that no known trust mechanism exists on this host.
	ErrStoreNotFound = errors.New("no supported trust store found")
	// ErrToolNotFound reports that the refresh executable is missing from the search path.
	ErrToolNotFound = errors.New("trust store tool not found")
	// ErrFilesystem reports a failed certificate write or removal.
	ErrFilesystem = errors.New("trust store filesystem operation failed")
	// ErrRefreshFailed reports that the refresh command failed to start or exited non-zero.
	// Certificate files are already in their new state when this is returned.
	ErrRefreshFailed = errors.New("trust store refresh failed")
	// ErrInvalidFilename reports a certificate name that cannot be used as a bare file name.
	ErrInvalidFilename = errors.New("invalid certificate filename")
)
