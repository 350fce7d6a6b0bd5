package truststore

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/tyemirov/truststore/internal/certificates"
)

// Dispatcher routes requests to the adapter registered for a flavor.
// Java never has an adapter; NSS has one only when WithNSSAdapter is supplied.
type Dispatcher struct {
	adapters map[Flavor]Adapter
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSystemAdapter replaces the default system adapter.
func WithSystemAdapter(adapter Adapter) DispatcherOption {
	return func(dispatcher *Dispatcher) {
		dispatcher.adapters[FlavorSystem] = adapter
	}
}

// WithNSSAdapter enables the NSS flavor.
func WithNSSAdapter(adapter Adapter) DispatcherOption {
	return func(dispatcher *Dispatcher) {
		dispatcher.adapters[FlavorNSS] = adapter
	}
}

// NewDispatcher constructs a Dispatcher backed by the host filesystem and PATH.
func NewDispatcher(options ...DispatcherOption) Dispatcher {
	dispatcher := Dispatcher{adapters: map[Flavor]Adapter{}}
	dispatcher.adapters[FlavorSystem] = NewSystemAdapter(certificates.NewExecutableRunner(), certificates.NewPathLocator(), afero.NewOsFs(), Configuration{})
	for _, option := range options {
		option(&dispatcher)
	}
	return dispatcher
}

// Install installs certificate under certificateName in the flavor's store.
func (dispatcher Dispatcher) Install(ctx context.Context, flavor Flavor, certificateName string, certificate []byte) error {
	adapter, lookupErr := dispatcher.adapter(flavor)
	if lookupErr != nil {
		return lookupErr
	}
	return adapter.Install(ctx, certificateName, certificate)
}

// Uninstall removes certificateName from the flavor's store.
func (dispatcher Dispatcher) Uninstall(ctx context.Context, flavor Flavor, certificateName string) error {
	adapter, lookupErr := dispatcher.adapter(flavor)
	if lookupErr != nil {
		return lookupErr
	}
	return adapter.Uninstall(ctx, certificateName)
}

func (dispatcher Dispatcher) adapter(flavor Flavor) (Adapter, error) {
	switch flavor {
	case FlavorSystem, FlavorNSS:
		adapter, found := dispatcher.adapters[flavor]
		if !found || adapter == nil {
			return nil, fmt.Errorf("%w: %s is not enabled", ErrUnsupportedFlavor, flavor)
		}
		return adapter, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFlavor, flavor)
	}
}
