// Package hosterr is the closed set of error kinds the host core
// surfaces to its callers, checked with errors.Is/errors.As rather than
// string comparison.
package hosterr

import "errors"

var (
	// ErrUnknownPlugin is returned when a URI is not present in the
	// Plugin Catalog.
	ErrUnknownPlugin = errors.New("hosterr: unknown plugin URI")
	// ErrUnsupportedFeature is returned when a plugin requires a
	// feature the host's Feature Table does not offer.
	ErrUnsupportedFeature = errors.New("hosterr: unsupported required feature")
	// ErrInstantiationFailed is returned when the LV2 host returned no
	// instance from instantiate().
	ErrInstantiationFailed = errors.New("hosterr: plugin instantiation failed")
	// ErrNoSpace is returned when a ring buffer involved in the call is
	// full.
	ErrNoSpace = errors.New("hosterr: no space available")
	// ErrInvalidArgument is returned for a null buffer, zero frame
	// count, an out-of-range slot, or similarly malformed input.
	ErrInvalidArgument = errors.New("hosterr: invalid argument")
	// ErrStateIO is returned when a state save/load file operation
	// fails.
	ErrStateIO = errors.New("hosterr: state i/o error")
)
