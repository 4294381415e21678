// Package lv2c is the host's cgo boundary onto the LV2 SDK: lilv for
// bundle discovery and plugin instantiation, and the raw lv2.h /
// urid.h / worker.h / state.h C ABI for the parts lilv passes through
// verbatim. Nothing above this package touches cgo directly; every
// other package talks to *World, *Plugin, *Port and *Instance.
//
// The direction of the C boundary here is the opposite of a plugin SDK:
// this package calls out into liblilv (which itself dlopen()s the
// plugin's shared library), rather than exporting entry points for a
// DAW to call in. See SPEC_FULL.md §9's "direction of the cgo boundary"
// note.
package lv2c
