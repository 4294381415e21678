package lv2c

// #cgo pkg-config: lilv-0
// #include <lilv/lilv.h>
// #include <stdlib.h>
import "C"

import (
	"fmt"
	"os"
	"unsafe"
)

// World owns the lilv discovery context: the set of LV2 bundles found
// on the search path and every plugin/port node reachable from it.
// Read-only after Load, and safe for concurrent reads from multiple
// goroutines since lilv's own RDF store (sord/serd) is not mutated
// after loading completes.
type World struct {
	ptr *C.LilvWorld

	// cached class nodes, looked up once and reused by every Port
	// classification call.
	classInput      *C.LilvNode
	classOutput     *C.LilvNode
	classAudio      *C.LilvNode
	classControl    *C.LilvNode
	classAtom       *C.LilvNode
	uriMinSize      *C.LilvNode
	uriSupportsMIDI *C.LilvNode
	propToggled     *C.LilvNode
	propTrigger     *C.LilvNode
}

// NewWorld creates a new lilv world with no bundles loaded yet.
func NewWorld() (*World, error) {
	ptr := C.lilv_world_new()
	if ptr == nil {
		return nil, fmt.Errorf("lv2c: lilv_world_new failed")
	}
	w := &World{ptr: ptr}
	w.classInput = w.newURI("http://lv2plug.in/ns/lv2core#InputPort")
	w.classOutput = w.newURI("http://lv2plug.in/ns/lv2core#OutputPort")
	w.classAudio = w.newURI("http://lv2plug.in/ns/lv2core#AudioPort")
	w.classControl = w.newURI("http://lv2plug.in/ns/lv2core#ControlPort")
	w.classAtom = w.newURI("http://lv2plug.in/ns/ext/atom#AtomPort")
	w.uriMinSize = w.newURI("http://lv2plug.in/ns/ext/resize-port#minimumSize")
	w.uriSupportsMIDI = w.newURI("http://lv2plug.in/ns/ext/midi#MidiEvent")
	w.propToggled = w.newURI("http://lv2plug.in/ns/lv2core#toggled")
	w.propTrigger = w.newURI("http://lv2plug.in/ns/ext/port-props#trigger")
	return w, nil
}

// newURI builds an interned LilvNode from a Go string; lilv copies the
// URI text internally so the C string backing it is freed immediately.
func (w *World) newURI(uri string) *C.LilvNode {
	cStr := C.CString(uri)
	defer C.free(unsafe.Pointer(cStr))
	return C.lilv_new_uri(w.ptr, cStr)
}

// SetSearchPath restricts bundle discovery to the given colon-separated
// directory list. It must be called before LoadAll/LoadBundle, and
// works by setting LV2_PATH in this process's environment, which is
// the mechanism lilv_world_load_all itself consults. Directories
// should each contain one subdirectory per LV2 bundle.
func (w *World) SetSearchPath(path string) error {
	return os.Setenv("LV2_PATH", path)
}

// LoadAll loads every bundle lilv can find via LV2_PATH (or the
// platform default search path if unset) into the world's RDF model.
func (w *World) LoadAll() {
	C.lilv_world_load_all(w.ptr)
}

// LoadBundle loads a single bundle directory, given as a filesystem
// path. Useful for tests that ship a fixture bundle without touching
// LV2_PATH.
func (w *World) LoadBundle(bundlePath string) error {
	uri := fmt.Sprintf("file://%s/", bundlePath)
	cStr := C.CString(uri)
	defer C.free(unsafe.Pointer(cStr))
	node := C.lilv_new_uri(w.ptr, cStr)
	if node == nil {
		return fmt.Errorf("lv2c: invalid bundle path %q", bundlePath)
	}
	defer C.lilv_node_free(node)
	C.lilv_world_load_bundle(w.ptr, node)
	return nil
}

// AllPlugins returns every plugin lilv currently knows about.
func (w *World) AllPlugins() []*Plugin {
	plugins := C.lilv_world_get_all_plugins(w.ptr)
	if plugins == nil {
		return nil
	}

	out := make([]*Plugin, 0, int(C.lilv_plugins_size(plugins)))
	it := C.lilv_plugins_begin(plugins)
	for !C.lilv_plugins_is_end(plugins, it) {
		p := C.lilv_plugins_get(plugins, it)
		out = append(out, &Plugin{world: w, ptr: p})
		it = C.lilv_plugins_next(plugins, it)
	}
	return out
}

// PluginByURI resolves a single plugin by its URI, or returns
// (nil, false) if no such plugin is loaded.
func (w *World) PluginByURI(uri string) (*Plugin, bool) {
	cStr := C.CString(uri)
	defer C.free(unsafe.Pointer(cStr))
	node := C.lilv_new_uri(w.ptr, cStr)
	if node == nil {
		return nil, false
	}
	defer C.lilv_node_free(node)

	plugins := C.lilv_world_get_all_plugins(w.ptr)
	p := C.lilv_plugins_get_by_uri(plugins, node)
	if p == nil {
		return nil, false
	}
	return &Plugin{world: w, ptr: p}, true
}

// Free releases every resource the world holds, including all plugin
// and port nodes derived from it. No Plugin/Port/Instance obtained from
// this World may be used afterward.
func (w *World) Free() {
	C.lilv_node_free(w.classInput)
	C.lilv_node_free(w.classOutput)
	C.lilv_node_free(w.classAudio)
	C.lilv_node_free(w.classControl)
	C.lilv_node_free(w.classAtom)
	C.lilv_node_free(w.uriMinSize)
	C.lilv_node_free(w.uriSupportsMIDI)
	C.lilv_node_free(w.propToggled)
	C.lilv_node_free(w.propTrigger)
	C.lilv_world_free(w.ptr)
	w.ptr = nil
}
