package lv2c

// #cgo pkg-config: lilv-0
// #include <lilv/lilv.h>
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/copperfret/lv2go/pkg/hosterr"
)

// Plugin is a handle to one plugin description discovered by a World.
// It is a thin view over lilv's RDF model; no host-side allocation
// happens until Instantiate is called.
type Plugin struct {
	world *World
	ptr   *C.LilvPlugin
}

// URI returns the plugin's URI, the stable identifier the Catalog and
// Engine key everything else by.
func (p *Plugin) URI() string {
	n := C.lilv_plugin_get_uri(p.ptr)
	if n == nil {
		return ""
	}
	return C.GoString(C.lilv_node_as_uri(n))
}

// Name returns the plugin's human-readable name.
func (p *Plugin) Name() string {
	n := C.lilv_plugin_get_name(p.ptr)
	if n == nil {
		return ""
	}
	defer C.lilv_node_free(n)
	return C.GoString(C.lilv_node_as_string(n))
}

// Author returns the plugin's declared author name, or "" if the
// bundle does not supply one.
func (p *Plugin) Author() string {
	n := C.lilv_plugin_get_author_name(p.ptr)
	if n == nil {
		return ""
	}
	defer C.lilv_node_free(n)
	return C.GoString(C.lilv_node_as_string(n))
}

// NumPorts returns the plugin's total port count, input and output,
// audio and control and atom alike.
func (p *Plugin) NumPorts() int {
	return int(C.lilv_plugin_get_num_ports(p.ptr))
}

// Port returns the port at the given dense index, or nil if index is
// out of range.
func (p *Plugin) Port(index int) *Port {
	ptr := C.lilv_plugin_get_port_by_index(p.ptr, C.uint32_t(index))
	if ptr == nil {
		return nil
	}
	return &Port{world: p.world, plugin: p, ptr: ptr}
}

// RequiredFeatures returns the URIs of every feature the plugin
// declares as required; the host must supply all of them at
// Instantiate or reject the plugin.
func (p *Plugin) RequiredFeatures() []string {
	nodes := C.lilv_plugin_get_required_features(p.ptr)
	if nodes == nil {
		return nil
	}
	defer C.lilv_nodes_free(nodes)

	out := make([]string, 0, int(C.lilv_nodes_size(nodes)))
	it := C.lilv_nodes_begin(nodes)
	for !C.lilv_nodes_is_end(nodes, it) {
		n := C.lilv_nodes_get(nodes, it)
		out = append(out, C.GoString(C.lilv_node_as_uri(n)))
		it = C.lilv_nodes_next(nodes, it)
	}
	return out
}

// HasExtensionData reports whether the plugin's descriptor advertises
// extension data under the given URI (used to test for the worker and
// state interfaces before spawning a Worker or calling Save/Load).
func (p *Plugin) HasExtensionData(uri string) bool {
	cStr := C.CString(uri)
	defer C.free(unsafe.Pointer(cStr))
	node := C.lilv_new_uri(p.world.ptr, cStr)
	if node == nil {
		return false
	}
	defer C.lilv_node_free(node)
	return bool(C.lilv_plugin_has_extension_data(p.ptr, node))
}

// Instantiate loads the plugin's shared library and constructs a
// running instance at the given sample rate, offering it the supplied
// feature array. The caller must have already verified RequiredFeatures
// is a subset of what features provides.
func (p *Plugin) Instantiate(sampleRate float64, features *FeatureArray) (*Instance, error) {
	var featPtr **C.LV2_Feature
	if features != nil {
		featPtr = features.cArray()
	}
	ptr := C.lilv_plugin_instantiate(p.ptr, C.double(sampleRate), featPtr)
	if ptr == nil {
		return nil, fmt.Errorf("lv2c: %w: lilv_plugin_instantiate failed for %s", hosterr.ErrInstantiationFailed, p.URI())
	}
	return &Instance{plugin: p, ptr: ptr}, nil
}
