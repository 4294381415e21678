package lv2c

// #cgo pkg-config: lilv-0
// #include <lilv/lilv.h>
import "C"

// Port is a handle to one port description on a Plugin. Mirrors the
// kind/direction/range attributes spec.md §3's Port type needs,
// without committing to a Go-side classification until the caller asks
// for one (pkg/instance does the audio/control/atom tri-state
// classification once, at initialize() time).
type Port struct {
	world  *World
	plugin *Plugin
	ptr    *C.LilvPort
}

// Index returns the port's dense, zero-based index within its plugin.
func (p *Port) Index() int {
	return int(C.lilv_port_get_index(p.plugin.ptr, p.ptr))
}

// Symbol returns the port's stable bundle-defined identifier, the key
// State I/O and setControl address ports by.
func (p *Port) Symbol() string {
	n := C.lilv_port_get_symbol(p.plugin.ptr, p.ptr)
	if n == nil {
		return ""
	}
	return C.GoString(C.lilv_node_as_string(n))
}

// Name returns the port's human-readable label.
func (p *Port) Name() string {
	n := C.lilv_port_get_name(p.plugin.ptr, p.ptr)
	if n == nil {
		return ""
	}
	defer C.lilv_node_free(n)
	return C.GoString(C.lilv_node_as_string(n))
}

func (p *Port) isA(class *C.LilvNode) bool {
	return bool(C.lilv_port_is_a(p.plugin.ptr, p.ptr, class))
}

// IsAudio reports whether this is an audio-rate (raw float32 block)
// port.
func (p *Port) IsAudio() bool { return p.isA(p.world.classAudio) }

// IsControl reports whether this is a control-rate (single float32 per
// block) port.
func (p *Port) IsControl() bool { return p.isA(p.world.classControl) }

// IsAtom reports whether this is an atom-sequence port.
func (p *Port) IsAtom() bool { return p.isA(p.world.classAtom) }

// IsInput reports whether this port is connected as an input.
func (p *Port) IsInput() bool { return p.isA(p.world.classInput) }

// IsOutput reports whether this port is connected as an output.
func (p *Port) IsOutput() bool { return p.isA(p.world.classOutput) }

// RangeFloat returns the declared (minimum, maximum, default) for a
// control port. ok is false if the plugin did not declare one or more
// of the three.
func (p *Port) RangeFloat() (minVal, maxVal, defVal float32, ok bool) {
	var def, min, max *C.LilvNode
	C.lilv_port_get_range(p.plugin.ptr, p.ptr, &def, &min, &max)
	defer freeIfNotNil(def)
	defer freeIfNotNil(min)
	defer freeIfNotNil(max)

	if def == nil || min == nil || max == nil {
		return 0, 0, 0, false
	}
	return float32(C.lilv_node_as_float(min)), float32(C.lilv_node_as_float(max)), float32(C.lilv_node_as_float(def)), true
}

// MinimumSize returns the plugin-declared minimum buffer size (in
// bytes) for an atom port, via the resize-port extension. ok is false
// if the plugin declares no minimum, in which case the caller should
// fall back to its own default.
func (p *Port) MinimumSize() (size int, ok bool) {
	n := C.lilv_port_get(p.plugin.ptr, p.ptr, p.world.uriMinSize)
	if n == nil {
		return 0, false
	}
	defer C.lilv_node_free(n)
	if !bool(C.lilv_node_is_int(n)) {
		return 0, false
	}
	return int(C.lilv_node_as_int(n)), true
}

// SupportsMIDI reports whether an atom input port accepts MIDI events,
// via atom#supports.
func (p *Port) SupportsMIDI() bool {
	return bool(C.lilv_port_supports_event(p.plugin.ptr, p.ptr, p.world.uriSupportsMIDI))
}

// IsToggled reports whether a control port declares lv2:portProperty
// lv2:toggled, the source's "Toggle" control kind.
func (p *Port) IsToggled() bool {
	return bool(C.lilv_port_has_property(p.plugin.ptr, p.ptr, p.world.propToggled))
}

// IsTrigger reports whether a control port declares
// pprops:trigger, the source's "Trigger" control kind.
func (p *Port) IsTrigger() bool {
	return bool(C.lilv_port_has_property(p.plugin.ptr, p.ptr, p.world.propTrigger))
}

func freeIfNotNil(n *C.LilvNode) {
	if n != nil {
		C.lilv_node_free(n)
	}
}
