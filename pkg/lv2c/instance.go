package lv2c

// #cgo pkg-config: lilv-0
// #include <lilv/lilv.h>
// #include <lv2/worker/worker.h>
// #include <lv2/state/state.h>
import "C"

import "unsafe"

// Instance is a running plugin instance: a loaded shared library plus
// whatever per-instance handle the plugin's descriptor gave back from
// instantiate(). ConnectPort and Run (and CallWorkResponse, via the
// Worker drain) are called from the RT path on every process() cycle;
// Activate and Deactivate run from control-thread lifecycle calls
// (initialize, start, stop, close), and Free during close().
type Instance struct {
	plugin *Plugin
	ptr    *C.LilvInstance
}

// ConnectPort binds one port index to a backing buffer for the
// lifetime of the next Run call, or permanently for non-audio ports
// whose backing store does not move (spec.md §4.F step 6). buf must
// remain valid and not be moved by the Go runtime until either the
// port is reconnected or the instance is freed. pkg/instance passes
// buffers it allocated once at initialize() time, except for a mono
// audio input, which is connected to the caller's input slice for the
// duration of one Process call.
func (i *Instance) ConnectPort(index int, buf unsafe.Pointer) {
	C.lilv_instance_connect_port(i.ptr, C.uint32_t(index), buf)
}

// Activate runs the plugin's activate() callback, if it has one.
func (i *Instance) Activate() {
	C.lilv_instance_activate(i.ptr)
}

// Deactivate runs the plugin's deactivate() callback, if it has one.
func (i *Instance) Deactivate() {
	C.lilv_instance_deactivate(i.ptr)
}

// Run processes sampleCount frames using whatever buffers are
// currently connected. It is called once per process() cycle on the
// audio thread.
func (i *Instance) Run(sampleCount uint32) {
	C.lilv_instance_run(i.ptr, C.uint32_t(sampleCount))
}

// ExtensionData returns the plugin's extension data block for the
// given URI (e.g. the worker or state interface vtable), or nil if the
// plugin does not implement it.
func (i *Instance) ExtensionData(uri string) unsafe.Pointer {
	cStr := C.CString(uri)
	defer C.free(unsafe.Pointer(cStr))
	return C.lilv_instance_get_extension_data(i.ptr, cStr)
}

// WorkerInterface returns the plugin's LV2_Worker_Interface vtable, or
// nil if it does not implement the worker extension.
func (i *Instance) WorkerInterface() *C.LV2_Worker_Interface {
	p := i.ExtensionData(lv2WorkerInterfaceURI)
	if p == nil {
		return nil
	}
	return (*C.LV2_Worker_Interface)(p)
}

// StateInterface returns the plugin's LV2_State_Interface vtable, or
// nil if it does not implement the state extension.
func (i *Instance) StateInterface() *C.LV2_State_Interface {
	p := i.ExtensionData(lv2StateInterfaceURI)
	if p == nil {
		return nil
	}
	return (*C.LV2_State_Interface)(p)
}

// Handle returns the raw LV2_Handle the plugin's instantiate()
// returned, for callers (the worker's work()/work_response() shims)
// that need to pass it back into the plugin's own vtable entries.
func (i *Instance) Handle() C.LV2_Handle {
	return C.lilv_instance_get_handle(i.ptr)
}

// Free unloads the plugin's shared library and releases the instance.
// No method on this Instance may be called afterward.
func (i *Instance) Free() {
	C.lilv_instance_free(i.ptr)
	i.ptr = nil
}

// Well-known extension-data URIs used to probe a plugin for the worker
// and state interfaces. WorkerInterface and StateInterface look them up
// here; they are exported so callers can pass the same URIs to
// Plugin.HasExtensionData.
const (
	WorkerInterfaceURI = "http://lv2plug.in/ns/ext/worker#interface"
	StateInterfaceURI  = "http://lv2plug.in/ns/ext/state#interface"

	lv2WorkerInterfaceURI = WorkerInterfaceURI
	lv2StateInterfaceURI  = StateInterfaceURI
)
