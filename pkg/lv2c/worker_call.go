package lv2c

// #cgo pkg-config: lilv-0
// #include <lv2/worker/worker.h>
//
// extern LV2_Worker_Status goWorkRespond(LV2_Worker_Respond_Handle handle, uint32_t size, const void* data);
//
// static inline LV2_Worker_Status lv2go_call_work(LV2_Worker_Interface* wi, LV2_Handle instance,
//     LV2_Worker_Respond_Handle respond_handle, uint32_t size, const void* data) {
//   return wi->work(instance, goWorkRespond, respond_handle, size, data);
// }
//
// static inline LV2_Worker_Status lv2go_call_work_response(LV2_Worker_Interface* wi, LV2_Handle instance,
//     uint32_t size, const void* body) {
//   return wi->work_response(instance, size, body);
// }
import "C"

import (
	"fmt"
	"unsafe"
)

// WorkRespondFunc is called zero or more times from inside CallWork with
// one response payload, mirroring the plugin's respond() callback
// argument to LV2_Worker_Interface.work.
type WorkRespondFunc func(response []byte) error

// HasWorker reports whether this running instance's plugin implements
// the worker extension, checked once right after Instantiate per
// spec.md §4.F step 5.
func (i *Instance) HasWorker() bool {
	wi := i.WorkerInterface()
	return wi != nil && wi.work != nil
}

// CallWork invokes the plugin's work() entry point on the Worker thread
// with payload, routing every respond() call the plugin makes to fn.
// Returns nil if the plugin has no worker interface.
func (i *Instance) CallWork(payload []byte, fn WorkRespondFunc) error {
	wi := i.WorkerInterface()
	if wi == nil || wi.work == nil {
		return nil
	}

	id := handles.register(fn)
	defer handles.unregister(id)

	var dataPtr unsafe.Pointer
	if len(payload) > 0 {
		dataPtr = unsafe.Pointer(&payload[0])
	}
	status := C.lv2go_call_work(wi, i.Handle(), C.LV2_Worker_Respond_Handle(unsafe.Pointer(id)), C.uint32_t(len(payload)), dataPtr)
	if status != C.LV2_WORKER_SUCCESS {
		return fmt.Errorf("lv2c: work() returned status %d", int(status))
	}
	return nil
}

// CallWorkResponse delivers one length-known response back into the
// plugin via work_response(), called from the DSP thread during
// DrainResponses. Returns nil if the plugin has no worker interface or
// no work_response entry point.
func (i *Instance) CallWorkResponse(response []byte) error {
	wi := i.WorkerInterface()
	if wi == nil || wi.work_response == nil {
		return nil
	}

	var dataPtr unsafe.Pointer
	if len(response) > 0 {
		dataPtr = unsafe.Pointer(&response[0])
	}
	status := C.lv2go_call_work_response(wi, i.Handle(), C.uint32_t(len(response)), dataPtr)
	if status != C.LV2_WORKER_SUCCESS {
		return fmt.Errorf("lv2c: work_response() returned status %d", int(status))
	}
	return nil
}

//export goWorkRespond
func goWorkRespond(handle C.LV2_Worker_Respond_Handle, size C.uint32_t, data unsafe.Pointer) C.LV2_Worker_Status {
	v := handles.lookup(uintptr(handle))
	fn, ok := v.(WorkRespondFunc)
	if !ok {
		return C.LV2_WORKER_ERR_UNKNOWN
	}
	var body []byte
	if size > 0 {
		body = unsafe.Slice((*byte)(data), int(size))
	}
	if err := fn(body); err != nil {
		return C.LV2_WORKER_ERR_UNKNOWN
	}
	return C.LV2_WORKER_SUCCESS
}
