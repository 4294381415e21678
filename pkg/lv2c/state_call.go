package lv2c

// #cgo pkg-config: lilv-0
// #include <lv2/state/state.h>
// #include <lv2/core/lv2.h>
// #include <stdlib.h>
// #include <string.h>
//
// extern LV2_State_Status goStateStore(LV2_State_Handle handle, LV2_URID key, const void* value,
//     size_t size, LV2_URID type, uint32_t flags);
// extern const void* goStateRetrieve(LV2_State_Handle handle, LV2_URID key, size_t* size,
//     LV2_URID* type, uint32_t* flags);
//
// static inline LV2_State_Status lv2go_call_state_save(LV2_State_Interface* si, LV2_Handle instance,
//     LV2_State_Handle handle, const LV2_Feature* const* features) {
//   return si->save(instance, goStateStore, handle, 0, features);
// }
//
// static inline LV2_State_Status lv2go_call_state_restore(LV2_State_Interface* si, LV2_Handle instance,
//     LV2_State_Handle handle, const LV2_Feature* const* features) {
//   return si->restore(instance, goStateRetrieve, handle, 0, features);
// }
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/copperfret/lv2go/pkg/urid"
)

// StateStoreFunc is called once per state key the plugin's save()
// entry point records, mirroring LV2_State_Store_Function.
type StateStoreFunc func(key urid.URID, value []byte, valueType urid.URID) error

// StateRetrieveFunc is called once per state key the plugin's restore()
// entry point asks for, mirroring LV2_State_Retrieve_Function. found is
// false if the host has no value for key.
type StateRetrieveFunc func(key urid.URID) (value []byte, valueType urid.URID, found bool)

// HasState reports whether this running instance's plugin implements
// the state extension.
func (i *Instance) HasState() bool {
	si := i.StateInterface()
	return si != nil && si.save != nil && si.restore != nil
}

// SaveState invokes the plugin's state#interface save() entry point,
// calling store once per state key the plugin records. features is the
// feature array to offer save() (normally the same table built for
// Instantiate, since the state#mapPath/makePath identity helpers live
// there); it may be nil.
func (i *Instance) SaveState(store StateStoreFunc, features *FeatureArray) error {
	si := i.StateInterface()
	if si == nil || si.save == nil {
		return nil
	}

	id := handles.register(store)
	defer handles.unregister(id)

	status := C.lv2go_call_state_save(si, i.Handle(), C.LV2_State_Handle(unsafe.Pointer(id)), features.cArray())
	if status != C.LV2_STATE_SUCCESS {
		return fmt.Errorf("lv2c: state save() returned status %d", int(status))
	}
	return nil
}

// RestoreState invokes the plugin's state#interface restore() entry
// point, calling retrieve once per state key the plugin asks for.
func (i *Instance) RestoreState(retrieve StateRetrieveFunc, features *FeatureArray) error {
	si := i.StateInterface()
	if si == nil || si.restore == nil {
		return nil
	}

	id := handles.register(retrieve)
	defer func() {
		handles.unregister(id)
		freeRetrieveAllocs(id)
	}()

	status := C.lv2go_call_state_restore(si, i.Handle(), C.LV2_State_Handle(unsafe.Pointer(id)), features.cArray())
	if status != C.LV2_STATE_SUCCESS {
		return fmt.Errorf("lv2c: state restore() returned status %d", int(status))
	}
	return nil
}

//export goStateStore
func goStateStore(handle C.LV2_State_Handle, key C.LV2_URID, value unsafe.Pointer, size C.size_t, valueType C.LV2_URID, flags C.uint32_t) C.LV2_State_Status {
	v := handles.lookup(uintptr(handle))
	fn, ok := v.(StateStoreFunc)
	if !ok {
		return C.LV2_STATE_ERR_UNKNOWN
	}
	var body []byte
	if size > 0 {
		src := unsafe.Slice((*byte)(value), int(size))
		body = make([]byte, len(src))
		copy(body, src)
	}
	if err := fn(urid.URID(key), body, urid.URID(valueType)); err != nil {
		return C.LV2_STATE_ERR_UNKNOWN
	}
	return C.LV2_STATE_SUCCESS
}

//export goStateRetrieve
func goStateRetrieve(handle C.LV2_State_Handle, key C.LV2_URID, size *C.size_t, valueType *C.LV2_URID, flags *C.uint32_t) unsafe.Pointer {
	v := handles.lookup(uintptr(handle))
	fn, ok := v.(StateRetrieveFunc)
	if !ok {
		return nil
	}
	val, vt, found := fn(urid.URID(key))
	if !found {
		return nil
	}
	*size = C.size_t(len(val))
	*valueType = C.LV2_URID(vt)
	if len(val) == 0 {
		return nil
	}

	// The returned pointer must stay valid for the remainder of this
	// restore() call; retrieve may be invoked several times, so each
	// allocation is tracked under the restore handle and freed together
	// once RestoreState returns, the same bookkeeping shape as the
	// unmap-string cache in callbacks.go.
	ptr := C.malloc(C.size_t(len(val)))
	C.memcpy(ptr, unsafe.Pointer(&val[0]), C.size_t(len(val)))
	trackRetrieveAlloc(uintptr(handle), ptr)
	return ptr
}

var (
	retrieveAllocsMu sync.Mutex
	retrieveAllocs   = make(map[uintptr][]unsafe.Pointer)
)

func trackRetrieveAlloc(handle uintptr, ptr unsafe.Pointer) {
	retrieveAllocsMu.Lock()
	defer retrieveAllocsMu.Unlock()
	retrieveAllocs[handle] = append(retrieveAllocs[handle], ptr)
}

func freeRetrieveAllocs(handle uintptr) {
	retrieveAllocsMu.Lock()
	defer retrieveAllocsMu.Unlock()
	for _, p := range retrieveAllocs[handle] {
		C.free(p)
	}
	delete(retrieveAllocs, handle)
}
