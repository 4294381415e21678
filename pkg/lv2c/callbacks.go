package lv2c

// #cgo pkg-config: lilv-0
// #include <lv2/urid/urid.h>
// #include <lv2/worker/worker.h>
//
// extern LV2_URID goURIDMap(LV2_URID_Map_Handle handle, const char* uri);
// extern const char* goURIDUnmap(LV2_URID_Unmap_Handle handle, LV2_URID urid);
// extern LV2_Worker_Status goScheduleWork(LV2_Worker_Schedule_Handle handle, uint32_t size, const void* data);
import "C"

import (
	"sync"
	"unsafe"

	"github.com/copperfret/lv2go/pkg/urid"
)

// handleRegistry maps the uintptr handles cgo callbacks receive back
// to the Go object that should service them. cgo forbids storing a Go
// pointer in a C void* that outlives the call, so every feature whose
// callback needs to reach back into a Mapper, Scheduler or state/work
// callback is
// routed through this table instead, the same shape as the teacher's
// component-wrapper registry.
type handleRegistry struct {
	mu   sync.RWMutex
	next uintptr
	byID map[uintptr]interface{}
}

var handles = &handleRegistry{byID: make(map[uintptr]interface{}), next: 1}

func (r *handleRegistry) register(v interface{}) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.next
	r.next++
	r.byID[id] = v
	return id
}

func (r *handleRegistry) unregister(id uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

func (r *handleRegistry) lookup(id uintptr) interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// Mapper is the Go side of the URID map/unmap feature: whatever
// provides process-wide URI interning (pkg/urid.Registry satisfies
// this).
type Mapper interface {
	Map(uri string) urid.URID
	Unmap(id urid.URID) (string, bool)
}

// Scheduler is the Go side of the worker-schedule feature: whatever
// accepts a work request from inside the plugin's run() and enqueues
// it for the Worker thread (pkg/worker.Worker satisfies this).
type Scheduler interface {
	ScheduleWork(payload []byte) error
}

// NewURIDFeatures registers m and returns the (map, unmap) LV2_Feature
// data pointers to embed in a FeatureArray, plus a release func the
// caller must invoke once the instance built from them is freed.
func NewURIDFeatures(m Mapper) (mapData, unmapData unsafe.Pointer, release func()) {
	id := handles.register(m)
	handlePtr := unsafe.Pointer(id)

	mapFeature := &C.LV2_URID_Map{
		handle: C.LV2_URID_Map_Handle(handlePtr),
		_map:   (C.LV2_URID_Map_Function)(C.goURIDMap),
	}
	unmapFeature := &C.LV2_URID_Unmap{
		handle: C.LV2_URID_Unmap_Handle(handlePtr),
		unmap:  (C.LV2_URID_Unmap_Function)(C.goURIDUnmap),
	}
	return unsafe.Pointer(mapFeature), unsafe.Pointer(unmapFeature), func() {
		handles.unregister(id)
	}
}

// NewWorkerScheduleFeature registers s and returns the
// LV2_Worker_Schedule data pointer plus a matching release func.
func NewWorkerScheduleFeature(s Scheduler) (data unsafe.Pointer, release func()) {
	id := handles.register(s)
	sched := &C.LV2_Worker_Schedule{
		handle:        C.LV2_Worker_Schedule_Handle(unsafe.Pointer(id)),
		schedule_work: (C.LV2_Worker_Schedule_Function)(C.goScheduleWork),
	}
	return unsafe.Pointer(sched), func() {
		handles.unregister(id)
	}
}

//export goURIDMap
func goURIDMap(handle C.LV2_URID_Map_Handle, curi *C.char) C.LV2_URID {
	v := handles.lookup(uintptr(handle))
	m, ok := v.(Mapper)
	if !ok {
		return 0
	}
	return C.LV2_URID(m.Map(C.GoString(curi)))
}

//export goURIDUnmap
func goURIDUnmap(handle C.LV2_URID_Unmap_Handle, id C.LV2_URID) *C.char {
	v := handles.lookup(uintptr(handle))
	m, ok := v.(Mapper)
	if !ok {
		return nil
	}
	uri, found := m.Unmap(urid.URID(id))
	if !found {
		return nil
	}
	// Returned to the plugin as a borrowed pointer per LV2_URID_Unmap's
	// contract: valid until the next call into this Mapper. Cached per
	// handle so repeated unmap(same id) calls do not leak C strings.
	return cachedCString(uintptr(handle), id, uri)
}

//export goScheduleWork
func goScheduleWork(handle C.LV2_Worker_Schedule_Handle, size C.uint32_t, data unsafe.Pointer) C.LV2_Worker_Status {
	v := handles.lookup(uintptr(handle))
	s, ok := v.(Scheduler)
	if !ok {
		return C.LV2_WORKER_ERR_UNKNOWN
	}
	payload := unsafe.Slice((*byte)(data), int(size))
	if err := s.ScheduleWork(payload); err != nil {
		return C.LV2_WORKER_ERR_NO_SPACE
	}
	return C.LV2_WORKER_SUCCESS
}

var (
	unmapCacheMu sync.Mutex
	unmapCache   = make(map[uintptr]map[C.LV2_URID]*C.char)
)

func cachedCString(handle uintptr, id C.LV2_URID, s string) *C.char {
	unmapCacheMu.Lock()
	defer unmapCacheMu.Unlock()
	perHandle, ok := unmapCache[handle]
	if !ok {
		perHandle = make(map[C.LV2_URID]*C.char)
		unmapCache[handle] = perHandle
	}
	if cached, ok := perHandle[id]; ok {
		return cached
	}
	cStr := C.CString(s)
	perHandle[id] = cStr
	return cStr
}
