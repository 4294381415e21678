package lv2c

// #cgo pkg-config: lilv-0
// #include <lv2/options/options.h>
// #include <lv2/state/state.h>
// #include <lv2/urid/urid.h>
// #include <stdlib.h>
// #include <string.h>
//
// extern char* goIdentityAbstractPath(LV2_State_Map_Path_Handle handle, const char* absolute_path);
// extern char* goIdentityAbsolutePath(LV2_State_Map_Path_Handle handle, const char* abstract_path);
// extern char* goIdentityMakePath(LV2_State_Make_Path_Handle handle, const char* path);
// extern void goIdentityFreePath(LV2_State_Free_Path_Handle handle, char* path);
//
// // Struct literals can't assign function pointers to anonymous
// // (non-typedef'd) field types directly from Go, so the three state
// // path-helper structs are built on the C side instead, mirroring the
// // bridge's static inline helper style.
// static inline LV2_State_Map_Path* lv2go_new_map_path(void) {
//   LV2_State_Map_Path* s = (LV2_State_Map_Path*)malloc(sizeof(LV2_State_Map_Path));
//   s->handle = NULL;
//   s->abstract_path = goIdentityAbstractPath;
//   s->absolute_path = goIdentityAbsolutePath;
//   return s;
// }
//
// static inline LV2_State_Make_Path* lv2go_new_make_path(void) {
//   LV2_State_Make_Path* s = (LV2_State_Make_Path*)malloc(sizeof(LV2_State_Make_Path));
//   s->handle = NULL;
//   s->path = goIdentityMakePath;
//   return s;
// }
//
// static inline LV2_State_Free_Path* lv2go_new_free_path(void) {
//   LV2_State_Free_Path* s = (LV2_State_Free_Path*)malloc(sizeof(LV2_State_Free_Path));
//   s->handle = NULL;
//   s->free_path = goIdentityFreePath;
//   return s;
// }
//
// static inline LV2_Options_Option* lv2go_new_max_block_length_option(int32_t* value) {
//   LV2_Options_Option* opts = (LV2_Options_Option*)malloc(2 * sizeof(LV2_Options_Option));
//   opts[0].context = LV2_OPTIONS_INSTANCE;
//   opts[0].subject = 0;
//   opts[0].key = 0;
//   opts[0].size = sizeof(int32_t);
//   opts[0].type = 0;
//   opts[0].value = value;
//   opts[1].context = LV2_OPTIONS_INSTANCE;
//   opts[1].subject = 0;
//   opts[1].key = 0;
//   opts[1].size = 0;
//   opts[1].type = 0;
//   opts[1].value = NULL;
//   return opts;
// }
import "C"

import "unsafe"

// optionBox keeps the C allocations a single LV2_Options_Option entry
// needs (the option struct plus the int32 value it points at) alive
// for as long as the feature is offered.
type optionBox struct {
	value *C.int32_t
}

var optionBoxes = make(map[unsafe.Pointer]*optionBox)

// NewMaxBlockLengthOption builds the single declared LV2_Options_Option
// entry spec.md §4.D requires (maxBlockLength, an int32) followed by
// the LV2_OPTIONS_END terminator.
func NewMaxBlockLengthOption(maxBlockLength int32) unsafe.Pointer {
	value := (*C.int32_t)(C.malloc(C.sizeof_int32_t))
	*value = C.int32_t(maxBlockLength)
	opts := C.lv2go_new_max_block_length_option(value)
	optionBoxes[unsafe.Pointer(opts)] = &optionBox{value: value}
	return unsafe.Pointer(opts)
}

// FreeMaxBlockLengthOption releases an option array built by
// NewMaxBlockLengthOption.
func FreeMaxBlockLengthOption(data unsafe.Pointer) {
	if data == nil {
		return
	}
	if box, ok := optionBoxes[data]; ok {
		C.free(unsafe.Pointer(box.value))
		C.free(data)
		delete(optionBoxes, data)
	}
}

var pathHelperBoxes = make(map[unsafe.Pointer]bool)

// NewIdentityPathMapper builds the state#mapPath feature data: two
// function pointers that each return a copy of the path they are
// given, per spec.md §4.D until persistent storage is added.
func NewIdentityPathMapper() unsafe.Pointer {
	p := unsafe.Pointer(C.lv2go_new_map_path())
	pathHelperBoxes[p] = true
	return p
}

// NewIdentityPathMaker builds the state#makePath feature data.
func NewIdentityPathMaker() unsafe.Pointer {
	p := unsafe.Pointer(C.lv2go_new_make_path())
	pathHelperBoxes[p] = true
	return p
}

// NewIdentityPathFreer builds the state#freePath feature data.
func NewIdentityPathFreer() unsafe.Pointer {
	p := unsafe.Pointer(C.lv2go_new_free_path())
	pathHelperBoxes[p] = true
	return p
}

// FreeIdentityPathHelper releases any of the three structs above.
func FreeIdentityPathHelper(data unsafe.Pointer) {
	if data == nil {
		return
	}
	if pathHelperBoxes[data] {
		C.free(data)
		delete(pathHelperBoxes, data)
	}
}

//export goIdentityAbstractPath
func goIdentityAbstractPath(handle C.LV2_State_Map_Path_Handle, absolutePath *C.char) *C.char {
	return C.strdup(absolutePath)
}

//export goIdentityAbsolutePath
func goIdentityAbsolutePath(handle C.LV2_State_Map_Path_Handle, abstractPath *C.char) *C.char {
	return C.strdup(abstractPath)
}

//export goIdentityMakePath
func goIdentityMakePath(handle C.LV2_State_Make_Path_Handle, path *C.char) *C.char {
	return C.strdup(path)
}

//export goIdentityFreePath
func goIdentityFreePath(handle C.LV2_State_Free_Path_Handle, path *C.char) {
	C.free(unsafe.Pointer(path))
}
