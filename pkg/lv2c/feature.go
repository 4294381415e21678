package lv2c

// #cgo pkg-config: lilv-0
// #include <lv2/core/lv2.h>
// #include <stdlib.h>
import "C"

import "unsafe"

// FeatureArray is a NULL-terminated LV2_Feature* array, the exact shape
// lilv_plugin_instantiate requires. Build one with NewFeatureArray and
// Free it once the resulting Instance no longer needs it (lilv copies
// nothing; the array and every Data pointer inside it must outlive the
// Instance).
type FeatureArray struct {
	uris  []*C.char
	feats []C.LV2_Feature
	array []*C.LV2_Feature
}

// NewFeatureArray builds a NULL-terminated LV2_Feature array from
// (uri, data) pairs. data may be nil for data-less marker features
// (BoundedBlockLength, PowerOf2BlockLength, FixedBlockLength).
func NewFeatureArray(pairs map[string]unsafe.Pointer) *FeatureArray {
	fa := &FeatureArray{
		uris:  make([]*C.char, 0, len(pairs)),
		feats: make([]C.LV2_Feature, 0, len(pairs)),
	}
	for uri, data := range pairs {
		cURI := C.CString(uri)
		fa.uris = append(fa.uris, cURI)
		fa.feats = append(fa.feats, C.LV2_Feature{URI: cURI, data: data})
	}
	fa.array = make([]*C.LV2_Feature, len(fa.feats)+1)
	for idx := range fa.feats {
		fa.array[idx] = &fa.feats[idx]
	}
	fa.array[len(fa.feats)] = nil
	return fa
}

// URISet returns the set of feature URIs this array offers, for the
// required-feature subset check spec.md §4.D performs before
// instantiate().
func (fa *FeatureArray) URISet() map[string]bool {
	set := make(map[string]bool, len(fa.uris))
	for _, c := range fa.uris {
		set[C.GoString(c)] = true
	}
	return set
}

func (fa *FeatureArray) cArray() **C.LV2_Feature {
	if fa == nil || len(fa.array) == 0 {
		return nil
	}
	return &fa.array[0]
}

// Free releases the C strings allocated for feature URIs. Must be
// called only after the last Instance built with this array has itself
// been freed.
func (fa *FeatureArray) Free() {
	for _, s := range fa.uris {
		C.free(unsafe.Pointer(s))
	}
	fa.uris = nil
	fa.feats = nil
	fa.array = nil
}
