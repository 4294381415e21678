// Package feature builds the negotiated LV2 Feature Table a Plugin
// Instance offers at instantiate() time: URID map/unmap, the
// buffer-size option and its data-less markers, the worker-schedule
// function, and the state path-helper identity functions.
package feature

import (
	"fmt"
	"unsafe"

	"github.com/copperfret/lv2go/pkg/hosterr"
	"github.com/copperfret/lv2go/pkg/lv2c"
	"github.com/copperfret/lv2go/pkg/urid"
)

// Well-known LV2 feature URIs this table can offer.
const (
	URIMap                 = "http://lv2plug.in/ns/ext/urid#map"
	URIUnmap               = "http://lv2plug.in/ns/ext/urid#unmap"
	URIOptions             = "http://lv2plug.in/ns/ext/options#options"
	URIBoundedBlockLength  = "http://lv2plug.in/ns/ext/buf-size#boundedBlockLength"
	URIPowerOf2BlockLength = "http://lv2plug.in/ns/ext/buf-size#powerOf2BlockLength"
	URIFixedBlockLength    = "http://lv2plug.in/ns/ext/buf-size#fixedBlockLength"
	URIWorkerSchedule      = "http://lv2plug.in/ns/ext/worker#schedule"
	URIStateMapPath        = "http://lv2plug.in/ns/ext/state#mapPath"
	URIStateMakePath       = "http://lv2plug.in/ns/ext/state#makePath"
	URIStateFreePath       = "http://lv2plug.in/ns/ext/state#freePath"
)

// Table is the set of features offered to one Plugin Instance.
// Constructed once at initialize() time and torn down in Close once
// the instance that used it is freed.
type Table struct {
	maxBlockLength int32

	uridRelease      func()
	schedulerRelease func()

	array *lv2c.FeatureArray

	mapData      unsafe.Pointer
	unmapData    unsafe.Pointer
	scheduleData unsafe.Pointer
	optionsData  unsafe.Pointer
	mapPathData  unsafe.Pointer
	makePathData unsafe.Pointer
	freePathData unsafe.Pointer
}

// Scheduler is satisfied by pkg/worker.Worker; kept as an alias so
// callers don't need to import pkg/lv2c directly just to build a Table.
type Scheduler = lv2c.Scheduler

// New builds a Feature Table for one instance. mapper is normally the
// engine-wide *urid.Registry; scheduler is nil when the plugin has no
// worker interface (the worker-schedule feature is then simply
// omitted, so plugins that don't require it still load).
func New(mapper *urid.Registry, maxBlockLength int32, scheduler Scheduler) *Table {
	t := &Table{maxBlockLength: maxBlockLength}

	mapData, unmapData, uridRelease := lv2c.NewURIDFeatures(mapper)
	t.mapData, t.unmapData, t.uridRelease = mapData, unmapData, uridRelease

	t.optionsData = lv2c.NewMaxBlockLengthOption(maxBlockLength)
	t.mapPathData = lv2c.NewIdentityPathMapper()
	t.makePathData = lv2c.NewIdentityPathMaker()
	t.freePathData = lv2c.NewIdentityPathFreer()

	pairs := map[string]unsafe.Pointer{
		URIMap:                 t.mapData,
		URIUnmap:               t.unmapData,
		URIOptions:             t.optionsData,
		URIBoundedBlockLength:  nil,
		URIPowerOf2BlockLength: nil,
		URIFixedBlockLength:    nil,
		URIStateMapPath:        t.mapPathData,
		URIStateMakePath:       t.makePathData,
		URIStateFreePath:       t.freePathData,
	}

	if scheduler != nil {
		scheduleData, schedulerRelease := lv2c.NewWorkerScheduleFeature(scheduler)
		t.scheduleData, t.schedulerRelease = scheduleData, schedulerRelease
		pairs[URIWorkerSchedule] = t.scheduleData
	}

	t.array = lv2c.NewFeatureArray(pairs)
	return t
}

// Supports reports whether every URI in required is present in this
// table, the check spec.md §4.D requires before instantiate().
func (t *Table) Supports(required []string) (missing []string, ok bool) {
	have := t.array.URISet()
	for _, req := range required {
		if !have[req] {
			missing = append(missing, req)
		}
	}
	return missing, len(missing) == 0
}

// Array returns the underlying NULL-terminated LV2_Feature array ready
// to pass to Plugin.Instantiate.
func (t *Table) Array() *lv2c.FeatureArray {
	return t.array
}

// Close releases every resource the table owns. Must be called only
// after the Instance built from it has been freed.
func (t *Table) Close() {
	if t.array != nil {
		t.array.Free()
	}
	if t.uridRelease != nil {
		t.uridRelease()
	}
	if t.schedulerRelease != nil {
		t.schedulerRelease()
	}
	lv2c.FreeMaxBlockLengthOption(t.optionsData)
	lv2c.FreeIdentityPathHelper(t.mapPathData)
	lv2c.FreeIdentityPathHelper(t.makePathData)
	lv2c.FreeIdentityPathHelper(t.freePathData)
}

// ErrUnsupportedFeature is wrapped with the missing URIs when a plugin
// requires a feature this host cannot offer.
type ErrUnsupportedFeature struct {
	Missing []string
}

func (e *ErrUnsupportedFeature) Error() string {
	return fmt.Sprintf("feature: unsupported required feature(s): %v", e.Missing)
}

// Unwrap lets errors.Is match hosterr.ErrUnsupportedFeature.
func (e *ErrUnsupportedFeature) Unwrap() error {
	return hosterr.ErrUnsupportedFeature
}
