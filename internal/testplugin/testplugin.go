// Package testplugin provides in-process fake LV2 plugins implementing
// pkg/instance's Backend/Descriptor/Runtime seam directly in Go, with
// no cgo and no real .lv2 bundle on disk. It exists so the host core's
// unit and end-to-end tests (spec.md §8's gain and worker-overload
// scenarios) can run in any environment, including ones without lilv
// installed.
package testplugin

import (
	"sync/atomic"
	"unsafe"

	"github.com/copperfret/lv2go/pkg/dsp/gain"
	"github.com/copperfret/lv2go/pkg/instance"
)

// Well-known URIs for the fakes this package offers.
const (
	GainURI         = "http://lv2go.test/plugins/gain"
	WorkOverloadURI = "http://lv2go.test/plugins/work-overload"
)

const workerScheduleURI = "http://lv2plug.in/ns/ext/worker#schedule"
const workerInterfaceURI = "http://lv2plug.in/ns/ext/worker#interface"

// Backend resolves the fixed set of fake plugins this package defines,
// satisfying instance.Backend.
type Backend struct {
	factories map[string]func() instance.Descriptor
}

// NewBackend builds a Backend offering every fake this package defines.
func NewBackend() *Backend {
	return &Backend{factories: map[string]func() instance.Descriptor{
		GainURI:         func() instance.Descriptor { return &gainDescriptor{} },
		WorkOverloadURI: func() instance.Descriptor { return &overloadDescriptor{} },
	}}
}

// Resolve implements instance.Backend.
func (b *Backend) Resolve(uri string) (instance.Descriptor, bool) {
	f, ok := b.factories[uri]
	if !ok {
		return nil, false
	}
	return f(), true
}

// --- gain -------------------------------------------------------------

// gain_db port index layout: 0 = audio in, 1 = audio out, 2 = gain_db.
const (
	gainPortIn = 0
	gainPortOut = 1
	gainPortGainDB = 2
)

type gainDescriptor struct{}

func (d *gainDescriptor) URI() string   { return GainURI }
func (d *gainDescriptor) NumPorts() int { return 3 }

func (d *gainDescriptor) Port(index int) instance.PortDescriptor {
	switch index {
	case gainPortIn:
		return instance.PortDescriptor{Index: index, Input: true, Kind: instance.KindAudio, Symbol: "in", Name: "In"}
	case gainPortOut:
		return instance.PortDescriptor{Index: index, Input: false, Kind: instance.KindAudio, Symbol: "out", Name: "Out"}
	case gainPortGainDB:
		return instance.PortDescriptor{
			Index: index, Input: true, Kind: instance.KindControl, Symbol: "gain_db", Name: "Gain",
			HasRange: true, Min: -90, Max: 24, Default: 0,
		}
	default:
		return instance.PortDescriptor{Index: index, Kind: instance.KindUnknown}
	}
}

func (d *gainDescriptor) RequiredFeatures() []string { return nil }

func (d *gainDescriptor) Instantiate(sampleRate float64, maxBlockLength int32, scheduler instance.Scheduler) (instance.Runtime, error) {
	return &gainRuntime{}, nil
}

type gainRuntime struct {
	audioIn, audioOut unsafe.Pointer
	gainDB            *float32
}

func (r *gainRuntime) ConnectPort(index int, buf unsafe.Pointer) {
	switch index {
	case gainPortIn:
		r.audioIn = buf
	case gainPortOut:
		r.audioOut = buf
	case gainPortGainDB:
		r.gainDB = (*float32)(buf)
	}
}

func (r *gainRuntime) Activate()   {}
func (r *gainRuntime) Deactivate() {}
func (r *gainRuntime) Free()       {}

func (r *gainRuntime) Run(frames uint32) {
	if r.audioIn == nil || r.audioOut == nil || r.gainDB == nil || frames == 0 {
		return
	}
	in := unsafe.Slice((*float32)(r.audioIn), int(frames))
	out := unsafe.Slice((*float32)(r.audioOut), int(frames))
	gain.ApplyBufferTo(in, gain.DbToLinear32(*r.gainDB), out)
}

func (r *gainRuntime) HasWorker() bool                                       { return false }
func (r *gainRuntime) CallWork(_ []byte, _ func([]byte) error) error         { return nil }
func (r *gainRuntime) CallWorkResponse(_ []byte) error                       { return nil }
func (r *gainRuntime) HasState() bool                                        { return false }
func (r *gainRuntime) SaveState(_ func(string, []byte) error) error          { return nil }
func (r *gainRuntime) RestoreState(_ func(string) ([]byte, bool)) error      { return nil }

// --- work-overload ------------------------------------------------------

// overloadDescriptor is a plugin with no audio ports that schedules a
// fixed flood of work requests every Run, driving spec.md §8's "Worker
// overload" scenario: the request ring saturates, the NoSpace counter
// rises, and the caller (pkg/instance, then the audio thread) never
// blocks on it.
type overloadDescriptor struct{}

const overloadRequestsPerRun = 10_000

func (d *overloadDescriptor) URI() string   { return WorkOverloadURI }
func (d *overloadDescriptor) NumPorts() int { return 0 }

func (d *overloadDescriptor) Port(index int) instance.PortDescriptor {
	return instance.PortDescriptor{Index: index, Kind: instance.KindUnknown}
}

func (d *overloadDescriptor) RequiredFeatures() []string { return []string{workerScheduleURI} }

// HasExtensionData lets pkg/instance's pre-Instantiate worker probe see
// that this fake implements the worker interface, the same duck-typed
// seam lv2Descriptor exposes for the real backend.
func (d *overloadDescriptor) HasExtensionData(uri string) bool {
	return uri == workerInterfaceURI
}

func (d *overloadDescriptor) Instantiate(sampleRate float64, maxBlockLength int32, scheduler instance.Scheduler) (instance.Runtime, error) {
	return &overloadRuntime{scheduler: scheduler}, nil
}

type overloadRuntime struct {
	scheduler instance.Scheduler
	responded atomic.Uint64
	noSpace   atomic.Uint64
}

func (r *overloadRuntime) ConnectPort(_ int, _ unsafe.Pointer) {}
func (r *overloadRuntime) Activate()                           {}
func (r *overloadRuntime) Deactivate()                         {}
func (r *overloadRuntime) Free()                               {}

func (r *overloadRuntime) Run(_ uint32) {
	if r.scheduler == nil {
		return
	}
	payload := []byte("overload")
	for i := 0; i < overloadRequestsPerRun; i++ {
		if err := r.scheduler.ScheduleWork(payload); err != nil {
			r.noSpace.Add(1)
		}
	}
}

func (r *overloadRuntime) HasWorker() bool { return true }

func (r *overloadRuntime) CallWork(payload []byte, respond func([]byte) error) error {
	return respond(payload)
}

func (r *overloadRuntime) CallWorkResponse(_ []byte) error {
	r.responded.Add(1)
	return nil
}

func (r *overloadRuntime) HasState() bool                                   { return false }
func (r *overloadRuntime) SaveState(_ func(string, []byte) error) error     { return nil }
func (r *overloadRuntime) RestoreState(_ func(string) ([]byte, bool)) error { return nil }

// Responded returns how many work responses this runtime has delivered,
// for tests asserting the audio side kept draining under load.
func (r *overloadRuntime) Responded() uint64 { return r.responded.Load() }

// NoSpace returns how many schedule attempts this runtime's Run saw
// rejected for lack of ring space.
func (r *overloadRuntime) NoSpace() uint64 { return r.noSpace.Load() }
