package instance

import "unsafe"

// Backend resolves a plugin URI to something pkg/instance can
// initialize: the real lilv-backed plugin in production
// (lv2backend.go, wrapping *lv2c.World), or internal/testplugin's
// in-process fakes in tests that run without cgo or a real .lv2
// bundle. pkg/instance drives both through this one seam, per spec.md
// §9's "one Plugin Instance type, one process() entry point" note.
type Backend interface {
	// Resolve looks up uri and returns a Descriptor, or ok=false if the
	// backend has no such plugin.
	Resolve(uri string) (Descriptor, bool)
}

// Descriptor is one resolved, not-yet-instantiated plugin.
type Descriptor interface {
	URI() string
	NumPorts() int
	Port(index int) PortDescriptor
	RequiredFeatures() []string

	// Instantiate loads and activates-ready the plugin at sampleRate,
	// offering maxBlockLength and scheduler (nil if the plugin has no
	// worker interface) as the negotiated feature set. The returned
	// Runtime has not yet had ConnectPort/Activate called.
	Instantiate(sampleRate float64, maxBlockLength int32, scheduler Scheduler) (Runtime, error)
}

// Scheduler is the DSP-side worker-schedule call; satisfied by
// *pkg/worker.Worker.
type Scheduler interface {
	ScheduleWork(payload []byte) error
}

// Runtime is a running plugin instance's control surface, independent
// of backend.
type Runtime interface {
	ConnectPort(index int, buf unsafe.Pointer)
	Activate()
	Deactivate()
	Run(frames uint32)
	Free()

	HasWorker() bool
	CallWork(payload []byte, respond func([]byte) error) error
	CallWorkResponse(response []byte) error

	// HasState reports whether the plugin carries state beyond its
	// control ports (spec.md §4.H); pkg/state only calls Save/RestoreState
	// when this is true.
	HasState() bool
	// SaveState calls store once per plugin-defined state key, named by
	// its full URI (the Runtime is responsible for any URID<->string
	// resolution its backend needs internally).
	SaveState(store func(keyURI string, value []byte) error) error
	// RestoreState calls retrieve for each key the plugin asks for while
	// restoring; found is false if the host has no value for keyURI.
	RestoreState(retrieve func(keyURI string) (value []byte, found bool)) error
}
