// Package instance implements the host's Plugin Instance (spec.md
// §4.F): per-plugin port classification, feature negotiation, buffer
// allocation, and the real-time process() loop that connects audio,
// injects UI->DSP atom events, runs the plugin, drains worker
// responses, and exports DSP->UI atom events.
package instance

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/copperfret/lv2go/internal/logging"
	"github.com/copperfret/lv2go/pkg/atom"
	"github.com/copperfret/lv2go/pkg/hosterr"
	"github.com/copperfret/lv2go/pkg/ringbuf"
	"github.com/copperfret/lv2go/pkg/urid"
	"github.com/copperfret/lv2go/pkg/worker"
)

// ActivationState is a Plugin Instance's lifecycle position, per
// spec.md §3.
type ActivationState int32

const (
	Unloaded ActivationState = iota
	Ready
	Active
	ShuttingDown
)

const (
	defaultAtomBufferSize  = 8192
	defaultUIRingCapacity  = 16384
	defaultWorkerRingBytes = 8192
)

// atomPortState is the per-atom-port bookkeeping spec.md §3's "Atom
// State" describes: for an input port, one last-writer-wins pending
// slot; for an output port, one DSP->UI ring.
type atomPortState struct {
	buf          []byte // the backing sequence buffer, ConnectPort'd once
	sequenceType urid.URID

	// input only
	pending     atomic.Bool
	pendingType urid.URID
	pendingBody []byte // fixed capacity, bounded by the port's negotiated atom size
	pendingLen  int

	// output only
	ring *ringbuf.Buffer
}

// PluginInstance is one hosted LV2 plugin: port table, atom/control
// buffers, the underlying Runtime handle, and an optional Worker.
// While Active, its port count, buffer sizes, and Runtime are frozen.
type PluginInstance struct {
	uri            string
	sampleRate     float64
	maxBlockLength int32
	channels       int

	runtime Runtime

	ports          []PortDescriptor
	controlValues  []float32
	controls       []Control
	hasControl     []bool
	symbolToIndex  map[string]int

	atoms       []*atomPortState // nil entries for non-atom ports
	inputAudio  []int            // port indices, ascending
	outputAudio []int

	scratchIn  [][]float32 // per-channel scratch for stereo deinterleave, sized maxBlockLength
	scratchOut [][]float32

	worker *worker.Worker

	state    atomic.Int32
	shutdown atomic.Bool
	overruns atomic.Uint64
}

// New performs spec.md §4.F's initialize() sequence: resolve the
// descriptor, size the atom buffers, negotiate features, instantiate,
// spawn a Worker if the plugin has one, allocate and connect every
// non-audio port, and activate.
func New(backend Backend, mapper *urid.Registry, uri string, sampleRate float64, maxBlockLength int32, channels int) (*PluginInstance, error) {
	desc, ok := backend.Resolve(uri)
	if !ok {
		return nil, fmt.Errorf("instance: %w: %s", hosterr.ErrUnknownPlugin, uri)
	}

	numPorts := desc.NumPorts()
	ports := make([]PortDescriptor, numPorts)
	atomBufSize := defaultAtomBufferSize
	for i := 0; i < numPorts; i++ {
		pd := desc.Port(i)
		ports[i] = pd
		if pd.Kind == KindAtom && pd.HasMinimumSize && pd.MinimumSize > atomBufSize {
			atomBufSize = pd.MinimumSize
		}
	}

	pi := &PluginInstance{
		uri:            uri,
		sampleRate:     sampleRate,
		maxBlockLength: maxBlockLength,
		channels:       channels,
		ports:          ports,
		controlValues:  make([]float32, numPorts),
		controls:       make([]Control, numPorts),
		hasControl:     make([]bool, numPorts),
		symbolToIndex:  make(map[string]int, numPorts),
		atoms:          make([]*atomPortState, numPorts),
		scratchIn:      make([][]float32, channels),
		scratchOut:     make([][]float32, channels),
	}
	for c := 0; c < channels; c++ {
		pi.scratchIn[c] = make([]float32, maxBlockLength)
		pi.scratchOut[c] = make([]float32, maxBlockLength)
	}

	for i := 0; i < numPorts; i++ {
		pd := ports[i]
		pi.symbolToIndex[pd.Symbol] = i
		switch pd.Kind {
		case KindAudio:
			if pd.Input {
				pi.inputAudio = append(pi.inputAudio, i)
			} else {
				pi.outputAudio = append(pi.outputAudio, i)
			}
		case KindControl:
			pi.hasControl[i] = true
			pi.controls[i] = controlFromDescriptor(pd)
			pi.controlValues[i] = pd.Default
		case KindAtom:
			seqType := mapper.Map(urid.AtomSequence)
			st := &atomPortState{buf: make([]byte, atomBufSize), sequenceType: seqType}
			if pd.Input {
				bodyCap := pd.MinimumSize
				if !pd.HasMinimumSize || bodyCap <= 0 {
					bodyCap = atomBufSize
				}
				st.pendingBody = make([]byte, bodyCap)
			} else {
				st.ring = ringbuf.New(defaultUIRingCapacity)
			}
			pi.atoms[i] = st
		}
	}

	// spec.md §4.F step 5: the Worker is only known to exist after
	// Instantiate exposes the running instance's extension data, but the
	// worker-schedule feature must be present *before* Instantiate if the
	// plugin requires it. pi.dispatchWork closes over pi.runtime, which is
	// nil until Instantiate returns below; the Worker's background thread
	// cannot observe a request before the plugin's run() schedules one,
	// and that cannot happen before Instantiate+Activate complete, so the
	// closure is safe to wire up now.
	hasWorker := requiresWorkerSchedule(desc.RequiredFeatures()) || mightHaveWorker(desc)
	var scheduler Scheduler
	if hasWorker {
		pi.worker = worker.New(pi.dispatchWork, defaultWorkerRingBytes)
		scheduler = pi.worker
	}

	runtime, err := desc.Instantiate(sampleRate, maxBlockLength, scheduler)
	if err != nil {
		if pi.worker != nil {
			pi.worker.Stop()
		}
		return nil, err
	}
	pi.runtime = runtime

	if pi.worker != nil && !runtime.HasWorker() {
		// Negotiated the feature defensively but the plugin turned out not
		// to implement work(); tear the idle Worker back down rather than
		// leaving an unused background thread running.
		pi.worker.Stop()
		pi.worker = nil
	}

	for i := 0; i < numPorts; i++ {
		switch ports[i].Kind {
		case KindControl:
			runtime.ConnectPort(i, unsafe.Pointer(&pi.controlValues[i]))
		case KindAtom:
			st := pi.atoms[i]
			atom.InitSequenceBuffer(st.buf, st.sequenceType)
			runtime.ConnectPort(i, unsafe.Pointer(&st.buf[0]))
		}
	}

	runtime.Activate()
	pi.state.Store(int32(Active))
	logging.Default().WithField("uri", uri).Info("instance: activated")
	return pi, nil
}

func controlFromDescriptor(pd PortDescriptor) Control {
	c := Control{Kind: ControlFloat}
	if pd.Trigger {
		c.Kind = ControlTrigger
	} else if pd.Toggled {
		c.Kind = ControlToggle
	}
	if pd.HasRange {
		c.Min, c.Max, c.Default = pd.Min, pd.Max, pd.Default
	} else {
		c.Min, c.Max = 0, 1
	}
	if c.Kind == ControlToggle {
		c.Min, c.Max = 0, 1
	}
	return c
}

// requiresWorkerSchedule and mightHaveWorker both hint at whether a
// Worker is worth spawning before Instantiate; either signal is enough
// to negotiate the feature, and New() tears the Worker back down after
// Instantiate if the plugin did not actually implement work().
func requiresWorkerSchedule(required []string) bool {
	for _, uri := range required {
		if uri == "http://lv2plug.in/ns/ext/worker#schedule" {
			return true
		}
	}
	return false
}

func mightHaveWorker(desc Descriptor) bool {
	type extensionProbe interface{ HasExtensionData(uri string) bool }
	p, ok := desc.(extensionProbe)
	if !ok {
		return false
	}
	return p.HasExtensionData("http://lv2plug.in/ns/ext/worker#interface")
}

// URI returns the hosted plugin's URI.
func (pi *PluginInstance) URI() string { return pi.uri }

// State returns the instance's current activation state.
func (pi *PluginInstance) State() ActivationState { return ActivationState(pi.state.Load()) }

// Ports returns the frozen port table.
func (pi *PluginInstance) Ports() []PortDescriptor { return pi.ports }

// Overruns returns the count of atom events dropped on the audio thread
// for lack of space: DSP->UI events the output ring could not take and
// UI->DSP events the input sequence buffer could not take. This is
// spec.md §7's NoSpace counter.
func (pi *PluginInstance) Overruns() uint64 { return pi.overruns.Load() }

// WorkerHealth returns the Worker's no-space/discarded-response
// counters, or (0, 0) if this instance has no Worker.
func (pi *PluginInstance) WorkerHealth() (noSpace, discarded uint64) {
	if pi.worker == nil {
		return 0, 0
	}
	return pi.worker.Health()
}

// SetControl clamps value into [min,max] and stores it in the named
// port's backing scalar. Unknown symbols or non-control ports are
// rejected with hosterr.ErrInvalidArgument and change nothing, matching
// spec.md §9's "expose only symbol- or port-id-keyed setters" guidance.
func (pi *PluginInstance) SetControl(symbol string, value float32) error {
	idx, ok := pi.symbolToIndex[symbol]
	if !ok || !pi.hasControl[idx] {
		return hosterr.ErrInvalidArgument
	}
	return pi.SetControlAtPort(idx, value)
}

// SetControlAtPort is the port-id-keyed sibling of SetControl.
func (pi *PluginInstance) SetControlAtPort(index int, value float32) error {
	if index < 0 || index >= len(pi.ports) || !pi.hasControl[index] {
		return hosterr.ErrInvalidArgument
	}
	stored, updated := pi.controls[index].normalize(value)
	pi.controls[index] = updated
	pi.controlValues[index] = stored
	return nil
}

// ControlValue returns the current backing value of a control port by
// symbol, and whether that symbol names a control port at all.
func (pi *PluginInstance) ControlValue(symbol string) (float32, bool) {
	idx, ok := pi.symbolToIndex[symbol]
	if !ok || !pi.hasControl[idx] {
		return 0, false
	}
	return pi.controlValues[idx], true
}

// SetAtomInput stores payload as the pending UI->DSP message for the
// atom input port named by symbol, overwriting any not-yet-consumed
// previous write (last-writer-wins, spec.md §3). Payloads larger than
// the port's negotiated buffer are rejected rather than truncated,
// spec.md §9's buffer-overrun design note.
func (pi *PluginInstance) SetAtomInput(symbol string, eventType urid.URID, payload []byte) error {
	idx, ok := pi.symbolToIndex[symbol]
	if !ok || pi.ports[idx].Kind != KindAtom || !pi.ports[idx].Input {
		return hosterr.ErrInvalidArgument
	}
	st := pi.atoms[idx]
	if len(payload) > len(st.pendingBody) {
		return hosterr.ErrInvalidArgument
	}
	copy(st.pendingBody, payload)
	st.pendingLen = len(payload)
	st.pendingType = eventType
	st.pending.Store(true) // release: DSP's Swap(false) pairs with this
	return nil
}

// ReadAtomOutput drains up to len(dst) bytes of raw (header+body) atom
// frames from the named output port's DSP->UI ring.
func (pi *PluginInstance) ReadAtomOutput(symbol string, dst []byte) int {
	idx, ok := pi.symbolToIndex[symbol]
	if !ok || pi.ports[idx].Kind != KindAtom || pi.ports[idx].Input {
		return 0
	}
	return pi.atoms[idx].ring.Read(dst)
}

// Process is the RT-critical operation: connect audio, inject pending
// UI->DSP atoms, run the plugin, drain worker responses, export
// DSP->UI atoms. in/out are interleaved float32, length frames*channels.
func (pi *PluginInstance) Process(in, out []float32, frames int) error {
	if frames <= 0 || frames > int(pi.maxBlockLength) {
		return hosterr.ErrInvalidArgument
	}
	if pi.shutdown.Load() || pi.State() != Active {
		return hosterr.ErrInvalidArgument
	}
	if (len(pi.inputAudio) > 0 && len(in) < frames*pi.channels) || (len(pi.outputAudio) > 0 && len(out) < frames*pi.channels) {
		return hosterr.ErrInvalidArgument
	}

	pi.connectAudioIn(in, frames)
	pi.connectAudioOut(frames)
	pi.injectPendingAtoms(frames)

	pi.runtime.Run(uint32(frames))

	if pi.worker != nil {
		pi.worker.DrainResponses(pi.runtime.CallWorkResponse)
	}

	pi.exportAtoms()
	pi.resetAtomInputs()

	pi.deinterleaveOut(out, frames)
	return nil
}

func (pi *PluginInstance) connectAudioIn(in []float32, frames int) {
	for k, idx := range pi.inputAudio {
		ch := k
		if pi.channels > 0 {
			ch = k % pi.channels
		}
		if pi.channels <= 1 {
			if len(in) >= frames {
				pi.runtime.ConnectPort(idx, unsafe.Pointer(&in[0]))
			}
			continue
		}
		buf := pi.scratchIn[ch][:frames]
		for i := 0; i < frames; i++ {
			buf[i] = in[i*pi.channels+ch]
		}
		pi.runtime.ConnectPort(idx, unsafe.Pointer(&buf[0]))
	}
}

func (pi *PluginInstance) connectAudioOut(frames int) {
	for k, idx := range pi.outputAudio {
		ch := k
		if pi.channels > 0 {
			ch = k % pi.channels
		}
		buf := pi.scratchOut[ch][:frames]
		pi.runtime.ConnectPort(idx, unsafe.Pointer(&buf[0]))
	}
}

func (pi *PluginInstance) deinterleaveOut(out []float32, frames int) {
	if len(pi.outputAudio) == 0 {
		return
	}
	if pi.channels <= 1 {
		copy(out[:frames], pi.scratchOut[0][:frames])
		return
	}
	for k := range pi.outputAudio {
		ch := k % pi.channels
		buf := pi.scratchOut[ch][:frames]
		for i := 0; i < frames; i++ {
			out[i*pi.channels+ch] = buf[i]
		}
	}
}

// injectPendingAtoms wraps each atom input port's pending payload in a
// single frame-0 event and appends it to that port's sequence, clearing
// the pending flag via an acquire exchange (spec.md §4.F, testable
// property 3: observed exactly once, exactly one cycle later). A payload
// the sequence buffer cannot hold is dropped and counted in Overruns.
func (pi *PluginInstance) injectPendingAtoms(frames int) {
	for i, st := range pi.atoms {
		if st == nil || !pi.ports[i].Input {
			continue
		}
		if !st.pending.Swap(false) {
			continue
		}
		if err := atom.AppendEvent(st.buf, len(st.buf), st.pendingType, 0, st.pendingBody[:st.pendingLen]); err != nil {
			pi.overruns.Add(1)
		}
	}
}

// exportAtoms walks every atom output port's produced sequence and
// writes each (header+body) atom into that port's DSP->UI ring,
// skipping empty-bodied events or ones whose enclosing sequence never
// got a type set.
func (pi *PluginInstance) exportAtoms() {
	var scratch [256]byte
	for i, st := range pi.atoms {
		if st == nil || pi.ports[i].Input {
			continue
		}
		if st.sequenceType == urid.None {
			continue
		}
		atom.WalkEvents(st.buf, func(_ int64, eventType urid.URID, body []byte) bool {
			if len(body) == 0 {
				return true
			}
			a := atom.Atom{Header: atom.Header{Type: eventType, Size: uint32(len(body))}, Body: body}
			n := a.EncodedLen()
			if n <= len(scratch) {
				if _, err := a.Encode(scratch[:n]); err != nil {
					return true
				}
				if err := st.ring.TryWrite(scratch[:n]); err != nil {
					pi.overruns.Add(1)
				}
				return true
			}
			// Too large to stage in scratch: once the whole frame is known
			// to fit, write header, body and zero padding in turn.
			if st.ring.WriteSpace() < uint64(n) {
				pi.overruns.Add(1)
				return true
			}
			hn, _ := atom.Atom{Header: a.Header}.Encode(scratch[:])
			st.ring.Write(scratch[:hn])
			st.ring.Write(body)
			pad := scratch[:n-hn-len(body)]
			for j := range pad {
				pad[j] = 0
			}
			st.ring.Write(pad)
			return true
		})
	}
}

// resetAtomInputs re-initializes every atom port's sequence body for the
// next cycle: inputs go back to empty so a port without a fresh pending
// write carries no stale events forward; outputs are reset so the
// plugin starts each run() with a clean sequence to append into.
func (pi *PluginInstance) resetAtomInputs() {
	for _, st := range pi.atoms {
		if st == nil {
			continue
		}
		atom.InitSequenceBuffer(st.buf, st.sequenceType)
	}
}

// dispatchWork is the Worker's WorkFunc, wired up before Instantiate
// returns a Runtime (see New's ordering note) but never actually
// invoked until the plugin schedules work from inside Run.
func (pi *PluginInstance) dispatchWork(payload []byte, respond func([]byte) error) error {
	if pi.runtime == nil {
		return nil
	}
	return pi.runtime.CallWork(payload, respond)
}

// SaveExtensionState invokes the plugin's state extension save() entry
// point, if it has one, delivering every recorded key to store. A no-op
// for plugins that carry no state beyond their control ports.
func (pi *PluginInstance) SaveExtensionState(store func(keyURI string, value []byte) error) error {
	if !pi.runtime.HasState() {
		return nil
	}
	return pi.runtime.SaveState(store)
}

// RestoreExtensionState invokes the plugin's state extension restore()
// entry point, if it has one, resolving each key it asks for via
// retrieve.
func (pi *PluginInstance) RestoreExtensionState(retrieve func(keyURI string) ([]byte, bool)) error {
	if !pi.runtime.HasState() {
		return nil
	}
	return pi.runtime.RestoreState(retrieve)
}

// Stop deactivates the instance without freeing it; it may be
// reactivated with Start. Audio thread: must not be called here, this
// is a Control Surface / UI-thread operation.
func (pi *PluginInstance) Stop() {
	pi.runtime.Deactivate()
	pi.state.Store(int32(Ready))
}

// Start reactivates a previously Stopped instance.
func (pi *PluginInstance) Start() {
	pi.runtime.Activate()
	pi.state.Store(int32(Active))
}

// Close implements spec.md §4.F's close(): set shutdown, join the
// Worker, deactivate, free the instance. Safe to call once; no method
// may be called on this PluginInstance afterward.
func (pi *PluginInstance) Close() {
	pi.shutdown.Store(true)
	pi.state.Store(int32(ShuttingDown))
	if pi.worker != nil {
		pi.worker.Stop()
	}
	pi.runtime.Deactivate()
	pi.runtime.Free()
	pi.state.Store(int32(Unloaded))
	logging.Default().WithField("uri", pi.uri).Info("instance: closed")
}
