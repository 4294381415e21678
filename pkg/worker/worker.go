// Package worker implements the LV2 worker extension's host side: a
// background thread that drains work requests scheduled from inside a
// plugin's run(), invokes the plugin's non-RT work routine, and
// returns responses the DSP thread feeds back on the next cycle.
package worker

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	"github.com/copperfret/lv2go/internal/logging"
	"github.com/copperfret/lv2go/pkg/hosterr"
	"github.com/copperfret/lv2go/pkg/ringbuf"
)

// ErrNoSpace is returned by ScheduleWork when the request ring cannot
// hold the payload; the plugin is expected to treat this as a
// no-space condition and retry on a later cycle.
var ErrNoSpace = hosterr.ErrNoSpace

const (
	defaultRingCapacity = 8192
	pollInterval        = time.Millisecond
	lengthPrefixSize    = 4
)


// WorkFunc matches the plugin's LV2_Worker_Interface.work entry point:
// given a payload, it performs non-RT work and calls respond zero or
// more times with a result to hand back to the DSP thread.
type WorkFunc func(payload []byte, respond func(response []byte) error) error

// ResponseFunc matches LV2_Worker_Interface.work_response: delivers
// one response back into the plugin on the DSP thread.
type ResponseFunc func(response []byte) error

// Worker owns the request/response ring pair and the background
// thread draining the request side. One Worker per Plugin Instance
// that advertises the worker extension.
type Worker struct {
	requests  *ringbuf.Buffer
	responses *ringbuf.Buffer

	work WorkFunc

	running atomic.Bool
	wg      sync.WaitGroup

	noSpace   atomic.Uint64
	discarded atomic.Uint64

	scratch         []byte // response-drain scratch buffer, sized once
	scheduleScratch []byte // ScheduleWork's frame-build scratch, audio-thread only
	respondScratch  []byte // respond's frame-build scratch, worker-thread only
}

// New creates a Worker backed by two rings of the given capacity
// (rounded up to a power of two, default 8192 bytes each per spec.md
// §4.G) and starts its background thread. work is the plugin's own
// work() entry point, reached through pkg/lv2c.Instance.WorkerInterface
// by the caller (pkg/instance), kept here only as a plain callback so
// this package carries no cgo dependency of its own.
func New(work WorkFunc, ringCapacity uint32) *Worker {
	if ringCapacity == 0 {
		ringCapacity = defaultRingCapacity
	}
	w := &Worker{
		requests:        ringbuf.New(ringCapacity),
		responses:       ringbuf.New(ringCapacity),
		work:            work,
		scratch:         make([]byte, ringCapacity),
		scheduleScratch: make([]byte, ringCapacity),
		respondScratch:  make([]byte, ringCapacity),
	}
	w.running.Store(true)
	w.wg.Add(1)
	go w.loop()
	return w
}

// ScheduleWork is the DSP-side schedule call: it must never block or
// allocate on the audio thread, and returns ErrNoSpace rather than
// waiting when the request ring is full. The frame is built into a
// scratch buffer sized once at construction rather than allocated per
// call; a payload too large to ever fit the ring is treated the same
// as a full ring.
func (w *Worker) ScheduleWork(payload []byte) error {
	n := lengthPrefixSize + len(payload)
	if n > len(w.scheduleScratch) {
		w.noSpace.Add(1)
		return ErrNoSpace
	}
	frame := w.scheduleScratch[:n]
	binary.LittleEndian.PutUint32(frame[:lengthPrefixSize], uint32(len(payload)))
	copy(frame[lengthPrefixSize:], payload)

	if err := w.requests.TryWrite(frame); err != nil {
		w.noSpace.Add(1)
		return ErrNoSpace
	}
	return nil
}

// loop is the background worker thread: polls the request ring,
// invokes work() for each entry, and writes every response onto the
// response ring. Sleeps ~1ms when the ring has less than a full
// length prefix available, per spec.md §4.G.
func (w *Worker) loop() {
	defer w.wg.Done()

	var lenBuf [lengthPrefixSize]byte
	var payload []byte

	for w.running.Load() {
		if w.requests.ReadSpace() < lengthPrefixSize {
			time.Sleep(pollInterval)
			continue
		}

		w.requests.Read(lenBuf[:])
		size := binary.LittleEndian.Uint32(lenBuf[:])
		if cap(payload) < int(size) {
			payload = make([]byte, size)
		}
		payload = payload[:size]
		w.requests.Read(payload)

		if w.work == nil {
			continue
		}
		if err := w.work(payload, w.respond); err != nil {
			logging.Default().WithError(err).Warn("worker: plugin work() returned error")
		}
	}
}

// respond writes one length-prefixed response to the response ring.
// Called from inside the plugin's work(), on the Worker thread. Uses
// the same build-into-scratch approach as ScheduleWork.
func (w *Worker) respond(response []byte) error {
	n := lengthPrefixSize + len(response)
	if n > len(w.respondScratch) {
		return ErrNoSpace
	}
	frame := w.respondScratch[:n]
	binary.LittleEndian.PutUint32(frame[:lengthPrefixSize], uint32(len(response)))
	copy(frame[lengthPrefixSize:], response)
	return w.responses.TryWrite(frame)
}

// DrainResponses is the DSP-side drain, called once per process()
// cycle after Run: it feeds every length-prefixed response currently
// in the response ring back to the plugin via deliver. A response
// larger than this Worker's scratch buffer is read and discarded (the
// response ring cannot be rewound), incrementing the discarded counter.
func (w *Worker) DrainResponses(deliver ResponseFunc) {
	var lenBuf [lengthPrefixSize]byte
	for w.responses.ReadSpace() >= lengthPrefixSize {
		w.responses.Peek(lenBuf[:])
		size := binary.LittleEndian.Uint32(lenBuf[:])
		total := uint64(lengthPrefixSize) + uint64(size)
		if w.responses.ReadSpace() < total {
			return // partial entry not yet fully written; wait for next cycle
		}

		w.responses.Discard(lengthPrefixSize)
		if int(size) > len(w.scratch) {
			w.responses.Discard(uint64(size))
			w.discarded.Add(1)
			continue
		}
		body := w.scratch[:size]
		w.responses.Read(body)
		if deliver != nil {
			// An error from work_response() is not reported: this runs on
			// the audio thread, which does not log.
			_ = deliver(body)
		}
	}
}

// Health returns the NoSpace and discarded-response counters, exposed
// read-only to the UI thread per spec.md §7.
func (w *Worker) Health() (noSpace, discarded uint64) {
	return w.noSpace.Load(), w.discarded.Load()
}

// Stop signals the background thread to exit, joins it, and leaves the
// rings ready to be garbage collected. The worker thread observes the
// stop signal within one poll period, per spec.md §4.G.
func (w *Worker) Stop() {
	w.running.Store(false)
	w.wg.Wait()
}
