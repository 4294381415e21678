// Package chain implements the Engine's fixed-size plugin chain:
// NumSlots ordered Plugin Instance slots that the audio thread walks
// once per process() call, each instance's output feeding the next's
// input, per spec.md §4.I.
//
// The ordered walk-and-apply-in-place shape is the same one the
// teacher's framework/dsp.Chain uses for its stateless []float32
// processors; here the slots hold live Plugin Instances behind atomic
// pointers instead, so the audio thread can read them lock-free while
// the control surface hot-swaps a slot from another thread.
package chain

import (
	"sync"
	"sync/atomic"

	"github.com/copperfret/lv2go/internal/logging"
	"github.com/copperfret/lv2go/pkg/hosterr"
	"github.com/copperfret/lv2go/pkg/instance"
)

// NumSlots is the fixed slot count, per spec.md §4.I's reference design.
const NumSlots = 4

// reclaimEntry is a retired slot occupant waiting out its grace period
// before Close() runs.
type reclaimEntry struct {
	pi        *instance.PluginInstance
	retiredAt uint64
}

// Chain is the Engine's ordered plugin chain. The zero value is not
// usable; construct with New.
type Chain struct {
	slots [NumSlots]atomic.Pointer[instance.PluginInstance]

	effectsOn atomic.Bool
	quantum   atomic.Uint64
	overruns  atomic.Uint64

	maxBlockLength int32
	channels       int
	scratchA       []float32
	scratchB       []float32

	mu      sync.Mutex // UI-thread only: serializes Add/Remove/Close and the reclaim sweep
	reclaim []reclaimEntry
}

// New builds an empty, effects-on Chain sized for up to maxBlockLength
// frames of channels-wide interleaved audio per Process call. The
// scratch buffers are allocated once here and reused for the life of
// the Chain, satisfying the no-allocation-in-process() rule.
func New(maxBlockLength int32, channels int) *Chain {
	c := &Chain{
		maxBlockLength: maxBlockLength,
		channels:       channels,
		scratchA:       make([]float32, int(maxBlockLength)*channels),
		scratchB:       make([]float32, int(maxBlockLength)*channels),
	}
	c.effectsOn.Store(true)
	return c
}

// Add installs pi into slot, closing out whatever instance previously
// occupied it (after the usual grace period, not synchronously).
func (c *Chain) Add(slot int, pi *instance.PluginInstance) error {
	if slot < 0 || slot >= NumSlots || pi == nil {
		return hosterr.ErrInvalidArgument
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepReclaimLocked()

	old := c.slots[slot].Swap(pi)
	if old != nil {
		c.retireLocked(old)
	}
	logging.Default().WithField("slot", slot).WithField("uri", pi.URI()).Info("chain: slot filled")
	return nil
}

// Remove empties slot, retiring whatever instance occupied it.
func (c *Chain) Remove(slot int) error {
	if slot < 0 || slot >= NumSlots {
		return hosterr.ErrInvalidArgument
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepReclaimLocked()

	old := c.slots[slot].Swap(nil)
	if old != nil {
		c.retireLocked(old)
		logging.Default().WithField("slot", slot).Info("chain: slot emptied")
	}
	return nil
}

// At returns the instance currently occupying slot, or nil.
func (c *Chain) At(slot int) (*instance.PluginInstance, error) {
	if slot < 0 || slot >= NumSlots {
		return nil, hosterr.ErrInvalidArgument
	}
	return c.slots[slot].Load(), nil
}

// SetEffectOn toggles the chain-wide bypass flag the Control Surface
// exposes (spec.md §6's setEffectOn).
func (c *Chain) SetEffectOn(on bool) {
	c.effectsOn.Store(on)
}

// SetParameter looks up slot and delegates to its instance's
// setControl, by port index (spec.md §6's setValue).
func (c *Chain) SetParameter(slot, portIndex int, value float32) error {
	if slot < 0 || slot >= NumSlots {
		return hosterr.ErrInvalidArgument
	}
	pi := c.slots[slot].Load()
	if pi == nil {
		return hosterr.ErrInvalidArgument
	}
	return pi.SetControlAtPort(portIndex, value)
}

// Overruns reports how many slot-local process() errors this chain
// has silently degraded to pass-through, per spec.md §7's NoSpace/
// InvalidArgument policy for the audio thread.
func (c *Chain) Overruns() uint64 {
	return c.overruns.Load()
}

// Process walks the filled slots in order, each instance's output
// feeding the next's input, writing the final result to out. If
// effects are disabled or no slot is filled, it copies in to out.
// Audio-thread only: no allocation, no lock.
func (c *Chain) Process(in, out []float32, frames int) error {
	c.quantum.Add(1)

	if frames <= 0 || int32(frames) > c.maxBlockLength {
		return hosterr.ErrInvalidArgument
	}
	n := frames * c.channels
	if len(in) < n || len(out) < n {
		return hosterr.ErrInvalidArgument
	}

	if !c.effectsOn.Load() {
		copy(out[:n], in[:n])
		return nil
	}

	var active [NumSlots]*instance.PluginInstance
	count := 0
	for i := range c.slots {
		if pi := c.slots[i].Load(); pi != nil {
			active[count] = pi
			count++
		}
	}
	if count == 0 {
		copy(out[:n], in[:n])
		return nil
	}

	cur := in
	useA := true
	for i := 0; i < count; i++ {
		var next []float32
		if useA {
			next = c.scratchA[:n]
		} else {
			next = c.scratchB[:n]
		}
		if err := active[i].Process(cur, next, frames); err != nil {
			copy(next[:n], cur[:n])
			c.overruns.Add(1)
		}
		cur = next
		useA = !useA
	}
	copy(out[:n], cur[:n])
	return nil
}

// Close empties every slot and closes every instance immediately,
// bypassing the usual grace period: the caller is tearing the whole
// chain down, so there is no audio thread left to race against.
func (c *Chain) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.slots {
		if pi := c.slots[i].Swap(nil); pi != nil {
			pi.Close()
		}
	}
	for _, e := range c.reclaim {
		e.pi.Close()
	}
	c.reclaim = nil
}

// retireLocked queues pi for Close() once one full audio quantum has
// elapsed, per spec.md §4.I's grace-period swap discipline. Must be
// called with mu held.
func (c *Chain) retireLocked(pi *instance.PluginInstance) {
	c.reclaim = append(c.reclaim, reclaimEntry{pi: pi, retiredAt: c.quantum.Load()})
}

// sweepReclaimLocked closes out any reclaim entry whose grace period
// has elapsed. Must be called with mu held.
func (c *Chain) sweepReclaimLocked() {
	if len(c.reclaim) == 0 {
		return
	}
	now := c.quantum.Load()
	kept := c.reclaim[:0]
	for _, e := range c.reclaim {
		if now-e.retiredAt >= 1 {
			e.pi.Close()
		} else {
			kept = append(kept, e)
		}
	}
	c.reclaim = kept
}
