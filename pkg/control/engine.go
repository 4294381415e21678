// Package control implements the Control Surface API (spec.md §6): the
// facade an embedder drives to discover plugins, wire them into slots,
// tweak their parameters, and push audio through the resulting chain.
//
// Per spec.md §9's design note, Engine is a regular Go value the
// embedder owns and calls methods on, not a package-level singleton;
// cmd/lv2hostd creates exactly one Engine in its run function and
// drives it for the life of the process, keeping no package-level
// handle.
package control

import (
	"fmt"
	"sync"

	"github.com/copperfret/lv2go/internal/logging"
	"github.com/copperfret/lv2go/pkg/catalog"
	"github.com/copperfret/lv2go/pkg/chain"
	"github.com/copperfret/lv2go/pkg/hosterr"
	"github.com/copperfret/lv2go/pkg/instance"
	"github.com/copperfret/lv2go/pkg/lv2c"
	"github.com/copperfret/lv2go/pkg/state"
	"github.com/copperfret/lv2go/pkg/urid"
)

// Config is the embedder-supplied startup configuration: the LV2
// search path and the Audio Transport's negotiated block shape.
// A plain struct literal, matching the teacher's Config/FactoryInfo
// habit of embedder-supplied structs rather than a flag/env layer at
// this scope (SPEC_FULL.md §4's ambient-stack note).
type Config struct {
	SampleRate     float64
	MaxBlockLength int32
	Channels       int
}

// Engine is the bound-together World, Catalog, and Chain a Control
// Surface drives. The zero value is not usable; construct with New.
type Engine struct {
	cfg Config

	mu      sync.Mutex // serializes Create/InitPlugins/Close; AddPlugin and GetPluginInfo read fields under it
	world   *lv2c.World
	mapper  *urid.Registry
	backend instance.Backend
	catalog *catalog.Catalog
	chain   *chain.Chain
}

// New builds an Engine for cfg. Create must be called before any other
// method.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Create allocates the World, URID Registry, and Chain, per spec.md
// §6's create() → bool. Safe to call at most once; a second call
// returns false without disturbing the first.
func (e *Engine) Create() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.world != nil {
		return false
	}

	world, err := lv2c.NewWorld()
	if err != nil {
		logging.Default().WithError(err).Error("control: failed to create lilv world")
		return false
	}

	e.world = world
	e.mapper = urid.New()
	e.backend = instance.NewLV2Backend(world, e.mapper)
	e.chain = chain.New(e.cfg.MaxBlockLength, e.cfg.Channels)
	return true
}

// InitPlugins points the World at searchPath, loads every bundle it
// finds, and rebuilds the Catalog, per spec.md §6's initPlugins().
func (e *Engine) InitPlugins(searchPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.world == nil {
		return fmt.Errorf("control: %w: engine not created", hosterr.ErrInvalidArgument)
	}

	if err := e.world.SetSearchPath(searchPath); err != nil {
		return fmt.Errorf("control: init plugins: %w", err)
	}
	e.world.LoadAll()
	e.catalog = catalog.New(e.world)
	return nil
}

// GetPluginInfo returns the Catalog JSON blob spec.md §6 defines.
func (e *Engine) GetPluginInfo() (string, error) {
	e.mu.Lock()
	cat := e.catalog
	e.mu.Unlock()
	if cat == nil {
		return "", fmt.Errorf("control: %w: plugins not yet initialized", hosterr.ErrInvalidArgument)
	}
	return cat.JSON()
}

// AddPlugin instantiates uri and installs it into slot (1..N), closing
// out slot's previous occupant after the usual grace period.
func (e *Engine) AddPlugin(slot int, uri string) error {
	e.mu.Lock()
	backend, mapper, ch := e.backend, e.mapper, e.chain
	e.mu.Unlock()
	if ch == nil {
		return fmt.Errorf("control: %w: engine not created", hosterr.ErrInvalidArgument)
	}

	idx, err := slotIndex(slot)
	if err != nil {
		return err
	}

	pi, err := instance.New(backend, mapper, uri, e.cfg.SampleRate, e.cfg.MaxBlockLength, e.cfg.Channels)
	if err != nil {
		logging.Default().WithError(err).WithField("uri", uri).Warn("control: add plugin failed")
		return err
	}
	if err := ch.Add(idx, pi); err != nil {
		pi.Close()
		return err
	}
	return nil
}

// DeletePlugin empties slot (1..N).
func (e *Engine) DeletePlugin(slot int) error {
	idx, err := slotIndex(slot)
	if err != nil {
		return err
	}
	return e.chain.Remove(idx)
}

// SetValue sets one control port's value on the instance in slot
// (1..N), by port index, per spec.md §6's setValue().
func (e *Engine) SetValue(slot int, portIndex int, value float32) error {
	idx, err := slotIndex(slot)
	if err != nil {
		return err
	}
	return e.chain.SetParameter(idx, portIndex, value)
}

// SetEffectOn toggles the whole chain's bypass flag.
func (e *Engine) SetEffectOn(on bool) {
	e.chain.SetEffectOn(on)
}

// Process is the Audio Transport callback: it walks the filled slots
// in order and writes the result to out, per spec.md §6.
func (e *Engine) Process(in, out []float32, frames int) error {
	return e.chain.Process(in, out, frames)
}

// SaveState writes slot's (1..N) instance state to path.
func (e *Engine) SaveState(slot int, path string) error {
	idx, err := slotIndex(slot)
	if err != nil {
		return err
	}
	pi, err := e.chain.At(idx)
	if err != nil {
		return err
	}
	if pi == nil {
		return fmt.Errorf("control: save state: %w: slot %d empty", hosterr.ErrInvalidArgument, slot)
	}
	return state.Save(path, pi)
}

// LoadState restores slot's (1..N) instance state from path.
func (e *Engine) LoadState(slot int, path string) error {
	idx, err := slotIndex(slot)
	if err != nil {
		return err
	}
	pi, err := e.chain.At(idx)
	if err != nil {
		return err
	}
	if pi == nil {
		return fmt.Errorf("control: load state: %w: slot %d empty", hosterr.ErrInvalidArgument, slot)
	}
	return state.Load(path, pi)
}

// Close tears down the Chain, every instance it holds, and the World.
// The Engine is not usable afterward.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.chain != nil {
		e.chain.Close()
		e.chain = nil
	}
	if e.world != nil {
		e.world.Free()
		e.world = nil
	}
}

func slotIndex(slot int) (int, error) {
	if slot < 1 || slot > chain.NumSlots {
		return 0, fmt.Errorf("control: %w: slot %d out of range 1..%d", hosterr.ErrInvalidArgument, slot, chain.NumSlots)
	}
	return slot - 1, nil
}
