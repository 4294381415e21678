package instance

import (
	"unsafe"

	"github.com/copperfret/lv2go/pkg/feature"
	"github.com/copperfret/lv2go/pkg/lv2c"
	"github.com/copperfret/lv2go/pkg/urid"
)

// LV2Backend resolves plugin URIs against a *lv2c.World, the production
// Backend every real .lv2 bundle is loaded through.
type LV2Backend struct {
	world  *lv2c.World
	mapper *urid.Registry
}

// NewLV2Backend builds a Backend over an already-loaded World. mapper
// is shared with every instance's Feature Table for URID map/unmap.
func NewLV2Backend(world *lv2c.World, mapper *urid.Registry) *LV2Backend {
	return &LV2Backend{world: world, mapper: mapper}
}

// Resolve implements Backend.
func (b *LV2Backend) Resolve(uri string) (Descriptor, bool) {
	p, ok := b.world.PluginByURI(uri)
	if !ok {
		return nil, false
	}
	return &lv2Descriptor{plugin: p, mapper: b.mapper}, true
}

type lv2Descriptor struct {
	plugin *lv2c.Plugin
	mapper *urid.Registry
}

func (d *lv2Descriptor) URI() string   { return d.plugin.URI() }
func (d *lv2Descriptor) NumPorts() int { return d.plugin.NumPorts() }

func (d *lv2Descriptor) Port(index int) PortDescriptor {
	p := d.plugin.Port(index)
	if p == nil {
		return PortDescriptor{Index: index, Kind: KindUnknown}
	}
	pd := PortDescriptor{
		Index:  index,
		Input:  p.IsInput(),
		Symbol: p.Symbol(),
		Name:   p.Name(),
	}
	switch {
	case p.IsAudio():
		pd.Kind = KindAudio
	case p.IsControl():
		pd.Kind = KindControl
		if min, max, def, ok := p.RangeFloat(); ok {
			pd.HasRange, pd.Min, pd.Max, pd.Default = true, min, max, def
		}
		pd.Toggled = p.IsToggled()
		pd.Trigger = p.IsTrigger()
	case p.IsAtom():
		pd.Kind = KindAtom
		if size, ok := p.MinimumSize(); ok {
			pd.HasMinimumSize, pd.MinimumSize = true, size
		}
		if pd.Input {
			pd.SupportsMIDI = p.SupportsMIDI()
		}
	default:
		pd.Kind = KindUnknown
	}
	return pd
}

func (d *lv2Descriptor) RequiredFeatures() []string {
	return d.plugin.RequiredFeatures()
}

// HasExtensionData lets New's pre-Instantiate worker-interface probe
// (mightHaveWorker) check the plugin's descriptor directly, satisfying
// the unexported extensionProbe interface in instance.go.
func (d *lv2Descriptor) HasExtensionData(uri string) bool {
	return d.plugin.HasExtensionData(uri)
}

func (d *lv2Descriptor) Instantiate(sampleRate float64, maxBlockLength int32, scheduler Scheduler) (Runtime, error) {
	var sched feature.Scheduler
	if scheduler != nil {
		sched = schedulerAdapter{scheduler}
	}
	table := feature.New(d.mapper, maxBlockLength, sched)

	if missing, ok := table.Supports(d.plugin.RequiredFeatures()); !ok {
		table.Close()
		return nil, &feature.ErrUnsupportedFeature{Missing: missing}
	}

	inst, err := d.plugin.Instantiate(sampleRate, table.Array())
	if err != nil {
		table.Close()
		return nil, err
	}

	return &lv2Runtime{instance: inst, features: table, mapper: d.mapper}, nil
}

// schedulerAdapter satisfies feature.Scheduler (== lv2c.Scheduler) on
// top of instance.Scheduler; the two interfaces are structurally
// identical but kept distinct so pkg/instance does not need to import
// pkg/lv2c directly.
type schedulerAdapter struct{ Scheduler }

type lv2Runtime struct {
	instance *lv2c.Instance
	features *feature.Table
	mapper   *urid.Registry
}

func (r *lv2Runtime) ConnectPort(index int, buf unsafe.Pointer) { r.instance.ConnectPort(index, buf) }
func (r *lv2Runtime) Activate()                                 { r.instance.Activate() }
func (r *lv2Runtime) Deactivate()                               { r.instance.Deactivate() }
func (r *lv2Runtime) Run(frames uint32)                         { r.instance.Run(frames) }

func (r *lv2Runtime) Free() {
	r.instance.Free()
	r.features.Close()
}

func (r *lv2Runtime) HasWorker() bool { return r.instance.HasWorker() }

func (r *lv2Runtime) CallWork(payload []byte, respond func([]byte) error) error {
	return r.instance.CallWork(payload, respond)
}

func (r *lv2Runtime) CallWorkResponse(response []byte) error {
	return r.instance.CallWorkResponse(response)
}

func (r *lv2Runtime) HasState() bool { return r.instance.HasState() }

func (r *lv2Runtime) SaveState(store func(keyURI string, value []byte) error) error {
	return r.instance.SaveState(func(key urid.URID, value []byte, _ urid.URID) error {
		uri, ok := r.mapper.Unmap(key)
		if !ok {
			return nil
		}
		return store(uri, value)
	}, r.features.Array())
}

func (r *lv2Runtime) RestoreState(retrieve func(keyURI string) ([]byte, bool)) error {
	return r.instance.RestoreState(func(key urid.URID) ([]byte, urid.URID, bool) {
		uri, ok := r.mapper.Unmap(key)
		if !ok {
			return nil, urid.None, false
		}
		value, found := retrieve(uri)
		if !found {
			return nil, urid.None, false
		}
		return value, urid.None, true
	}, r.features.Array())
}
