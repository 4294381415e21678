package instance

// PortKind classifies one port's connection type, per spec.md §3: a
// port has exactly one of Audio/Control/Atom set, or Unknown if the
// plugin declares a port class this host does not recognize.
type PortKind int

const (
	KindUnknown PortKind = iota
	KindAudio
	KindControl
	KindAtom
)

func (k PortKind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindControl:
		return "control"
	case KindAtom:
		return "atom"
	default:
		return "unknown"
	}
}

// PortDescriptor is the static metadata one port contributes at
// initialize() time, independent of whether it came from the real
// lilv-backed Backend or internal/testplugin's fake. Index is dense and
// equal to the plugin's own port index (spec.md §3's invariant).
type PortDescriptor struct {
	Index  int
	Input  bool
	Kind   PortKind
	Symbol string
	Name   string

	// Control ports only.
	HasRange     bool
	Min, Max, Default float32
	Toggled      bool
	Trigger      bool

	// Atom ports only.
	HasMinimumSize bool
	MinimumSize    int
	SupportsMIDI   bool
}
