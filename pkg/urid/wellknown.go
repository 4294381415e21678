package urid

// Well-known LV2 URIs the host needs to recognize without a plugin's
// help, e.g. to classify atom event types it forwards verbatim.
const (
	AtomSequence  = "http://lv2plug.in/ns/ext/atom#Sequence"
	AtomChunk     = "http://lv2plug.in/ns/ext/atom#Chunk"
	AtomFloat     = "http://lv2plug.in/ns/ext/atom#Float"
	AtomObject    = "http://lv2plug.in/ns/ext/atom#Object"
	MidiEvent     = "http://lv2plug.in/ns/ext/midi#MidiEvent"
	UIPatchSet    = "http://lv2plug.in/ns/ext/patch#Set"
	BufferMaxLen  = "http://lv2plug.in/ns/ext/buf-size#maxBlockLength"
)
