package atom

import (
	"encoding/binary"

	"github.com/copperfret/lv2go/pkg/urid"
)

// sequence body header: unit (URID of the time-unit atom subtype, 0 for
// frames) and a reserved pad field, per lv2/atom/atom.h's
// LV2_Atom_Sequence_Body.
const seqBodyHeaderSize = 8

// eventHeaderSize is the (frames int64) prefix on every event, per
// LV2_Atom_Event.
const eventHeaderSize = 8

// Event is one time-stamped atom inside a Sequence.
type Event struct {
	Frames int64 // sample offset from the start of the current block
	Atom   Atom
}

// Sequence is a decoded LV2_Atom_Sequence: a header atom of type
// "Sequence" enclosing a body header and zero or more Events.
type Sequence struct {
	SequenceType urid.URID // URID of "...atom#Sequence"
	Events       []Event
}

// InitSequenceBuffer writes an empty sequence header into buf and
// returns the number of bytes written (16: the atom header plus the
// sequence body header), or 0 without writing if buf is shorter than
// that. Used to reset an atom input/output port's buffer between
// process() calls.
func InitSequenceBuffer(buf []byte, sequenceType urid.URID) int {
	n := headerSize + seqBodyHeaderSize
	if len(buf) < n {
		return 0
	}
	binary.LittleEndian.PutUint32(buf[0:4], uint32(sequenceType))
	binary.LittleEndian.PutUint32(buf[4:8], 0)   // size of body, filled as events append
	binary.LittleEndian.PutUint32(buf[8:12], 0)  // unit
	binary.LittleEndian.PutUint32(buf[12:16], 0) // pad
	return n
}

// AppendEvent appends one event (frames, type, body) to the sequence
// already laid out in buf, updating the outer atom's size field. cap is
// the total usable capacity of buf (the port's negotiated buffer size).
// It returns ErrBufferTooSmall without modifying buf if there is not
// enough room, matching spec.md §4.C's "fails gracefully when capacity
// is exhausted."
func AppendEvent(buf []byte, capUsable int, eventType urid.URID, frames int64, body []byte) error {
	if len(buf) < headerSize+seqBodyHeaderSize {
		return ErrBufferTooSmall
	}
	bodySize := binary.LittleEndian.Uint32(buf[4:8])
	writeOffset := headerSize + seqBodyHeaderSize + int(bodySize)

	eventLen := pad8(eventHeaderSize + headerSize + len(body))
	if writeOffset+eventLen > capUsable || writeOffset+eventLen > len(buf) {
		return ErrBufferTooSmall
	}

	binary.LittleEndian.PutUint64(buf[writeOffset:writeOffset+8], uint64(frames))
	off := writeOffset + eventHeaderSize
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(eventType))
	binary.LittleEndian.PutUint32(buf[off+4:off+8], uint32(len(body)))
	copy(buf[off+headerSize:], body)
	for i := off + headerSize + len(body); i < writeOffset+eventLen; i++ {
		buf[i] = 0
	}

	binary.LittleEndian.PutUint32(buf[4:8], bodySize+uint32(eventLen))
	return nil
}

// SequenceBodySize returns the current body size (sum of encoded event
// lengths) recorded in a sequence buffer's outer atom header.
func SequenceBodySize(buf []byte) uint32 {
	if len(buf) < headerSize {
		return 0
	}
	return binary.LittleEndian.Uint32(buf[4:8])
}

// WalkEvents calls fn once per event stored in a sequence buffer,
// without allocating: fn receives a view into buf's backing array.
// Iteration stops early if fn returns false.
func WalkEvents(buf []byte, fn func(frames int64, eventType urid.URID, body []byte) bool) {
	if len(buf) < headerSize+seqBodyHeaderSize {
		return
	}
	bodySize := int(binary.LittleEndian.Uint32(buf[4:8]))
	pos := headerSize + seqBodyHeaderSize
	end := pos + bodySize
	if end > len(buf) {
		end = len(buf)
	}
	for pos+eventHeaderSize+headerSize <= end {
		frames := int64(binary.LittleEndian.Uint64(buf[pos : pos+8]))
		typeOff := pos + eventHeaderSize
		eventType := urid.URID(binary.LittleEndian.Uint32(buf[typeOff : typeOff+4]))
		size := binary.LittleEndian.Uint32(buf[typeOff+4 : typeOff+8])
		bodyOff := typeOff + headerSize
		bodyEnd := bodyOff + int(size)
		if bodyEnd > end {
			break
		}
		if !fn(frames, eventType, buf[bodyOff:bodyEnd]) {
			return
		}
		pos += pad8(eventHeaderSize + headerSize + int(size))
	}
}

// DecodeSequence fully decodes a sequence buffer, allocating an Event
// slice, so it is only for non-RT callers such as tests; the RT
// export/inject path in pkg/instance uses WalkEvents/AppendEvent
// directly to stay allocation-free.
func DecodeSequence(buf []byte) Sequence {
	if len(buf) < headerSize {
		return Sequence{}
	}
	seq := Sequence{SequenceType: urid.URID(binary.LittleEndian.Uint32(buf[0:4]))}
	WalkEvents(buf, func(frames int64, eventType urid.URID, body []byte) bool {
		b := make([]byte, len(body))
		copy(b, body)
		seq.Events = append(seq.Events, Event{
			Frames: frames,
			Atom:   Atom{Header: Header{Type: eventType, Size: uint32(len(b))}, Body: b},
		})
		return true
	})
	return seq
}
