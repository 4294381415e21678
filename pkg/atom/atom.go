// Package atom implements the LV2 atom wire format: framed, typed,
// variable-size payloads (lv2/atom/atom.h) and time-stamped sequences of
// them (the event-rate transport used for parameter changes and MIDI).
package atom

import (
	"encoding/binary"
	"errors"

	"github.com/copperfret/lv2go/pkg/urid"
)

// ErrBufferTooSmall is returned when an encode operation would not fit
// in the destination buffer.
var ErrBufferTooSmall = errors.New("atom: destination buffer too small")

const headerSize = 8 // type URID (4 bytes) + size uint32 (4 bytes)

// pad8 rounds n up to the next multiple of 8, the LV2 atom alignment.
func pad8(n int) int {
	return (n + 7) &^ 7
}

// Header is the (type, size) pair that precedes every atom's body.
type Header struct {
	Type urid.URID
	Size uint32
}

// Atom is a decoded (type, size, body) triple. Body length is always
// Size; any padding added to reach 8-byte alignment on the wire is not
// part of Body.
type Atom struct {
	Header
	Body []byte
}

// EncodedLen returns the number of bytes Encode will write, including
// 8-byte alignment padding.
func (a Atom) EncodedLen() int {
	return pad8(headerSize + len(a.Body))
}

// Encode writes the atom's header and body, padded to 8-byte alignment,
// into dst. It returns the number of bytes written or ErrBufferTooSmall
// if dst is not large enough.
func (a Atom) Encode(dst []byte) (int, error) {
	n := a.EncodedLen()
	if len(dst) < n {
		return 0, ErrBufferTooSmall
	}
	binary.LittleEndian.PutUint32(dst[0:4], uint32(a.Header.Type))
	binary.LittleEndian.PutUint32(dst[4:8], a.Header.Size)
	copy(dst[headerSize:], a.Body)
	for i := headerSize + len(a.Body); i < n; i++ {
		dst[i] = 0
	}
	return n, nil
}

// Decode reads one atom (header + body, without its alignment padding)
// from the front of src. It returns the atom and the number of bytes
// consumed from src including padding, or an error if src is too short
// to contain a full header plus body.
func Decode(src []byte) (Atom, int, error) {
	if len(src) < headerSize {
		return Atom{}, 0, ErrBufferTooSmall
	}
	h := Header{
		Type: urid.URID(binary.LittleEndian.Uint32(src[0:4])),
		Size: binary.LittleEndian.Uint32(src[4:8]),
	}
	total := pad8(headerSize + int(h.Size))
	if len(src) < total {
		return Atom{}, 0, ErrBufferTooSmall
	}
	body := make([]byte, h.Size)
	copy(body, src[headerSize:headerSize+int(h.Size)])
	return Atom{Header: h, Body: body}, total, nil
}
