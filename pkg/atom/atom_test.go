package atom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperfret/lv2go/pkg/atom"
	"github.com/copperfret/lv2go/pkg/urid"
)

func TestAtomEncodeDecodeRoundTrip(t *testing.T) {
	a := atom.Atom{
		Header: atom.Header{Type: urid.URID(7), Size: 5},
		Body:   []byte("abcde"),
	}

	buf := make([]byte, a.EncodedLen())
	n, err := a.Encode(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	assert.Zero(t, n%8, "encoded atoms must be 8-byte aligned")

	got, consumed, err := atom.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, a.Header, got.Header)
	assert.Equal(t, a.Body, got.Body)
}

func TestEncodeTooSmallBuffer(t *testing.T) {
	a := atom.Atom{Header: atom.Header{Type: 1, Size: 4}, Body: []byte("abcd")}
	_, err := a.Encode(make([]byte, 4))
	assert.ErrorIs(t, err, atom.ErrBufferTooSmall)
}

func TestDecodeTooShortSource(t *testing.T) {
	_, _, err := atom.Decode([]byte{1, 2, 3})
	assert.ErrorIs(t, err, atom.ErrBufferTooSmall)
}

func TestSequenceAppendAndWalkEvents(t *testing.T) {
	seqType := urid.URID(42)
	buf := make([]byte, 256)
	n := atom.InitSequenceBuffer(buf, seqType)
	require.Greater(t, n, 0)

	require.NoError(t, atom.AppendEvent(buf, len(buf), urid.URID(1), 0, []byte("first")))
	require.NoError(t, atom.AppendEvent(buf, len(buf), urid.URID(2), 10, []byte("second-event")))

	type got struct {
		frames int64
		typ    urid.URID
		body   string
	}
	var events []got
	atom.WalkEvents(buf, func(frames int64, eventType urid.URID, body []byte) bool {
		events = append(events, got{frames, eventType, string(body)})
		return true
	})

	require.Len(t, events, 2)
	assert.Equal(t, got{0, 1, "first"}, events[0])
	assert.Equal(t, got{10, 2, "second-event"}, events[1])
}

func TestAppendEventFailsGracefullyWhenCapacityExhausted(t *testing.T) {
	buf := make([]byte, 40)
	atom.InitSequenceBuffer(buf, urid.URID(1))

	err := atom.AppendEvent(buf, len(buf), urid.URID(1), 0, []byte("this payload does not fit"))
	assert.ErrorIs(t, err, atom.ErrBufferTooSmall)
	// a failed append must not have touched the body-size field.
	assert.Zero(t, atom.SequenceBodySize(buf))
}

func TestDecodeSequenceMatchesWalkEvents(t *testing.T) {
	buf := make([]byte, 128)
	atom.InitSequenceBuffer(buf, urid.URID(9))
	require.NoError(t, atom.AppendEvent(buf, len(buf), urid.URID(3), 5, []byte("x")))

	seq := atom.DecodeSequence(buf)
	require.Len(t, seq.Events, 1)
	assert.Equal(t, int64(5), seq.Events[0].Frames)
	assert.Equal(t, urid.URID(3), seq.Events[0].Atom.Header.Type)
	assert.Equal(t, []byte("x"), seq.Events[0].Atom.Body)
}
