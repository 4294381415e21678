package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperfret/lv2go/internal/testplugin"
	"github.com/copperfret/lv2go/pkg/chain"
	"github.com/copperfret/lv2go/pkg/urid"
)

// newTestEngine builds an Engine wired to internal/testplugin's fakes
// instead of a real lilv World, so these tests run without cgo.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := &Engine{
		cfg:     Config{SampleRate: 48000, MaxBlockLength: 4096, Channels: 1},
		mapper:  urid.New(),
		backend: testplugin.NewBackend(),
		chain:   chain.New(4096, 1),
	}
	t.Cleanup(e.chain.Close)
	return e
}

func TestSlotIndexValidatesRange(t *testing.T) {
	_, err := slotIndex(0)
	assert.Error(t, err)
	_, err = slotIndex(chain.NumSlots + 1)
	assert.Error(t, err)

	idx, err := slotIndex(1)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestAddPluginSetValueThenDeletePlugin(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.AddPlugin(1, testplugin.GainURI))
	require.NoError(t, e.SetValue(1, 2, -6)) // port 2 = gain_db

	in := make([]float32, 256)
	for i := range in {
		in[i] = 1.0
	}
	out := make([]float32, 256)
	require.NoError(t, e.Process(in, out, 256))
	for _, v := range out {
		assert.Less(t, v, float32(1.0))
	}

	require.NoError(t, e.DeletePlugin(1))
}

func TestAddPluginRejectsUnknownURI(t *testing.T) {
	e := newTestEngine(t)
	assert.Error(t, e.AddPlugin(1, "http://nonexistent/plugin"))
}

func TestAddPluginRejectsSlotOutOfRange(t *testing.T) {
	e := newTestEngine(t)
	assert.Error(t, e.AddPlugin(0, testplugin.GainURI))
	assert.Error(t, e.AddPlugin(chain.NumSlots+1, testplugin.GainURI))
}

func TestSetEffectOnFalseBypassesChain(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.AddPlugin(1, testplugin.GainURI))
	require.NoError(t, e.SetValue(1, 2, -90))
	e.SetEffectOn(false)

	in := []float32{1, 1, 1, 1}
	out := make([]float32, 4)
	require.NoError(t, e.Process(in, out, 4))
	assert.Equal(t, in, out)
}
