package instance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperfret/lv2go/internal/testplugin"
	"github.com/copperfret/lv2go/pkg/instance"
	"github.com/copperfret/lv2go/pkg/urid"
)

func newGainInstance(t *testing.T) *instance.PluginInstance {
	t.Helper()
	backend := testplugin.NewBackend()
	mapper := urid.New()
	pi, err := instance.New(backend, mapper, testplugin.GainURI, 48000, 4096, 1)
	require.NoError(t, err)
	t.Cleanup(pi.Close)
	return pi
}

func TestNewUnknownPluginIsReported(t *testing.T) {
	backend := testplugin.NewBackend()
	mapper := urid.New()
	_, err := instance.New(backend, mapper, "http://nonexistent/plugin", 48000, 4096, 1)
	require.Error(t, err)
}

func TestGainAtUnity(t *testing.T) {
	pi := newGainInstance(t)
	require.NoError(t, pi.SetControl("gain_db", 0))

	in := make([]float32, 256)
	for i := range in {
		in[i] = 1.0
	}
	out := make([]float32, 256)

	require.NoError(t, pi.Process(in, out, 256))
	for i, v := range out {
		assert.InDelta(t, 1.0, v, 1e-6, "sample %d", i)
	}
}

func TestGainClampedToMinimum(t *testing.T) {
	pi := newGainInstance(t)
	// below min (-90) must clamp, not pass through unclamped.
	require.NoError(t, pi.SetControl("gain_db", -1000))
	v, ok := pi.ControlValue("gain_db")
	require.True(t, ok)
	assert.Equal(t, float32(-90), v)

	in := make([]float32, 256)
	for i := range in {
		in[i] = 1.0
	}
	out := make([]float32, 256)
	require.NoError(t, pi.Process(in, out, 256))
	for _, v := range out {
		assert.Less(t, float64(v), 1e-3)
	}
}

func TestSetControlClampsToRange(t *testing.T) {
	pi := newGainInstance(t)
	require.NoError(t, pi.SetControl("gain_db", 1000))
	v, ok := pi.ControlValue("gain_db")
	require.True(t, ok)
	assert.Equal(t, float32(24), v)
}

func TestSetControlUnknownSymbolIsInvalidArgument(t *testing.T) {
	pi := newGainInstance(t)
	require.Error(t, pi.SetControl("nonexistent", 1))
}

func TestProcessRejectsOversizedBlock(t *testing.T) {
	pi := newGainInstance(t)
	in := make([]float32, 8192)
	out := make([]float32, 8192)
	require.Error(t, pi.Process(in, out, 8192))
}

func TestWorkerOverloadSaturatesRingWithoutBlocking(t *testing.T) {
	backend := testplugin.NewBackend()
	mapper := urid.New()
	pi, err := instance.New(backend, mapper, testplugin.WorkOverloadURI, 48000, 4096, 1)
	require.NoError(t, err)
	defer pi.Close()

	require.NoError(t, pi.Process(nil, nil, 256))

	noSpace, _ := pi.WorkerHealth()
	assert.Greater(t, noSpace, uint64(0), "request ring should have saturated under 10k schedules/cycle")
}

func TestCloseLeavesInstanceUnloaded(t *testing.T) {
	backend := testplugin.NewBackend()
	mapper := urid.New()
	pi, err := instance.New(backend, mapper, testplugin.GainURI, 48000, 4096, 1)
	require.NoError(t, err)
	pi.Close()
	assert.Equal(t, instance.Unloaded, pi.State())
}
