package chain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/copperfret/lv2go/internal/testplugin"
	"github.com/copperfret/lv2go/pkg/chain"
	"github.com/copperfret/lv2go/pkg/instance"
	"github.com/copperfret/lv2go/pkg/urid"
)

func newGain(t *testing.T, backend *testplugin.Backend, mapper *urid.Registry) *instance.PluginInstance {
	t.Helper()
	pi, err := instance.New(backend, mapper, testplugin.GainURI, 48000, 4096, 1)
	require.NoError(t, err)
	return pi
}

func TestProcessPassesThroughWhenNoSlotFilled(t *testing.T) {
	defer goleak.VerifyNone(t)
	c := chain.New(4096, 1)
	defer c.Close()

	in := []float32{1, 2, 3, 4}
	out := make([]float32, 4)
	require.NoError(t, c.Process(in, out, 4))
	assert.Equal(t, in, out)
}

func TestProcessAppliesSingleSlot(t *testing.T) {
	defer goleak.VerifyNone(t)
	backend := testplugin.NewBackend()
	mapper := urid.New()
	c := chain.New(4096, 1)
	defer c.Close()

	pi := newGain(t, backend, mapper)
	require.NoError(t, c.Add(0, pi))
	require.NoError(t, c.SetParameter(0, 2, -6)) // port 2 = gain_db

	in := make([]float32, 256)
	for i := range in {
		in[i] = 1.0
	}
	out := make([]float32, 256)
	require.NoError(t, c.Process(in, out, 256))
	for _, v := range out {
		assert.Less(t, v, float32(1.0))
		assert.Greater(t, v, float32(0))
	}
}

func TestSetEffectOnFalseBypassesFilledSlots(t *testing.T) {
	defer goleak.VerifyNone(t)
	backend := testplugin.NewBackend()
	mapper := urid.New()
	c := chain.New(4096, 1)
	defer c.Close()

	pi := newGain(t, backend, mapper)
	require.NoError(t, c.Add(0, pi))
	require.NoError(t, c.SetParameter(0, 2, -90))
	c.SetEffectOn(false)

	in := []float32{1, 1, 1, 1}
	out := make([]float32, 4)
	require.NoError(t, c.Process(in, out, 4))
	assert.Equal(t, in, out)
}

func TestAddAndRemoveRejectOutOfRangeSlots(t *testing.T) {
	c := chain.New(4096, 1)
	defer c.Close()

	pi := newGain(t, testplugin.NewBackend(), urid.New())
	defer pi.Close()

	assert.Error(t, c.Add(chain.NumSlots, pi))
	assert.Error(t, c.Remove(-1))
}

func TestProcessRejectsOversizedBlock(t *testing.T) {
	c := chain.New(256, 1)
	defer c.Close()

	in := make([]float32, 512)
	out := make([]float32, 512)
	assert.Error(t, c.Process(in, out, 512))
}

func TestSlotSwapRetiresOldInstanceAfterGracePeriod(t *testing.T) {
	defer goleak.VerifyNone(t)
	backend := testplugin.NewBackend()
	mapper := urid.New()
	c := chain.New(4096, 1)
	defer c.Close()

	first := newGain(t, backend, mapper)
	require.NoError(t, c.Add(0, first))

	in := make([]float32, 256)
	out := make([]float32, 256)
	require.NoError(t, c.Process(in, out, 256)) // quantum 1

	second := newGain(t, backend, mapper)
	require.NoError(t, c.Add(0, second)) // retires first, not yet swept
	assert.Equal(t, instance.Active, first.State(), "first instance must outlive the swap that retired it")

	require.NoError(t, c.Process(in, out, 256)) // quantum 2
	require.NoError(t, c.Remove(1))             // empty slot, but sweeps the reclaim list

	assert.Equal(t, instance.Unloaded, first.State())
	assert.Equal(t, instance.Active, second.State())
}

func TestCloseClosesFilledAndRetiredInstances(t *testing.T) {
	defer goleak.VerifyNone(t)
	backend := testplugin.NewBackend()
	mapper := urid.New()
	c := chain.New(4096, 1)

	pi := newGain(t, backend, mapper)
	require.NoError(t, c.Add(0, pi))
	c.Close()

	assert.Equal(t, instance.Unloaded, pi.State())
}
