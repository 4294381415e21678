package state_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperfret/lv2go/internal/testplugin"
	"github.com/copperfret/lv2go/pkg/instance"
	"github.com/copperfret/lv2go/pkg/state"
	"github.com/copperfret/lv2go/pkg/urid"
)

func newGainInstance(t *testing.T) *instance.PluginInstance {
	t.Helper()
	pi, err := instance.New(testplugin.NewBackend(), urid.New(), testplugin.GainURI, 48000, 4096, 1)
	require.NoError(t, err)
	t.Cleanup(pi.Close)
	return pi
}

func TestSaveLoadRoundTripsControlValues(t *testing.T) {
	pi := newGainInstance(t)
	require.NoError(t, pi.SetControl("gain_db", -6))

	path := filepath.Join(t.TempDir(), "gain.lv2state")
	require.NoError(t, state.Save(path, pi))

	fresh := newGainInstance(t)
	// Default differs from the saved value, so Load is what must move it.
	v, ok := fresh.ControlValue("gain_db")
	require.True(t, ok)
	require.NotEqual(t, float32(-6), v)

	require.NoError(t, state.Load(path, fresh))
	v, ok = fresh.ControlValue("gain_db")
	require.True(t, ok)
	assert.InDelta(t, -6, v, 1e-6)
}

func TestLoadIgnoresUnknownSymbols(t *testing.T) {
	pi := newGainInstance(t)
	path := filepath.Join(t.TempDir(), "gain.lv2state")
	require.NoError(t, state.Save(path, pi))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("symbol no_such_port 1\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	fresh := newGainInstance(t)
	require.NoError(t, state.Load(path, fresh))

	v, ok := fresh.ControlValue("gain_db")
	require.True(t, ok)
	assert.Equal(t, float32(0), v)
}

func TestLoadRejectsMissingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.lv2state")
	require.NoError(t, os.WriteFile(path, []byte("symbol gain_db 1\n"), 0o644))

	pi := newGainInstance(t)
	require.Error(t, state.Load(path, pi))
}
