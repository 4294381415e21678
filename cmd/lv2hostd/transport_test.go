package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestWav creates a mono 16-bit wav with the given sample values
// scaled into the full int16 range.
func writeTestWav(t *testing.T, path string, samples []float32, sampleRate int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s * 32767)
	}
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

type passthroughEngine struct{}

func (passthroughEngine) Process(in, out []float32, frames int) error {
	copy(out[:frames], in[:frames])
	return nil
}

func TestPumpCopiesSamplesThroughPassthroughEngine(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.wav")
	outPath := filepath.Join(dir, "out.wav")

	samples := []float32{0, 0.25, -0.25, 0.5, -0.5}
	writeTestWav(t, inPath, samples, 44100)

	src, err := openWavSource(inPath)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, 1, src.channels)
	assert.Equal(t, 44100, src.sampleRate)

	dst, err := createWavSink(outPath, src.sampleRate, src.channels)
	require.NoError(t, err)

	require.NoError(t, pump(src, dst, passthroughEngine{}, 4096))
	require.NoError(t, dst.Close())

	verify, err := openWavSource(outPath)
	require.NoError(t, err)
	defer verify.Close()
	assert.Equal(t, 1, verify.channels)

	out := make([]float32, 16)
	frames, err := verify.readBlock(out)
	require.NoError(t, err)
	for i := range samples {
		assert.InDelta(t, samples[i], out[i], 1.0/32767, "sample %d", i)
	}
	assert.GreaterOrEqual(t, frames, len(samples))
}
