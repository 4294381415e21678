// Package gain converts the dB gain control exposed by a Plugin
// Instance's float controls into a linear multiplier and applies it to
// an audio buffer. It backs the fake gain plugin in internal/testplugin,
// which exercises pkg/instance's float-control and audio-port wiring
// end to end without a real LV2 binary.
package gain

import "math"

// MinDB is treated as silence: DbToLinear32 returns 0 at or below it.
const MinDB = -200.0

// DbToLinear32 converts a decibel value to a linear amplitude
// multiplier. Values at or below MinDB return 0.
func DbToLinear32(db float32) float32 {
	if db <= MinDB {
		return 0
	}
	return float32(math.Pow(10.0, float64(db)/20.0))
}

// ApplyBufferTo multiplies src by gain and writes the result to dst,
// processing min(len(src), len(dst)) samples. src and dst may be the
// same slice.
func ApplyBufferTo(src []float32, gain float32, dst []float32) {
	length := len(src)
	if len(dst) < length {
		length = len(dst)
	}
	for i := 0; i < length; i++ {
		dst[i] = src[i] * gain
	}
}
