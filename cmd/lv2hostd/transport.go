package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavSource wraps a decoder open for sequential PCMBuffer reads,
// tracking the format the engine must be configured for.
type wavSource struct {
	file       *os.File
	decoder    *wav.Decoder
	sampleRate int
	channels   int
	bitDepth   int
}

func openWavSource(path string) (*wavSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("lv2hostd: %s is not a valid wav file", path)
	}
	return &wavSource{
		file:       f,
		decoder:    d,
		sampleRate: int(d.SampleRate),
		channels:   d.Format().NumChannels,
		bitDepth:   int(d.BitDepth),
	}, nil
}

func (s *wavSource) Close() error { return s.file.Close() }

// readBlock fills interleaved with up to len(interleaved)/channels
// frames, normalized to [-1, 1] float32, returning the frame count
// actually read. io.EOF is returned once no more frames remain.
func (s *wavSource) readBlock(interleaved []float32) (int, error) {
	samples := len(interleaved)
	ib := &audio.IntBuffer{
		Format:         s.decoder.Format(),
		Data:           make([]int, samples),
		SourceBitDepth: s.bitDepth,
	}
	n, err := s.decoder.PCMBuffer(ib)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}

	scale := float32(int(1) << (s.bitDepth - 1))
	for i := 0; i < n; i++ {
		interleaved[i] = float32(ib.Data[i]) / scale
	}
	return n / s.channels, nil
}

// wavSink wraps an encoder open for sequential Write calls.
type wavSink struct {
	file       *os.File
	encoder    *wav.Encoder
	bitDepth   int
	channels   int
	sampleRate int
}

const sinkBitDepth = 16

func createWavSink(path string, sampleRate, channels int) (*wavSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc := wav.NewEncoder(f, sampleRate, sinkBitDepth, channels, 1)
	return &wavSink{file: f, encoder: enc, bitDepth: sinkBitDepth, channels: channels, sampleRate: sampleRate}, nil
}

func (s *wavSink) writeBlock(interleaved []float32, frames int) error {
	n := frames * s.channels
	scale := float32(int(1) << (s.bitDepth - 1))
	data := make([]int, n)
	for i := 0; i < n; i++ {
		v := interleaved[i] * scale
		switch {
		case v > scale-1:
			v = scale - 1
		case v < -scale:
			v = -scale
		}
		data[i] = int(v)
	}
	return s.encoder.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: s.channels, SampleRate: s.sampleRate},
		Data:           data,
		SourceBitDepth: s.bitDepth,
	})
}

func (s *wavSink) Close() error {
	if err := s.encoder.Close(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// engineProcessor is the subset of pkg/control.Engine this transport
// drives, kept narrow so it is easy to substitute a fake in tests.
type engineProcessor interface {
	Process(in, out []float32, frames int) error
}

// pump reads src block by block, runs each block through engine, and
// writes the result to dst, until src is exhausted.
func pump(src *wavSource, dst *wavSink, engine engineProcessor, maxBlockFrames int) error {
	n := maxBlockFrames * src.channels
	in := make([]float32, n)
	out := make([]float32, n)

	for {
		frames, err := src.readBlock(in)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := engine.Process(in[:frames*src.channels], out[:frames*src.channels], frames); err != nil {
			return err
		}
		if err := dst.writeBlock(out, frames); err != nil {
			return err
		}
	}
}
