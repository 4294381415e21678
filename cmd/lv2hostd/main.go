// Command lv2hostd is a file-driven Audio Transport for the engine:
// it loads one plugin into one slot, runs a .wav file through it block
// by block, and writes the result to another .wav file. It exists to
// exercise pkg/control.Engine end to end without a real audio device,
// per SPEC_FULL.md §6's domain-stack supplement.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/copperfret/lv2go/internal/logging"
	"github.com/copperfret/lv2go/pkg/control"
)

const maxBlockLength = 4096

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("lv2hostd", flag.ContinueOnError)
	searchPath := flags.String("search", "", "LV2 bundle search path")
	uri := flags.String("uri", "", "plugin URI to load into the slot given by -slot")
	slot := flags.Int("slot", 1, "chain slot to load the plugin into (1..4)")
	inPath := flags.String("in", "", "input .wav path")
	outPath := flags.String("out", "", "output .wav path")
	state := flags.String("state", "", "optional state bundle to load before processing")

	var params paramFlags
	flags.Var(&params, "set", "control port as index=value; repeatable")

	if err := flags.Parse(args); err != nil {
		return 1
	}
	if *inPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "lv2hostd: -in and -out are required")
		return 1
	}

	in, err := openWavSource(*inPath)
	if err != nil {
		logging.Default().WithError(err).Error("lv2hostd: failed to open input")
		return 1
	}
	defer in.Close()

	out, err := createWavSink(*outPath, in.sampleRate, in.channels)
	if err != nil {
		logging.Default().WithError(err).Error("lv2hostd: failed to create output")
		return 1
	}
	defer out.Close()

	engine := control.New(control.Config{
		SampleRate:     float64(in.sampleRate),
		MaxBlockLength: maxBlockLength,
		Channels:       in.channels,
	})
	if !engine.Create() {
		fmt.Fprintln(os.Stderr, "lv2hostd: failed to create engine")
		return 1
	}
	defer engine.Close()

	if *searchPath != "" {
		if err := engine.InitPlugins(*searchPath); err != nil {
			logging.Default().WithError(err).Error("lv2hostd: init plugins failed")
			return 1
		}
	}

	if *uri != "" {
		if err := engine.AddPlugin(*slot, *uri); err != nil {
			logging.Default().WithError(err).Error("lv2hostd: add plugin failed")
			return 1
		}
		for _, p := range params {
			if err := engine.SetValue(*slot, p.index, p.value); err != nil {
				logging.Default().WithError(err).WithField("port", p.index).Warn("lv2hostd: set value failed")
			}
		}
		if *state != "" {
			if err := engine.LoadState(*slot, *state); err != nil {
				logging.Default().WithError(err).Warn("lv2hostd: load state failed")
			}
		}
	}

	if err := pump(in, out, engine, maxBlockLength); err != nil {
		logging.Default().WithError(err).Error("lv2hostd: processing failed")
		return 1
	}
	return 0
}
