// Package state saves and restores a Plugin Instance's state: every
// control port's current value, keyed by symbol, plus whatever a
// plugin defines through the LV2 state extension, per spec.md §4.H.
//
// The bundle format is a plain line-oriented text file, not Turtle/RDF:
// a "# lv2go-state v1" header line, a "# plugin <URI>" comment line,
// one "symbol <symbol> <value>" line
// per control port, and one "ext <base64 key URI> <base64 value>" line
// per plugin-defined state key. Keying by symbol rather than a numeric
// ID means a saved state survives a plugin's ports being reordered, and
// the file stays diffable in a text editor.
package state

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/copperfret/lv2go/internal/logging"
	"github.com/copperfret/lv2go/pkg/hosterr"
	"github.com/copperfret/lv2go/pkg/instance"
)

const magicHeader = "# lv2go-state v1"

// Save captures pi's control port values and any plugin-defined state
// into a text bundle at path.
func Save(path string, pi *instance.PluginInstance) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("state: save: %w: %v", hosterr.ErrStateIO, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%s\n# plugin %s\n", magicHeader, pi.URI())

	for _, p := range pi.Ports() {
		if p.Kind != instance.KindControl {
			continue
		}
		v, ok := pi.ControlValue(p.Symbol)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "symbol %s %s\n", p.Symbol, strconv.FormatFloat(float64(v), 'g', -1, 32))
	}

	if err := pi.SaveExtensionState(func(keyURI string, value []byte) error {
		fmt.Fprintf(w, "ext %s %s\n",
			base64.StdEncoding.EncodeToString([]byte(keyURI)),
			base64.StdEncoding.EncodeToString(value))
		return nil
	}); err != nil {
		logging.Default().WithError(err).Warn("state: plugin-defined state save failed, control values still written")
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("state: save: %w: %v", hosterr.ErrStateIO, err)
	}
	return nil
}

// Load restores pi's control port values and plugin-defined state from
// the bundle at path. Symbols in the bundle that pi does not recognize
// are ignored, for forward compatibility across plugin revisions.
func Load(path string, pi *instance.PluginInstance) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("state: load: %w: %v", hosterr.ErrStateIO, err)
	}
	defer f.Close()

	ext := make(map[string][]byte)

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return fmt.Errorf("state: load: %w: empty bundle", hosterr.ErrStateIO)
	}
	if !strings.HasPrefix(sc.Text(), "# lv2go-state") {
		return fmt.Errorf("state: load: %w: missing header", hosterr.ErrStateIO)
	}

	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, " ", 3)
		if len(fields) != 3 {
			continue
		}
		switch fields[0] {
		case "symbol":
			v, err := strconv.ParseFloat(fields[2], 32)
			if err != nil {
				continue
			}
			// Unknown symbols are ignored: a plugin revision may have
			// dropped or renamed a port since the bundle was saved.
			_ = pi.SetControl(fields[1], float32(v))
		case "ext":
			key, err1 := base64.StdEncoding.DecodeString(fields[1])
			value, err2 := base64.StdEncoding.DecodeString(fields[2])
			if err1 != nil || err2 != nil {
				continue
			}
			ext[string(key)] = value
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("state: load: %w: %v", hosterr.ErrStateIO, err)
	}

	if len(ext) == 0 {
		return nil
	}
	if err := pi.RestoreExtensionState(func(keyURI string) ([]byte, bool) {
		v, ok := ext[keyURI]
		return v, ok
	}); err != nil {
		logging.Default().WithError(err).Warn("state: plugin-defined state restore failed, control values still applied")
	}
	return nil
}
