// Package catalog builds a read-only, JSON-serializable snapshot of
// every LV2 plugin a World can see, for the Control Surface's
// getPluginInfo() call.
package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/copperfret/lv2go/internal/logging"
	"github.com/copperfret/lv2go/pkg/lv2c"
)

// PortEntry is one port's metadata as seen by the Control Surface.
type PortEntry struct {
	Index   int      `json:"index"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Min     *float32 `json:"min,omitempty"`
	Max     *float32 `json:"max,omitempty"`
	Default *float32 `json:"default,omitempty"`
}

// Entry is one discovered plugin's metadata snapshot.
type Entry struct {
	Name   string      `json:"name"`
	URI    string      `json:"uri"`
	Author string      `json:"author"`
	Ports  int         `json:"ports"`
	Port   []PortEntry `json:"port"`
}

// Catalog is a read-only, URI-keyed snapshot of every plugin a World
// discovered at construction time. Safe for concurrent reads from any
// thread; nothing mutates it after New returns.
type Catalog struct {
	entries map[string]Entry
}

// New scans world (already Load'd by the caller) and builds a Catalog.
// Grounded on the same "walk once, snapshot into a read-only map" shape
// as a VST2 plugin cache, generalized from one library per plugin to
// one LV2 bundle potentially declaring several plugin URIs.
func New(world *lv2c.World) *Catalog {
	plugins := world.AllPlugins()
	entries := make(map[string]Entry, len(plugins))

	for _, p := range plugins {
		uri := p.URI()
		if uri == "" {
			continue
		}
		entry := Entry{
			Name:   p.Name(),
			URI:    uri,
			Author: p.Author(),
			Ports:  p.NumPorts(),
		}
		for i := 0; i < entry.Ports; i++ {
			port := p.Port(i)
			if port == nil {
				logging.Default().Warnf("catalog: plugin %s missing port %d", uri, i)
				continue
			}
			entry.Port = append(entry.Port, portEntry(port))
		}
		entries[uri] = entry
	}

	logging.Default().Infof("catalog: discovered %d plugins", len(entries))
	return &Catalog{entries: entries}
}

func portEntry(port *lv2c.Port) PortEntry {
	pe := PortEntry{Index: port.Index(), Name: port.Name(), Type: classify(port)}
	if port.IsControl() {
		if min, max, def, ok := port.RangeFloat(); ok {
			pe.Min, pe.Max, pe.Default = &min, &max, &def
		}
	}
	return pe
}

func classify(port *lv2c.Port) string {
	switch {
	case port.IsAudio():
		return "audio"
	case port.IsControl():
		return "control"
	case port.IsAtom():
		return "atom"
	default:
		return "unknown"
	}
}

// Lookup returns the Entry for uri, or (Entry{}, false) if uri is not
// in the catalog.
func (c *Catalog) Lookup(uri string) (Entry, bool) {
	e, ok := c.entries[uri]
	return e, ok
}

// Len returns the number of discovered plugin URIs.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// JSON serializes the catalog in the `{"<uri>": {...}, ...}` shape the
// Control Surface's getPluginInfo() returns.
func (c *Catalog) JSON() (string, error) {
	b, err := json.Marshal(c.entries)
	if err != nil {
		return "", fmt.Errorf("catalog: marshal: %w", err)
	}
	return string(b), nil
}
