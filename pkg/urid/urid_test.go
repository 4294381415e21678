package urid_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperfret/lv2go/pkg/urid"
)

func TestMapIsStableAndDistinct(t *testing.T) {
	r := urid.New()

	a1 := r.Map("http://example.org/a")
	b1 := r.Map("http://example.org/b")
	a2 := r.Map("http://example.org/a")

	assert.Equal(t, a1, a2, "map(s) must equal map(s) across calls")
	assert.NotEqual(t, a1, b1, "distinct URIs must get distinct ids")
	assert.NotEqual(t, urid.None, a1)
}

func TestUnmapIsLeftInverseOfMap(t *testing.T) {
	r := urid.New()
	uris := []string{
		"http://lv2plug.in/ns/ext/atom#Sequence",
		"",
		"http://example.org/plugins/gain",
	}

	for _, u := range uris {
		id := r.Map(u)
		got, ok := r.Unmap(id)
		require.True(t, ok)
		assert.Equal(t, u, got)
	}
}

func TestUnmapUnknownIDReturnsFalse(t *testing.T) {
	r := urid.New()
	_, ok := r.Unmap(urid.URID(999))
	assert.False(t, ok)

	_, ok = r.Unmap(urid.None)
	assert.False(t, ok)
}

func TestConcurrentMapOfSameAndDifferentURIs(t *testing.T) {
	r := urid.New()
	const goroutines = 32
	const perGoroutine = 50

	var wg sync.WaitGroup
	results := make([][]urid.URID, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			ids := make([]urid.URID, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				ids[i] = r.Map(fmt.Sprintf("http://example.org/uri-%d", i))
			}
			results[g] = ids
		}(g)
	}
	wg.Wait()

	for i := 0; i < perGoroutine; i++ {
		want := results[0][i]
		for g := 1; g < goroutines; g++ {
			assert.Equal(t, want, results[g][i], "uri-%d must map to the same id everywhere", i)
		}
	}
}
