package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrUnsupportedFeatureMessageListsMissingURIs(t *testing.T) {
	err := &ErrUnsupportedFeature{Missing: []string{URIWorkerSchedule, URIOptions}}
	assert.Contains(t, err.Error(), URIWorkerSchedule)
	assert.Contains(t, err.Error(), URIOptions)
}
