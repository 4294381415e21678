package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamFlagsSetParsesIndexEqualsValue(t *testing.T) {
	var p paramFlags
	require.NoError(t, p.Set("2=-6.5"))
	require.Len(t, p, 1)
	assert.Equal(t, 2, p[0].index)
	assert.Equal(t, float32(-6.5), p[0].value)
}

func TestParamFlagsSetRejectsMalformedInput(t *testing.T) {
	var p paramFlags
	assert.Error(t, p.Set("no-equals-sign"))
	assert.Error(t, p.Set("x=1"))
	assert.Error(t, p.Set("1=notanumber"))
}

func TestParamFlagsAccumulatesRepeatedFlags(t *testing.T) {
	var p paramFlags
	require.NoError(t, p.Set("0=1"))
	require.NoError(t, p.Set("1=2"))
	assert.Len(t, p, 2)
	assert.Equal(t, "0=1,1=2", p.String())
}
