package main

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("2600000.5, 1200000")
	require.NoError(t, err)
	assert.Equal(t, orb.Point{2600000.5, 1200000}, p)

	for _, bad := range []string{"", "1", "1,2,3", "a,2"} {
		_, err := parsePoint(bad)
		assert.Error(t, err, bad)
	}
}
