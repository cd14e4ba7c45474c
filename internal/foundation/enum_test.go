package foundation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color string

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(map[string]color{"Red": "red", "blue": "blue"}, "none")

	assert.Equal(t, color("red"), n.Normalize("red"))
	assert.Equal(t, color("red"), n.Normalize("  RED "))
	assert.Equal(t, color("none"), n.Normalize("green"))

	v, err := n.NormalizeWithError("Blue")
	require.NoError(t, err)
	assert.Equal(t, color("blue"), v)

	_, err = n.NormalizeWithError("green")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"green"`)
}
