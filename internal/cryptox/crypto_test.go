package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigest_Deterministic(t *testing.T) {
	d := NewDigester("secret")
	a := d.Digest("device-1")
	b := d.Digest("device-1")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotContains(t, a, "device-1")
}

func TestDigest_DifferentInputs(t *testing.T) {
	d := NewDigester("secret")
	assert.NotEqual(t, d.Digest("device-1"), d.Digest("device-2"))
}

func TestDigest_DependsOnSecret(t *testing.T) {
	assert.NotEqual(t, NewDigester("a").Digest("x"), NewDigester("b").Digest("x"))
}

func TestDigest_LongSecret(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'k'
	}
	assert.NotPanics(t, func() { NewDigester(string(long)).Digest("x") })
}
