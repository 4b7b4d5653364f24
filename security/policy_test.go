package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyRequiresSignature(t *testing.T) {
	assert.False(t, Permissive.RequiresSignature())
	assert.False(t, WarnOnly.RequiresSignature())
	assert.True(t, Strict.RequiresSignature())
	assert.True(t, Paranoid.RequiresSignature())
}

func TestPolicyEagerSegmentVerification(t *testing.T) {
	assert.False(t, Strict.EagerSegmentVerification())
	assert.True(t, Paranoid.EagerSegmentVerification())
}

func TestPolicyAllowsMonotonicity(t *testing.T) {
	assert.True(t, Strict.Allows(Paranoid))
	assert.False(t, Paranoid.Allows(Strict))
	assert.True(t, Permissive.Allows(Paranoid))
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "strict", Strict.String())
	assert.Equal(t, "unknown", Policy(0xFF).String())
}
