package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStateAndNonce(t *testing.T) {
	assert.NotEqual(t, DeriveState("v"), DeriveNonce("v"))
	assert.Equal(t, DeriveState("v"), DeriveState("v"))
	assert.NotEqual(t, DeriveState("v"), DeriveState("w"))
	assert.NotContains(t, DeriveState("v"), "=")
}

func TestStateMatches(t *testing.T) {
	assert.True(t, StateMatches(DeriveState("verifier"), "verifier"))
	assert.False(t, StateMatches(DeriveState("verifier"), "other"))
	assert.False(t, StateMatches("", "verifier"))
}
