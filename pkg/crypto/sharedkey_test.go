package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveSharedKeyOrderIndependent(t *testing.T) {
	keyAB := DeriveSharedKey("session-1", "doctor-42", "patient-17")
	keyBA := DeriveSharedKey("session-1", "patient-17", "doctor-42")

	assert.Equal(t, keyAB, keyBA)
	assert.Len(t, keyAB, 32)
}

func TestDeriveSharedKeyDeterministic(t *testing.T) {
	first := DeriveSharedKey("session-1", "a", "b")
	second := DeriveSharedKey("session-1", "a", "b")

	assert.Equal(t, first, second)
}

func TestDeriveSharedKeyVariesByInput(t *testing.T) {
	base := DeriveSharedKey("session-1", "a", "b")

	assert.NotEqual(t, base, DeriveSharedKey("session-2", "a", "b"))
	assert.NotEqual(t, base, DeriveSharedKey("session-1", "a", "c"))
	assert.NotEqual(t, base, DeriveSharedKey("session-1", "x", "b"))
}
