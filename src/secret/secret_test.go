package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringRoundTrip(t *testing.T) {
	keyring.MockInit()

	k := NewKeyring("")
	assert.Equal(t, DefaultService, k.Service)

	_, ok := k.Load("GeminiAPIKey")
	assert.False(t, ok)

	require.True(t, k.Save("GeminiAPIKey", "first"))
	require.True(t, k.Save("GeminiAPIKey", "second"))
	v, ok := k.Load("GeminiAPIKey")
	require.True(t, ok)
	assert.Equal(t, "second", v)

	_, ok = NewKeyring("OtherBuild").Load("GeminiAPIKey")
	assert.False(t, ok, "services are separate namespaces")
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	_, ok := m.Load("a")
	assert.False(t, ok)
	assert.True(t, m.Save("a", "1"))
	v, ok := m.Load("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}
