package clipboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySnapshotRestore(t *testing.T) {
	m := NewMemory("")
	items := []Item{
		{Representations: []Representation{
			{Type: TypeText, Data: []byte("hello")},
			{Type: "public.rtf", Data: []byte(`{\rtf1 hello}`)},
		}},
		{Representations: []Representation{{Type: TypeImage, Data: []byte{0x89, 'P', 'N', 'G'}}}},
	}
	m.SetItems(items)

	before, err := m.Snapshot()
	require.NoError(t, err)

	m.SetText("clobbered")
	assert.Equal(t, "clobbered", m.Text())

	require.NoError(t, m.Restore(before))
	after, err := m.Snapshot()
	require.NoError(t, err)
	assert.True(t, before.Equal(after))
	assert.Greater(t, after.ChangeCount, before.ChangeCount)
	assert.Equal(t, "hello", m.Text())
}

func TestMemorySnapshotIsACopy(t *testing.T) {
	m := NewMemory("abc")
	snap, err := m.Snapshot()
	require.NoError(t, err)
	snap.Items[0].Representations[0].Data[0] = 'X'
	assert.Equal(t, "abc", m.Text())
}

func TestMemoryRestoreEmpty(t *testing.T) {
	m := NewMemory("abc")
	require.NoError(t, m.Restore(Snapshot{}))
	assert.Equal(t, "", m.Text())
}

func TestMemoryChangeCount(t *testing.T) {
	m := NewMemory("a")
	c0 := m.ChangeCount()
	m.SetText("a")
	assert.Equal(t, c0+1, m.ChangeCount())
}
