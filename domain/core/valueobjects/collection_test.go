package valueobjects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Collections
		want Collections
	}{
		{
			name: "empty input becomes empty main",
			in:   nil,
			want: Collections{{CollectionName: MainCollection, Nodes: []Link{}}},
		},
		{
			name: "unnamed collections merge into main and drop empty ids",
			in: Collections{
				{CollectionName: "", Nodes: []Link{{ID: "a"}, {ID: ""}}},
				{CollectionName: MainCollection, Nodes: []Link{{ID: "b"}, {ID: "a"}}},
			},
			want: Collections{{CollectionName: MainCollection, Nodes: []Link{{ID: "a"}, {ID: "b"}}}},
		},
		{
			name: "named collections get a main collection",
			in: Collections{
				{CollectionName: "tools", Nodes: []Link{{ID: "x"}}},
			},
			want: Collections{
				{CollectionName: MainCollection, Nodes: []Link{}},
				{CollectionName: "tools", Nodes: []Link{{ID: "x"}}},
			},
		},
		{
			name: "nil node lists become empty",
			in: Collections{
				{CollectionName: MainCollection},
				{CollectionName: "tools"},
			},
			want: Collections{
				{CollectionName: MainCollection, Nodes: []Link{}},
				{CollectionName: "tools", Nodes: []Link{}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestCollections_AddIsIdempotent(t *testing.T) {
	cs := NewCollections("a")

	added := cs.Add(Link{ID: "b"}, "")
	again := cs.Add(Link{ID: "b"}, "other")

	assert.True(t, added)
	assert.False(t, again)
	assert.Equal(t, []string{"a", "b"}, cs.IDs())
	assert.False(t, cs.Has("other"))
}

func TestCollections_AddCreatesMissingCollection(t *testing.T) {
	cs := NewCollections()

	cs.Add(Link{ID: "a"}, "tools")

	require.True(t, cs.Has("tools"))
	assert.Equal(t, "tools", cs.CollectionOf("a"))
}

func TestCollections_Remove(t *testing.T) {
	cs := Collections{
		{CollectionName: MainCollection, Nodes: []Link{{ID: "a"}, {ID: "b"}}},
		{CollectionName: "tools", Nodes: []Link{{ID: "c"}}},
	}

	assert.True(t, cs.Remove("c"))
	assert.False(t, cs.Remove("missing"))
	assert.Equal(t, []string{"a", "b"}, cs.IDs())
	assert.Len(t, cs, 2)
}

func TestCollections_Move(t *testing.T) {
	cs := Collections{
		{CollectionName: MainCollection, Nodes: []Link{{ID: "a"}, {ID: "b"}}},
		{CollectionName: "tools", Nodes: []Link{}},
	}

	err := cs.Move([]string{"b"}, MainCollection, "tools")

	require.NoError(t, err)
	assert.Equal(t, "tools", cs.CollectionOf("b"))
	assert.Equal(t, MainCollection, cs.CollectionOf("a"))

	err = cs.Move([]string{"a"}, MainCollection, "missing")
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	err = cs.Move([]string{"zzz"}, MainCollection, "tools")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestCollections_Reorder(t *testing.T) {
	cs := NewCollections("a", "b", "c", "d")

	err := cs.Reorder([]string{"d", "a"}, []int{0, 10}, MainCollection)

	require.NoError(t, err)
	assert.Equal(t, []string{"d", "b", "c", "a"}, cs.IDs())

	err = cs.Reorder([]string{"a"}, []int{0, 1}, MainCollection)
	assert.Error(t, err)
}

func TestCollections_CreateAndDeleteCollection(t *testing.T) {
	cs := NewCollections("a")

	require.NoError(t, cs.CreateCollection("tools"))
	assert.ErrorIs(t, cs.CreateCollection("tools"), ErrCollectionExists)
	assert.ErrorIs(t, cs.CreateCollection(MainCollection), ErrReservedCollection)
	assert.Error(t, cs.CreateCollection("has space"))
	assert.Error(t, cs.CreateCollection(strings.Repeat("x", MaxCollectionNameLength+1)))

	cs.Add(Link{ID: "b"}, "tools")
	require.NoError(t, cs.DeleteCollection("tools"))

	assert.False(t, cs.Has("tools"))
	assert.Equal(t, []string{"a", "b"}, cs.IDs())
	assert.ErrorIs(t, cs.DeleteCollection(MainCollection), ErrReservedCollection)
	assert.ErrorIs(t, cs.DeleteCollection("tools"), ErrCollectionNotFound)
}

func TestCollections_RenameAndSort(t *testing.T) {
	cs := NewCollections()
	require.NoError(t, cs.CreateCollection("a"))
	require.NoError(t, cs.CreateCollection("b"))

	require.NoError(t, cs.RenameCollection("a", "c"))
	assert.ErrorIs(t, cs.RenameCollection("c", "b"), ErrCollectionExists)

	require.NoError(t, cs.SortCollections([]string{"b", MainCollection}))
	assert.Equal(t, []string{"b", MainCollection, "c"}, cs.Names())
}

func TestCollections_CloneIsIndependent(t *testing.T) {
	cs := NewCollections("a")
	clone := cs.Clone()

	clone.Add(Link{ID: "b"}, "")
	clone.Remove("a")

	assert.Equal(t, []string{"a"}, cs.IDs())
	assert.Equal(t, []string{"b"}, clone.IDs())
}
