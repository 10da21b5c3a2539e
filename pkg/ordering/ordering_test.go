package ordering

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func group(indices ...int) []Item {
	items := make([]Item, 0, len(indices))
	for _, idx := range indices {
		items = append(items, Item{ID: uuid.New(), Index: idx})
	}
	return items
}

func apply(items []Item, patches []Patch) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	for _, p := range patches {
		for i := range out {
			if out[i].ID == p.ID {
				out[i].Index = p.Index
			}
		}
	}
	return out
}

func TestNextIndex(t *testing.T) {
	require.Equal(t, 0, NextIndex(nil))
	require.Equal(t, 0, NextIndex([]Item{}))
	require.Equal(t, 3, NextIndex(group(0, 1, 2)))
	// Gaps do not matter for append, only the maximum does.
	require.Equal(t, 6, NextIndex(group(0, 5, 2)))
}

func TestCompact_RestoresDensity(t *testing.T) {
	items := group(0, 1, 2, 3, 4)
	// Remove the item at index 2.
	remaining := append([]Item{}, items[:2]...)
	remaining = append(remaining, items[3:]...)

	patches := Compact(remaining, 2)
	require.Len(t, patches, 2)

	updated := apply(remaining, patches)
	require.True(t, IsDense(updated))
}

func TestCompact_RemovingLastNeedsNoPatches(t *testing.T) {
	items := group(0, 1, 2)
	remaining := items[:2]
	require.Empty(t, Compact(remaining, 2))
	require.True(t, IsDense(remaining))
}

func TestMove_AdjacentSwap(t *testing.T) {
	items := group(0, 1, 2, 3)
	target := items[2]

	patches, ok := Move(items, target.ID, Up)
	require.True(t, ok)

	// Exactly two items change, exchanging their former indices.
	require.Equal(t, target.ID, patches[0].ID)
	require.Equal(t, 1, patches[0].Index)
	require.Equal(t, items[1].ID, patches[1].ID)
	require.Equal(t, 2, patches[1].Index)

	updated := apply(items, patches[:])
	require.True(t, IsDense(updated))
}

func TestMove_BoundaryNoOp(t *testing.T) {
	items := group(0, 1, 2)

	_, ok := Move(items, items[0].ID, Up)
	require.False(t, ok)

	_, ok = Move(items, items[2].ID, Down)
	require.False(t, ok)
}

func TestMove_UnknownItem(t *testing.T) {
	items := group(0, 1)
	_, ok := Move(items, uuid.New(), Down)
	require.False(t, ok)
}

func TestMove_UnsortedInput(t *testing.T) {
	// Move works on order indices, not slice positions.
	items := []Item{
		{ID: uuid.New(), Index: 2},
		{ID: uuid.New(), Index: 0},
		{ID: uuid.New(), Index: 1},
	}
	patches, ok := Move(items, items[0].ID, Up)
	require.True(t, ok)
	require.Equal(t, 1, patches[0].Index)
	require.Equal(t, items[2].ID, patches[1].ID)
	require.Equal(t, 2, patches[1].Index)
}

func TestIsDense(t *testing.T) {
	require.True(t, IsDense(nil))
	require.True(t, IsDense(group(2, 0, 1)))
	require.False(t, IsDense(group(0, 2)))
	require.False(t, IsDense(group(0, 0, 1)))
}

func TestDensityInvariant_AfterOperationSequence(t *testing.T) {
	items := group(0, 1, 2)

	// Add two items at the end.
	for i := 0; i < 2; i++ {
		items = append(items, Item{ID: uuid.New(), Index: NextIndex(items)})
	}
	require.True(t, IsDense(items))

	// Remove the middle item and compact.
	removed := items[2]
	var remaining []Item
	for _, it := range items {
		if it.ID != removed.ID {
			remaining = append(remaining, it)
		}
	}
	remaining = apply(remaining, Compact(remaining, removed.Index))
	require.True(t, IsDense(remaining))

	// Shuffle the last item all the way to the front.
	last := remaining[len(remaining)-1]
	for {
		patches, ok := Move(remaining, last.ID, Up)
		if !ok {
			break
		}
		remaining = apply(remaining, patches[:])
		require.True(t, IsDense(remaining))
	}

	for _, it := range remaining {
		if it.ID == last.ID {
			require.Equal(t, 0, it.Index)
		}
	}
}
