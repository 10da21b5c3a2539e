// Package ordering maintains dense, zero-based order indices for
// entities that belong to a named group (funnels, funnel stages,
// activity templates). It operates on lightweight views of the group
// and produces patches; callers apply the patches to their own state
// and storage.
package ordering

import (
	"sort"

	"github.com/google/uuid"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Item is the view of one group member.
type Item struct {
	ID    uuid.UUID
	Index int
}

// Patch assigns a new order index to one item.
type Patch struct {
	ID    uuid.UUID
	Index int
}

// NextIndex returns the index for an item appended to the group:
// one past the current maximum, or 0 for an empty group.
func NextIndex(items []Item) int {
	max := -1
	for _, it := range items {
		if it.Index > max {
			max = it.Index
		}
	}
	return max + 1
}

// Compact restores density after the item at removedIndex left the
// group. items is the remaining group; every member whose index exceeds
// removedIndex is shifted down by one.
func Compact(items []Item, removedIndex int) []Patch {
	var patches []Patch
	for _, it := range items {
		if it.Index > removedIndex {
			patches = append(patches, Patch{ID: it.ID, Index: it.Index - 1})
		}
	}
	return patches
}

// Move swaps the item with its neighbor in the given direction.
// It returns exactly two patches, one per touched item. At a group
// boundary (first item up, last item down) it returns ok=false and the
// caller must treat the request as a no-op.
func Move(items []Item, id uuid.UUID, dir Direction) (patches [2]Patch, ok bool) {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	pos := -1
	for i, it := range sorted {
		if it.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return patches, false
	}

	var other int
	switch dir {
	case Up:
		if pos == 0 {
			return patches, false
		}
		other = pos - 1
	case Down:
		if pos == len(sorted)-1 {
			return patches, false
		}
		other = pos + 1
	default:
		return patches, false
	}

	patches[0] = Patch{ID: sorted[pos].ID, Index: sorted[other].Index}
	patches[1] = Patch{ID: sorted[other].ID, Index: sorted[pos].Index}
	return patches, true
}

// IsDense reports whether the group's indices are exactly {0..n-1}.
func IsDense(items []Item) bool {
	seen := make([]bool, len(items))
	for _, it := range items {
		if it.Index < 0 || it.Index >= len(items) || seen[it.Index] {
			return false
		}
		seen[it.Index] = true
	}
	return true
}
