// Package pages holds the stateful views the command layer renders
// from. Each page owns a snapshot of backend data and applies local
// reducers after successful mutations instead of refetching.
package pages

// Prepend puts item at the front of items, newest first.
func Prepend[T any](items []T, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, item)
	return append(out, items...)
}

// RemoveByID drops the first element whose id matches. The input
// slice is not modified.
func RemoveByID[T any](items []T, id string, idOf func(T) string) []T {
	out := make([]T, 0, len(items))
	removed := false
	for _, it := range items {
		if !removed && idOf(it) == id {
			removed = true
			continue
		}
		out = append(out, it)
	}
	return out
}

// ReplaceByID swaps the element with item's id for item, keeping
// position. Items without a match are returned unchanged.
func ReplaceByID[T any](items []T, item T, idOf func(T) string) []T {
	id := idOf(item)
	out := make([]T, len(items))
	copy(out, items)
	for i := range out {
		if idOf(out[i]) == id {
			out[i] = item
			break
		}
	}
	return out
}
