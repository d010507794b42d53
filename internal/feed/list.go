package feed

import "golang.org/x/exp/slices"

// BuildInitialList places seed at the front of page while keeping the page size.
// If seed is already in page it is moved to the front; otherwise the last id of
// page is dropped and seed is prepended. An empty page yields just the seed.
func BuildInitialList(seed VideoID, page []VideoID) []VideoID {
	out := slices.Clone(page)
	if i := slices.Index(out, seed); i != -1 {
		out = slices.Delete(out, i, i+1)
	} else if len(out) > 0 {
		out = out[:len(out)-1]
	}
	return slices.Insert(out, 0, seed)
}

// ShouldPaginate reports whether current is within distance of the list tail.
func ShouldPaginate(current, length, distance int) bool {
	return current >= length-distance
}
