// Package collection keeps client-side paginated views free of duplicates
// while pages are appended, prepended to and pruned.
package collection

// Identified is anything with a stable identity.
type Identified interface {
	ItemID() string
}

// Merge returns existing followed by the items of incoming whose id is not
// already present, in incoming's order. Duplicates inside incoming
// collapse to their first occurrence. Merging the same page twice is a
// no-op the second time.
func Merge[T Identified](existing, incoming []T) []T {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]T, 0, len(existing)+len(incoming))
	for _, it := range existing {
		seen[it.ItemID()] = struct{}{}
		out = append(out, it)
	}
	for _, it := range incoming {
		id := it.ItemID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, it)
	}
	return out
}
