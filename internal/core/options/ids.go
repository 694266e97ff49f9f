package options

// assignIDs gives every item without a positive id the next id above the
// largest one already present, so existing ids are kept and new ones never
// collide with them.
func assignIDs[T any](items []T, id func(*T) *int) {
	next := 0
	for i := range items {
		if v := *id(&items[i]); v > next {
			next = v
		}
	}
	for i := range items {
		if p := id(&items[i]); *p <= 0 {
			next++
			*p = next
		}
	}
}

func hasDuplicateIDs[T any](items []T, id func(*T) *int) (int, bool) {
	seen := make(map[int]struct{}, len(items))
	for i := range items {
		v := *id(&items[i])
		if _, ok := seen[v]; ok {
			return v, true
		}
		seen[v] = struct{}{}
	}
	return 0, false
}
