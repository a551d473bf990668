package utils

// UniqueUint removes duplicate values from a slice of uints, keeping first occurrences in order.
func UniqueUint(slice []uint) []uint {
	seen := make(map[uint]struct{}, len(slice))
	list := make([]uint, 0, len(slice))
	for _, entry := range slice {
		if _, ok := seen[entry]; ok {
			continue
		}
		seen[entry] = struct{}{}
		list = append(list, entry)
	}
	return list
}

// WithoutUint returns slice without any occurrence of v.
func WithoutUint(slice []uint, v uint) []uint {
	out := make([]uint, 0, len(slice))
	for _, entry := range slice {
		if entry != v {
			out = append(out, entry)
		}
	}
	return out
}
