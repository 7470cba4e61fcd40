package keyset

const (
	MaxPageSize     = 100
	DefaultPageSize = 10
)

// IsNormalizedPageSize clamps size to [1, maxSize]. A zero size means
// "not requested" and yields defaultSize, itself clamped to [1, maxSize].
// A maxSize below one is treated as one. The boolean reports whether size
// was used as is.
func IsNormalizedPageSize(size, defaultSize, maxSize int) (int, bool) {
	maxSize = max(maxSize, 1)

	switch {
	case size == 0:
		return max(min(defaultSize, maxSize), 1), false
	case size < 0:
		return 1, false
	case size > maxSize:
		return maxSize, false
	}

	return size, true
}

func NormalizePageSize(size, defaultSize, maxSize int) int {
	ret, _ := IsNormalizedPageSize(size, defaultSize, maxSize)
	return ret
}
