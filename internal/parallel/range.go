package parallel

// Range is a half-open interval [Lo, Hi) of item indices.
type Range struct {
	Lo, Hi int
}

// Len returns the number of items in the range.
func (r Range) Len() int {
	return r.Hi - r.Lo
}

// Split cuts [0, n) into consecutive ranges of grain items; the last range
// may be shorter. A grain below 1 is treated as 1.
func Split(n, grain int) []Range {
	if n <= 0 {
		return nil
	}
	grain = max(grain, 1)

	ranges := make([]Range, 0, (n+grain-1)/grain)
	for lo := 0; lo < n; lo += grain {
		ranges = append(ranges, Range{Lo: lo, Hi: min(lo+grain, n)})
	}
	return ranges
}

// Grain picks a range size that gives each of the given workers several
// ranges to balance across, without dropping below minGrain items.
func Grain(n, workers, minGrain int) int {
	const rangesPerWorker = 8
	workers = max(workers, 1)
	return max((n+workers*rangesPerWorker-1)/(workers*rangesPerWorker), minGrain, 1)
}
