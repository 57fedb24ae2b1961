package store

// clampOrder bounds a requested order to the valid range 1..n.
func clampOrder(to, n int) int {
	if to < 1 {
		return 1
	}
	if to > n {
		return n
	}
	return to
}

// shiftRange returns the inclusive band of orders that must move when a job goes
// from one position to another, and the delta to apply to them. Moving up (to a
// smaller order) pushes [to, from-1] down by one; moving down pulls [from+1, to]
// up by one. ok is false when nothing moves.
func shiftRange(from, to int) (lo, hi, delta int, ok bool) {
	switch {
	case to < from:
		return to, from - 1, 1, true
	case to > from:
		return from + 1, to, -1, true
	default:
		return 0, 0, 0, false
	}
}
