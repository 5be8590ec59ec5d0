// Package retry orchestrates the self-correcting generation loop: it diffs
// error sets between attempts, computes a fix rate, rebuilds the prompt
// around the unresolved defects and drives the next attempt.
package retry

import "github.com/BaSui01/uiflow/validate"

// Diff partitions two attempts' error sets by defect identity
// (layer, path, message).
//
// For any prev/curr: len(Fixed)+len(Remaining) == len(prev) and
// len(Remaining)+len(New) == len(curr), and the three sets are pairwise
// disjoint by key.
type Diff struct {
	// Fixed errors were present previously and are gone now.
	Fixed []validate.ChainError
	// Remaining errors are present in both attempts.
	Remaining []validate.ChainError
	// New errors were introduced by the current attempt.
	New []validate.ChainError
}

// Unresolved returns the errors the next attempt must still fix:
// everything present in the current attempt, in stable order.
func (d Diff) Unresolved() []validate.ChainError {
	out := make([]validate.ChainError, 0, len(d.Remaining)+len(d.New))
	out = append(out, d.Remaining...)
	out = append(out, d.New...)
	return out
}

// CompareErrors diffs the previous attempt's errors against the current
// attempt's. Matching is exact key equality: the same message text at the
// same path and layer is the same defect. On a first attempt prev is empty,
// so everything current is New.
func CompareErrors(prev, curr []validate.ChainError) Diff {
	// Multiset matching keeps the partition invariants exact even when an
	// attempt reports the same defect more than once.
	currCount := make(map[string]int, len(curr))
	for _, e := range curr {
		currCount[e.Key()]++
	}

	var d Diff
	for _, e := range prev {
		if currCount[e.Key()] > 0 {
			currCount[e.Key()]--
			d.Remaining = append(d.Remaining, e)
		} else {
			d.Fixed = append(d.Fixed, e)
		}
	}
	for _, e := range curr {
		if currCount[e.Key()] > 0 {
			currCount[e.Key()]--
			d.New = append(d.New, e)
		}
	}
	return d
}

// CalculateFixRate returns the fraction of the previous attempt's errors
// absent from the current attempt, always in [0,1]. An empty previous set
// is trivially fully fixed, so the rate is exactly 1 by convention rather
// than 0/0.
func CalculateFixRate(prev, curr []validate.ChainError) float64 {
	if len(prev) == 0 {
		return 1
	}
	d := CompareErrors(prev, curr)
	return float64(len(d.Fixed)) / float64(len(prev))
}
