package explain

import "math/bits"

// PartialRatio scores how well the shorter string appears inside the longer
// one, on a 0-100 scale. The shorter string is aligned against every window of
// the longer one (including partial overlaps at both ends) and the best
// normalized indel similarity wins. Comparison is case-sensitive and works on
// runes.
func PartialRatio(a, b string) float64 {
	s1, s2 := []rune(a), []rune(b)

	if len(s1) == 0 && len(s2) == 0 {
		return 100
	}
	if len(s1) == 0 || len(s2) == 0 {
		return 0
	}

	if len(s1) > len(s2) {
		s1, s2 = s2, s1
	}

	best := alignNeedle(s1, s2)
	if len(s1) == len(s2) && best < 100 {
		if swapped := alignNeedle(s2, s1); swapped > best {
			best = swapped
		}
	}

	return best
}

// alignNeedle slides needle over haystack (len(needle) <= len(haystack)).
// Windows whose boundary rune does not occur in needle cannot start or end an
// optimal alignment and are skipped.
func alignNeedle(needle, haystack []rune) float64 {
	n, h := len(needle), len(haystack)

	inNeedle := make(map[rune]struct{}, n)
	for _, r := range needle {
		inNeedle[r] = struct{}{}
	}
	has := func(r rune) bool {
		_, ok := inNeedle[r]
		return ok
	}

	lcs := newLCS(needle)
	best := 0.0
	try := func(window []rune) bool {
		if score := indelRatio(n, len(window), lcs(window)); score > best {
			best = score
		}
		return best == 100
	}

	// windows growing in from the left edge
	for i := 1; i < n; i++ {
		if has(haystack[i-1]) && try(haystack[:i]) {
			return best
		}
	}

	// full-length windows
	for i := 0; i <= h-n; i++ {
		if has(haystack[i+n-1]) && try(haystack[i:i+n]) {
			return best
		}
	}

	// windows shrinking towards the right edge
	for i := h - n + 1; i < h; i++ {
		if has(haystack[i]) && try(haystack[i:]) {
			return best
		}
	}

	return best
}

func indelRatio(len1, len2, lcs int) float64 {
	total := len1 + len2
	if total == 0 {
		return 100
	}
	return 200 * float64(lcs) / float64(total)
}

// newLCS returns a function computing the length of the longest common
// subsequence between needle and any text. Needles of up to 64 runes use the
// bit-parallel algorithm; longer ones fall back to a two-row table.
func newLCS(needle []rune) func(text []rune) int {
	if len(needle) > 64 {
		return func(text []rune) int {
			return lcsTable(needle, text)
		}
	}

	masks := make(map[rune]uint64, len(needle))
	for i, r := range needle {
		masks[r] |= 1 << uint(i)
	}

	var width uint64 = ^uint64(0)
	if len(needle) < 64 {
		width = (1 << uint(len(needle))) - 1
	}

	return func(text []rune) int {
		s := ^uint64(0)
		for _, r := range text {
			u := s & masks[r]
			s = (s + u) | (s - u)
		}
		return bits.OnesCount64(^s & width)
	}
}

func lcsTable(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
