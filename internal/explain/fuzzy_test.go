package explain

import (
	"math"
	"strings"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPartialRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"abc", "xxabcxx", 100},
		{"this is a test", "this is a test!", 100},
		{"abcd", "abxd", 75},
		{"", "", 100},
		{"abc", "", 0},
		{"abc", "xyz", 0},
		// only the middle window shares three ordered runes with the needle
		{"abcdefghij", "YYYYYYYYYYaYYbYYYYYcYYYYYYYYYY", 30},
	}

	for _, tt := range tests {
		if got := PartialRatio(tt.a, tt.b); !approx(got, tt.want) {
			t.Errorf("PartialRatio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got := PartialRatio(tt.b, tt.a); !approx(got, tt.want) {
			t.Errorf("PartialRatio(%q, %q) = %v, want %v (swapped)", tt.b, tt.a, got, tt.want)
		}
	}
}

func TestPartialRatio_CaseSensitive(t *testing.T) {
	if got := PartialRatio("ABC", "xxabcxx"); got != 0 {
		t.Errorf("Expected case-sensitive comparison, got %v", got)
	}
}

func TestPartialRatio_Runes(t *testing.T) {
	if got := PartialRatio("Übersicht", "Die Übersicht der Anlage"); got != 100 {
		t.Errorf("Expected multi-byte runes to align, got %v", got)
	}
}

func TestPartialRatio_LongNeedle(t *testing.T) {
	needle := strings.Repeat("availability ", 6) // 78 runes, past the bit-parallel limit
	haystack := "KPI catalogue: " + needle + " end."

	if got := PartialRatio(needle, haystack); got != 100 {
		t.Errorf("Expected long needle to be found, got %v", got)
	}
}

func TestLCS_BitParallelMatchesTable(t *testing.T) {
	words := []string{
		"Availability measures uptime",
		"Percentage of time worked compared to time available.",
		"x/(x+y)",
		"cycle time",
		"ÄÖÜ äöü ß",
		"",
	}

	for _, a := range words {
		lcs := newLCS([]rune(a))
		for _, b := range words {
			if got, want := lcs([]rune(b)), lcsTable([]rune(a), []rune(b)); got != want {
				t.Errorf("lcs(%q, %q) = %d, table says %d", a, b, got, want)
			}
		}
	}
}
