package catalog

import "testing"

func TestNormalizeColor(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"simple", "Navy", "Navy"},
		{"lowercase", "navy", "Navy"},
		{"compound slash", "Navy/Heather", "Navy"},
		{"patch suffix", "Black patch", "Black"},
		{"patch suffix mixed case", "Black Patch", "Black"},
		{"slash and whitespace", " Forest Green / Heather ", "Forest Green"},
		{"multi word", "heather ice blue", "Heather Ice Blue"},
		{"empty", "", ""},
		{"only qualifier", "/heather", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeColor(tc.raw); got != tc.want {
				t.Errorf("NormalizeColor(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalizeColorIdempotent(t *testing.T) {
	inputs := []string{"Navy/Heather", "black patch", "Solid White", "RED", "heather grey / solid"}
	for _, raw := range inputs {
		once := NormalizeColor(raw)
		twice := NormalizeColor(once)
		if once != twice {
			t.Errorf("NormalizeColor not idempotent for %q: first %q, second %q", raw, once, twice)
		}
	}
}

func TestNormalizeColorCollapsesCompounds(t *testing.T) {
	if NormalizeColor("Navy/Heather") != NormalizeColor("Navy") {
		t.Errorf("expected Navy/Heather and Navy to normalize identically, got %q and %q",
			NormalizeColor("Navy/Heather"), NormalizeColor("Navy"))
	}
}
