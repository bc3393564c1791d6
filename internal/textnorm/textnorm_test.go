package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercases", in: "HOUND OF THE BASKERVILLES.", want: "hound of the baskervilles"},
		{name: "strips punctuation", in: "The hound, of the Baskervilles!", want: "the hound of the baskervilles"},
		{name: "folds diacritics", in: "Émile Zola's Œuvre", want: "emile zolas œuvre"},
		{name: "collapses whitespace", in: "  a \t b\nc ", want: "a b c"},
		{name: "keeps digits", in: "Catch-22", want: "catch22"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsNA(t *testing.T) {
	for _, s := range []string{"", "  ", "N/A", "NA", "n/a"} {
		if !IsNA(s) {
			t.Errorf("IsNA(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"N/A: a history", "0", "none"} {
		if IsNA(s) {
			t.Errorf("IsNA(%q) = true, want false", s)
		}
	}
}
