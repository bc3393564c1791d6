package formats

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		want         Format
		wantConflict bool
	}{
		{name: "paperback", text: "pbk.", want: Paper},
		{name: "paper spelled out", text: "Paperback edition", want: Paper},
		{name: "hardcover", text: "hardcover", want: Hardcover},
		{name: "cloth with paper mention keeps later match", text: "cloth : alk. paper", want: Hardcover, wantConflict: true},
		{name: "cloth alone", text: "cloth", want: Hardcover},
		{name: "ebook", text: "electronic resource", want: Ebook},
		{name: "hyphenated ebook", text: "E-Book", want: Ebook},
		{name: "no keywords", text: "large print", want: Unknown},
		{name: "empty", text: "", want: Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			if got.Format != tt.want {
				t.Errorf("Classify(%q).Format = %q, want %q", tt.text, got.Format, tt.want)
			}
			if got.Conflict != tt.wantConflict {
				t.Errorf("Classify(%q).Conflict = %v, want %v", tt.text, got.Conflict, tt.wantConflict)
			}
		})
	}
}

// Keyword lists are scanned paper, hardcover, ebook, and a later hit
// overwrites an earlier one. When a description mentions both a hardcover
// and an ebook, the ebook keyword is scanned last and wins.
func TestClassifyLastMatchWins(t *testing.T) {
	got := Classify("Hardcover (ebook available)")
	if got.Format != Ebook {
		t.Fatalf("Format = %q, want %q (last-match-wins)", got.Format, Ebook)
	}
	if !got.Conflict {
		t.Fatal("Conflict = false, want true for a two-format description")
	}
}
