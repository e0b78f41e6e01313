package usecase

import "testing"

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty input", raw: "", want: ""},
		{name: "only punctuation", raw: " -- !! ", want: ""},
		{name: "lower-cases", raw: "Intel CORE", want: "intel core"},
		{name: "collapses punctuation runs", raw: "Intel Core i7-13700K (Processor)", want: "intel core i7 13700k processor"},
		{name: "collapses whitespace", raw: "  ASUS\t\tB650M   Motherboard ", want: "asus b650m motherboard"},
		{name: "strips diacritics", raw: "Crème Brûlée Édition", want: "creme brulee edition"},
		{name: "keeps digits glued to letters", raw: "RTX4060Ti", want: "rtx4060ti"},
		{name: "dotted brand", raw: "G.Skill Trident Z5", want: "g skill trident z5"},
		{name: "unicode letters survive", raw: "Клавиатура Redragon", want: "клавиатура redragon"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.raw)
			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"AMD Ryzen™ 7 9700X", "Cooler-Master  MWE 650W", "Ñandú"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestContainsToken(t *testing.T) {
	testCases := []struct {
		haystack string
		needle   string
		want     bool
	}{
		{"amd ryzen 7 9700x", "amd ryzen", true},
		{"amd ryzen 7 9700x", "amd", true},
		{"hpe proliant", "hp", false},
		{"corsair vengeance", "", false},
		{"western digital blue", "digital blue", true},
	}

	for _, tc := range testCases {
		if got := containsToken(tc.haystack, tc.needle); got != tc.want {
			t.Errorf("containsToken(%q, %q) = %v, want %v", tc.haystack, tc.needle, got, tc.want)
		}
	}
}

func TestLevenshteinDistance(t *testing.T) {
	testCases := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"processor", "processors", 1},
		{"procesor", "processor", 1},
		{"monitor", "mointor", 2},
		{"kitten", "sitting", 3},
	}

	for _, tc := range testCases {
		if got := levenshteinDistance(tc.s1, tc.s2); got != tc.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tc.s1, tc.s2, got, tc.want)
		}
	}
}
