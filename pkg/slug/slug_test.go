package slug

import "testing"

func TestMake(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Aquarium Plants", "aquarium-plants"},
		{"strips diacritics", "Cá Cảnh Đẹp", "ca-canh-dep"},
		{"collapses punctuation", "Filters & Pumps!!", "filters-pumps"},
		{"trims edges", "  --Heaters--  ", "heaters"},
		{"keeps digits", "CO2 Kits 2.0", "co2-kits-2-0"},
		{"empty input", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Make(tc.in); got != tc.want {
				t.Fatalf("Make(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
