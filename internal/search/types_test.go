package search

import "testing"

// TestScoreMarshalJSON guards §4.5's requirement that signed scores with
// magnitude at or below 1e-4 serialize in scientific notation, a band
// encoding/json's default float formatting (which only goes scientific
// below 1e-6) would otherwise render as plain decimals like "0.00005".
func TestScoreMarshalJSON(t *testing.T) {
	cases := []struct {
		name string
		in   Score
		want string
	}{
		{"zero", 0, "0"},
		{"ordinary_positive", 0.8532, "0.8532"},
		{"ordinary_negative", -0.2, "-0.2"},
		{"at_threshold", 1e-4, "1e-04"},
		{"below_threshold", 5e-5, "5e-05"},
		{"negative_below_threshold", -3.1e-6, "-3.1e-06"},
		{"above_threshold_not_scientific", 2e-4, "0.0002"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := tc.in.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON(%v): %v", tc.in, err)
			}
			if string(b) != tc.want {
				t.Errorf("MarshalJSON(%v) = %q, want %q", tc.in, string(b), tc.want)
			}
		})
	}
}
