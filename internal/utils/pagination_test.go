package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// empty -> default
		{"", 10, 10},
		// valid ints
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// invalid -> default (no trim)
		{"x", 5, 5},
		{" 42", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestClampPageSize(t *testing.T) {
	cases := []struct {
		s    string
		want int
	}{
		// empty/invalid -> default
		{"", 20},
		{"x", 20},
		// in-range values pass through
		{"1", 1},
		{"50", 50},
		{"100", 100},
		// out of range -> clamped
		{"0", 1},
		{"-5", 1},
		{"101", 100},
		{"9999", 100},
	}

	for _, tc := range cases {
		if got := ClampPageSize(tc.s, 20, 100); got != tc.want {
			t.Fatalf("ClampPageSize(%q, 20, 100) = %d; want %d", tc.s, got, tc.want)
		}
	}
}
