package memory

import "testing"

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{13.99, 13.99},
		{69.949999999999996, 69.95},
		{0, 0},
		{-1.2345, -1.23},
		{-69.949999999999996, -69.95},
	}
	for _, tc := range cases {
		if got := round2(tc.in); got != tc.want {
			t.Fatalf("round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
