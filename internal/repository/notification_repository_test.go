package repository

import "testing"

func TestClampFeedLimit(t *testing.T) {
	cases := []struct {
		limit int
		want  int
	}{
		{-1, 5},
		{0, 5},
		{1, 1},
		{5, 5},
		{100, 100},
		// oversized limits clamp to the cap rather than falling back to the
		// default, so limit=101 never returns fewer rows than limit=100
		{101, 100},
		{10000, 100},
	}

	for _, tc := range cases {
		if got := clampFeedLimit(tc.limit); got != tc.want {
			t.Errorf("clampFeedLimit(%d) = %d, want %d", tc.limit, got, tc.want)
		}
	}
}
