package grid

import "testing"

func TestGetGridCoords(t *testing.T) {
	tests := []struct {
		index int
		cols  int
		wantX int
		wantY int
	}{
		// 64 cols (frame buffer)
		{0, 64, 0, 0},
		{1, 64, 1, 0},
		{63, 64, 63, 0},
		{64, 64, 0, 1},
		{65, 64, 1, 1},
		{127, 64, 63, 1},
		{128, 64, 0, 2},
		{2047, 64, 63, 31},

		// 8 cols (sprite rows)
		{0, 8, 0, 0},
		{7, 8, 7, 0},
		{8, 8, 0, 1},
		{15, 8, 7, 1},
	}

	for _, tc := range tests {
		gotX, gotY := GetGridCoords(tc.index, tc.cols)
		if gotX != tc.wantX || gotY != tc.wantY {
			t.Errorf("GetGridCoords(%d, %d) = (%d, %d); want (%d, %d)", tc.index, tc.cols, gotX, gotY, tc.wantX, tc.wantY)
		}
	}
}

func TestGetGridIndex(t *testing.T) {
	tests := []struct {
		x, y, cols int
		want       int
	}{
		{0, 0, 64, 0},
		{63, 0, 64, 63},
		{0, 1, 64, 64},
		{63, 31, 64, 2047},
		{5, 3, 8, 29},
	}

	for _, tc := range tests {
		if got := GetGridIndex(tc.x, tc.y, tc.cols); got != tc.want {
			t.Errorf("GetGridIndex(%d, %d, %d) = %d; want %d", tc.x, tc.y, tc.cols, got, tc.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for index := 0; index < 2048; index++ {
		x, y := GetGridCoords(index, 64)
		if got := GetGridIndex(x, y, 64); got != index {
			t.Fatalf("round trip of index %d produced %d", index, got)
		}
	}
}
