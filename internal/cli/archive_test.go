package cli

import "testing"

func TestCountSelected(t *testing.T) {
	tests := []struct {
		name string
		bs   []bool
		want int
	}{
		{"none", []bool{false, false, false}, 0},
		{"one", []bool{true, false, false}, 1},
		{"all", []bool{true, true, true}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countSelected(tt.bs...); got != tt.want {
				t.Errorf("countSelected(%v) = %d, want %d", tt.bs, got, tt.want)
			}
		})
	}
}
