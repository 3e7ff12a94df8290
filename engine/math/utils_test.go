package math

import "testing"

func TestMod(t *testing.T) {
	tests := []struct {
		value, size, expected int
	}{
		{5, 200, 5},
		{205, 200, 5},
		{-1, 200, 199},
		{-400, 200, 0},
		{7, 0, 7},
	}
	for _, tt := range tests {
		if got := Mod(tt.value, tt.size); got != tt.expected {
			t.Errorf("Mod(%d, %d) = %d, expected %d", tt.value, tt.size, got, tt.expected)
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		value, size, expected float32
	}{
		{10, 200, 10},
		{-12, 200, 188},
		{450, 200, 50},
		{3, 0, 3},
	}
	for _, tt := range tests {
		if got := Wrap(tt.value, tt.size); got != tt.expected {
			t.Errorf("Wrap(%v, %v) = %v, expected %v", tt.value, tt.size, got, tt.expected)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Errorf("Clamp(5, 0, 3) = %d, expected 3", got)
	}
	if got := Clamp(float32(-0.5), 0, 1); got != 0 {
		t.Errorf("Clamp(-0.5, 0, 1) = %v, expected 0", got)
	}
}
