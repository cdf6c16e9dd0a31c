package camera

import (
	"math"
	"testing"
)

const curveTolerance = 1e-6

func TestStyle_FractionEndpoints(t *testing.T) {
	styles := []Style{StyleRising, StyleDeclining, StyleFull, StyleWave}

	for _, s := range styles {
		if got := s.Fraction(0); math.Abs(got) > curveTolerance {
			t.Errorf("%s: Fraction(0) = %v, want 0", s, got)
		}
		if got := s.Fraction(1); math.Abs(got-1) > curveTolerance {
			t.Errorf("%s: Fraction(1) = %v, want 1", s, got)
		}
	}
}

func TestStyle_FullIsLinear(t *testing.T) {
	for i := 0; i <= 100; i++ {
		frac := float64(i) / 100
		if got := StyleFull.Fraction(frac); got != frac {
			t.Fatalf("Fraction(%v) = %v, want identity", frac, got)
		}
	}
}

func TestStyle_FractionMonotonicOnUnitInterval(t *testing.T) {
	styles := []Style{StyleRising, StyleDeclining, StyleFull, StyleWave}

	for _, s := range styles {
		prev := s.Fraction(0)
		for i := 1; i <= 100; i++ {
			cur := s.Fraction(float64(i) / 100)
			if cur < prev {
				t.Errorf("%s: curve decreases at t=%v", s, float64(i)/100)
			}
			prev = cur
		}
	}
}

func TestStyle_UnknownFallsBackToWave(t *testing.T) {
	unknown := Style(250)
	for i := 0; i <= 10; i++ {
		frac := float64(i) / 10
		if got, want := unknown.Fraction(frac), StyleWave.Fraction(frac); got != want {
			t.Fatalf("unknown style Fraction(%v) = %v, want wave value %v", frac, got, want)
		}
	}
}

func TestStyleFromString(t *testing.T) {
	tests := []struct {
		name string
		want Style
	}{
		{"rising", StyleRising},
		{"DECLINING", StyleDeclining},
		{"full", StyleFull},
		{"linear", StyleFull},
		{"wave", StyleWave},
		{"", StyleWave},
		{"bounce", StyleWave},
	}

	for _, tt := range tests {
		if got := StyleFromString(tt.name); got != tt.want {
			t.Errorf("StyleFromString(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestStyle_StringRoundTrip(t *testing.T) {
	for _, s := range []Style{StyleRising, StyleDeclining, StyleFull, StyleWave} {
		if got := StyleFromString(s.String()); got != s {
			t.Errorf("StyleFromString(%q) = %v, want %v", s.String(), got, s)
		}
	}
}
