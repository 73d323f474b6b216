package enrich

import (
	"fmt"
	"math/rand/v2"
)

// randomTagColor picks a random hue/saturation/lightness triple in
// ranges chosen to stay legible on a light background, then converts
// to a "#RRGGBB" hex string for storage on the Tag row.
func randomTagColor() string {
	h := rand.Float64() * 360
	s := 0.5 + rand.Float64()*0.5
	l := 0.2 + rand.Float64()*0.4
	r, g, b := hslToRGB(h, s, l)
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

func hslToRGB(h, s, l float64) (int, int, int) {
	c := (1 - abs(2*l-1)) * s
	x := c * (1 - abs(mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return int((r + m) * 255), int((g + m) * 255), int((b + m) * 255)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func mod(v, m float64) float64 {
	r := v
	for r >= m {
		r -= m
	}
	for r < 0 {
		r += m
	}
	return r
}
