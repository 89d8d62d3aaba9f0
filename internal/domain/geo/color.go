package geo

import (
	"fmt"
	"math"
)

// rgb is an 8-bit colour triplet.
type rgb struct{ r, g, b uint8 }

// Hex formats the colour as "#rrggbb".
func (c rgb) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

// Intensity ramp stops, low to high.
var intensityStops = [4]rgb{
	{0xa3, 0xbe, 0x8c}, // green
	{0xeb, 0xcb, 0x8b}, // yellow
	{0xd0, 0x87, 0x70}, // orange
	{0xbf, 0x61, 0x6a}, // red
}

// Named endpoint colours, also used for directional styling.
const (
	ColorLow  = "#a3be8c"
	ColorHigh = "#bf616a"
)

// IntensityToColor maps an intensity in [0,100] onto the green, yellow,
// orange, red ramp, interpolating linearly within each third.  Values outside
// the range are clamped; NaN is treated as 0.
func IntensityToColor(intensity float64) string {
	v := clamp(intensity, 0, 100)

	const segment = 100.0 / 3
	i := int(v / segment)
	if i > 2 {
		i = 2
	}
	t := (v - float64(i)*segment) / segment
	if t > 1 {
		t = 1
	}
	return lerpRGB(intensityStops[i], intensityStops[i+1], t).Hex()
}

func lerpRGB(a, b rgb, t float64) rgb {
	return rgb{
		r: lerpChannel(a.r, b.r, t),
		g: lerpChannel(a.g, b.g, t),
		b: lerpChannel(a.b, b.b, t),
	}
}

func lerpChannel(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
