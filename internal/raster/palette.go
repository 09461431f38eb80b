package raster

import "image/color"

type stop struct {
	t float64
	c color.NRGBA
}

// Classic hypsometric ramp, lowland green to snow.
var ramp = []stop{
	{0.00, color.NRGBA{R: 46, G: 94, B: 58, A: 255}},
	{0.30, color.NRGBA{R: 120, G: 166, B: 92, A: 255}},
	{0.55, color.NRGBA{R: 222, G: 210, B: 140, A: 255}},
	{0.80, color.NRGBA{R: 158, G: 112, B: 72, A: 255}},
	{1.00, color.NRGBA{R: 245, G: 245, B: 240, A: 255}},
}

// hypsometric returns the ramp colour for t in [0, 1]; t is clamped.
func hypsometric(t float64) color.NRGBA {
	t = clamp(t, 0, 1)
	for i := 1; i < len(ramp); i++ {
		if t > ramp[i].t {
			continue
		}
		a, b := ramp[i-1], ramp[i]
		f := (t - a.t) / (b.t - a.t)
		return color.NRGBA{
			R: channel(a.c.R, b.c.R, f),
			G: channel(a.c.G, b.c.G, f),
			B: channel(a.c.B, b.c.B, f),
			A: 255,
		}
	}
	return ramp[len(ramp)-1].c
}

func channel(a, b uint8, f float64) uint8 {
	return uint8(lerp(float64(a), float64(b), f) + 0.5)
}
