package keyframe

import (
	"github.com/odemakov/rawtherapee-timelapse/internal/easing"
)

// Plausibility ranges for interpolated values, matching what
// RawTherapee accepts in practice.
const (
	TempMin  = 2000.0
	TempMax  = 10000.0
	GreenMin = 0.1
	GreenMax = 2.0
	CompMin  = -5.0
	CompMax  = 5.0
)

// Interpolate blends the scalar settings of the bracketing keyframes
// at frame. The raw fraction between the two indices is eased with
// smoothstep, so motion accelerates out of prev and settles into next.
// When prev and next are the same record (frame on or outside the
// keyframe range) the values are returned unchanged; there is no
// extrapolation.
func Interpolate(prev, next Keyframe, frame int) Scalars {
	if prev.Index == next.Index {
		return clampScalars(prev.Scalars)
	}

	t := float64(frame-prev.Index) / float64(next.Index-prev.Index)
	t = easing.Smoothstep(t)

	return clampScalars(Scalars{
		Temperature:  easing.Lerp(prev.Temperature, next.Temperature, t),
		Green:        easing.Lerp(prev.Green, next.Green, t),
		Compensation: easing.Lerp(prev.Compensation, next.Compensation, t),
	})
}

func clampScalars(s Scalars) Scalars {
	s.Temperature = clamp(s.Temperature, TempMin, TempMax)
	s.Green = clamp(s.Green, GreenMin, GreenMax)
	s.Compensation = clamp(s.Compensation, CompMin, CompMax)
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
