package easing

import (
	"fmt"
	"math"
)

// Curve maps a progress value in [0,1] to an eased value in [0,1].
// Every curve satisfies Curve(0)=0, Curve(1)=1 and is monotonic
// non-decreasing in between.
type Curve func(t float64) float64

// Linear is the identity curve.
func Linear(t float64) float64 {
	return t
}

// EaseIn is quadratic ease-in (slow start).
func EaseIn(t float64) float64 {
	return t * t
}

// EaseOut is quadratic ease-out (slow end).
func EaseOut(t float64) float64 {
	return 1 - (1-t)*(1-t)
}

// Smoothstep is the cubic ease-in-out curve t²(3-2t).
// Used as the default easing for scalar interpolation.
func Smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

// Exponential is a normalized exponential curve (2^(10t)-1)/(2^10-1),
// exact at both endpoints.
func Exponential(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return (math.Pow(2, 10*t) - 1) / (math.Pow(2, 10) - 1)
}

var curves = map[string]Curve{
	"linear":      Linear,
	"ease-in":     EaseIn,
	"ease-out":    EaseOut,
	"ease-in-out": Smoothstep,
	"exponential": Exponential,
}

// ForName returns the curve registered under name.
func ForName(name string) (Curve, error) {
	c, ok := curves[name]
	if !ok {
		return nil, fmt.Errorf("unknown easing curve %q", name)
	}
	return c, nil
}

// Names lists the registered curve names.
func Names() []string {
	return []string{"linear", "ease-in", "ease-out", "ease-in-out", "exponential"}
}

// Lerp performs linear interpolation between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
